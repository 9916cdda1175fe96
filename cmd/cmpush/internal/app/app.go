// Package app holds the runtime shared by the cmpush subcommands: flag
// resolution over the config file, dashboard or headless logging, and the
// opened repository.
package app

import (
	"context"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/infilengine/cmpush/pkg/cmcfg"
	"github.com/infilengine/cmpush/pkg/cmrepo"
	"github.com/infilengine/cmpush/pkg/cmserver"
	"github.com/infilengine/cmpush/pkg/cmterm"
)

// Flags mirrors cmcfg.Config on the command line.
type Flags struct {
	ConfigPath  string
	RepoPath    string
	Port        int
	RedrawDelay int
	NoInteract  bool
	HideURL     bool
	LogDir      string
	Author      string
	AuthorEmail string
}

// Register adds the shared flag set to a subcommand.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ConfigPath, "config", "", "Path to a YAML config file supplying defaults.")
	cmd.Flags().StringVarP(&f.RepoPath, "repo-path", "r", ".", "Path to the git repository holding the missions.")
	cmd.Flags().IntVarP(&f.Port, "port", "p", cmserver.DefaultPort, "Port for the publish listener.")
	cmd.Flags().IntVarP(&f.RedrawDelay, "redraw-delay", "d", 250, "Dashboard redraw interval in milliseconds.")
	cmd.Flags().BoolVarP(&f.NoInteract, "no-interact", "e", false, "Disable the dashboard; log to stderr instead.")
	cmd.Flags().BoolVarP(&f.HideURL, "hide-url", "c", false, "Mask gist URLs in log output.")
	cmd.Flags().StringVar(&f.LogDir, "log-dir", "", "Directory for raw log mirror files.")
	cmd.Flags().StringVar(&f.Author, "author", "", "Commit author name.")
	cmd.Flags().StringVar(&f.AuthorEmail, "author-email", "", "Commit author email.")
}

// Resolve merges the config file under the flags: file values replace the
// built-in defaults, flags given explicitly replace the file.
func (f *Flags) Resolve(cmd *cobra.Command) (cmcfg.Config, error) {
	cfg := cmcfg.Default()

	if f.ConfigPath != "" {
		loaded, err := cmcfg.Load(f.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("repo-path") {
		cfg.RepoPath = f.RepoPath
	}
	if flags.Changed("port") {
		cfg.Port = f.Port
	}
	if flags.Changed("redraw-delay") {
		cfg.RedrawDelay = f.RedrawDelay
	}
	if flags.Changed("no-interact") {
		cfg.NoInteract = f.NoInteract
	}
	if flags.Changed("hide-url") {
		cfg.HideURL = f.HideURL
	}
	if flags.Changed("log-dir") {
		cfg.LogDir = f.LogDir
	}
	if flags.Changed("author") {
		cfg.Author = f.Author
	}
	if flags.Changed("author-email") {
		cfg.AuthorEmail = f.AuthorEmail
	}

	return cfg, nil
}

// App is a running cmpush environment.
type App struct {
	Cfg       cmcfg.Config
	Repo      *cmrepo.Repo
	MainLog   *cmterm.Log
	ServerLog *cmterm.Log

	screen *cmterm.Screen
	handle *cmterm.Handle
}

// Start opens the repository and brings up either the dashboard or headless
// stderr logging.
func Start(cfg cmcfg.Config) (*App, error) {
	repo, err := cmrepo.Open(cfg.RepoPath)
	if err != nil {
		return nil, err
	}

	a := &App{Cfg: cfg, Repo: repo}

	if cfg.NoInteract {
		a.MainLog = cmterm.NewLog("Main Thread", nil).WithEcho(os.Stderr)
		a.ServerLog = cmterm.NewLog("Server Thread", nil).WithEcho(os.Stderr)
	} else {
		screen, err := cmterm.NewScreen()
		if err != nil {
			return nil, err
		}
		a.screen = screen

		manager := cmterm.NewManager(screen)
		a.MainLog = manager.MainLog
		a.ServerLog = manager.ServerLog
		a.handle = manager.Start(time.Duration(cfg.RedrawDelay) * time.Millisecond)

		// The dashboard owns the terminal now; route logrus into the main
		// pane instead.
		log.AddHook(cmterm.NewLogrusHook(a.MainLog))
		log.SetOutput(io.Discard)
	}

	if cfg.LogDir != "" {
		a.MainLog.WithDiskMirror(cfg.LogDir)
		a.ServerLog.WithDiskMirror(cfg.LogDir)
	}

	a.MainLog.Infof("Opened repository %s", repo.Name())
	return a, nil
}

// Stop tears the dashboard down and gives the terminal back.
func (a *App) Stop() {
	if a.handle != nil {
		a.handle.Stop()
		a.handle.Wait()
		a.handle = nil
	}
	if a.screen != nil {
		_ = a.screen.Close()
		a.screen = nil
		log.SetOutput(os.Stderr)
	}
}

// Publisher builds the repository publisher with the configured identity.
func (a *App) Publisher() *cmserver.RepoPublisher {
	return &cmserver.RepoPublisher{
		Repo: a.Repo,
		Opts: cmrepo.Options{Author: a.Cfg.Author, AuthorEmail: a.Cfg.AuthorEmail},
	}
}

// Context returns a background context carrying the main log.
func (a *App) Context() context.Context {
	return cmterm.WithLog(context.Background(), a.MainLog)
}
