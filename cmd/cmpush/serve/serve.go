// Package serve runs the publish listener with the dashboard.
package serve

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/infilengine/cmpush/cmd/cmpush/internal/app"
	"github.com/infilengine/cmpush/pkg/cmclip"
	"github.com/infilengine/cmpush/pkg/cmrepo"
	"github.com/infilengine/cmpush/pkg/cmserver"
)

var flags app.Flags

func init() {
	flags.Register(Cmd)
}

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Listen for mission codes over HTTP and publish them",
	Long: `Start the local publish listener. POST a mission code to
/publish_codeless and cmpush commits it to the repository, pushes it to the
gist remote and copies the raw content URL to the clipboard.`,
	Example: "  cmpush serve -r ~/missions\n" +
		"  cmpush serve -p 8080 --hide-url\n" +
		"  cmpush serve -e   # no dashboard, log to stderr",
	Run: runCmd,
}

func runCmd(cmd *cobra.Command, _ []string) {
	cfg, err := flags.Resolve(cmd)
	if err != nil {
		log.Fatalf("Configuration error: %s", err)
	}

	a, err := app.Start(cfg)
	if err != nil {
		log.Fatalf("Startup failed: %s", err)
	}
	defer a.Stop()

	server := cmserver.NewServer(a.ServerLog, a.Publisher(), cmserver.Config{
		Port:    cfg.Port,
		HideURL: cfg.HideURL,
	})

	clip := cmclip.System{}
	server.OnPublished = func(result *cmrepo.Result) {
		a.ServerLog.Info("Copying link to clipboard...")
		if err := clip.SetText(result.RawURL); err != nil {
			a.ServerLog.Errorf("Error whilst copying to clipboard: %v", err)
			return
		}
		a.ServerLog.Success("Copied link to clipboard")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		a.MainLog.Info("Shutting down...")
		server.Stop()
		<-server.Done()
	case err := <-serverErr:
		if err != nil {
			a.MainLog.Errorf("Listener failed: %v", err)
		}
	}
}
