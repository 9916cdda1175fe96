// Package push publishes the mission code currently on the clipboard.
package push

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/infilengine/cmpush/cmd/cmpush/internal/app"
	"github.com/infilengine/cmpush/pkg/cmclip"
	"github.com/infilengine/cmpush/pkg/cmcode"
)

var flags app.Flags

func init() {
	flags.Register(Cmd)
}

var Cmd = &cobra.Command{
	Use:   "push",
	Short: "Publish the mission code on the clipboard once",
	Long: `Read the clipboard, parse it as a mission code, commit and push it
to the repository, and copy the raw content URL back to the clipboard.`,
	Example: "  cmpush push -r ~/missions",
	Run:     runCmd,
}

func runCmd(cmd *cobra.Command, _ []string) {
	cfg, err := flags.Resolve(cmd)
	if err != nil {
		log.Fatalf("Configuration error: %s", err)
	}
	// A one-shot push has no long-lived screen to own.
	cfg.NoInteract = true

	a, err := app.Start(cfg)
	if err != nil {
		log.Fatalf("Startup failed: %s", err)
	}

	clip := cmclip.System{}

	a.MainLog.Info("Reading mission code from clipboard...")
	text, err := clip.GetText()
	if err != nil {
		log.Fatalf("Clipboard read failed: %s", err)
	}

	code, err := cmcode.Parse(text)
	if err != nil {
		log.Fatalf("Clipboard did not hold a publishable mission code: %s", err)
	}

	result, err := a.Publisher().Publish(a.Context(), code)
	if err != nil {
		log.Fatalf("Publish failed: %s", err)
	}

	a.MainLog.Info("Copying link to clipboard...")
	if err := clip.SetText(result.RawURL); err != nil {
		log.Fatalf("Error whilst copying to clipboard: %s", err)
	}

	if result.Tracked {
		a.MainLog.Successf("Successfully pushed mission version %d!", result.Version)
	} else {
		a.MainLog.Success("Successfully pushed untracked mission!")
	}
}
