// Package standby watches the clipboard and publishes every mission code
// copied onto it.
package standby

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/infilengine/cmpush/cmd/cmpush/internal/app"
	"github.com/infilengine/cmpush/pkg/cmclip"
	"github.com/infilengine/cmpush/pkg/cmterm"
)

var flags app.Flags

func init() {
	flags.Register(Cmd)
}

var Cmd = &cobra.Command{
	Use:   "standby",
	Short: "Watch the clipboard and publish mission codes as they appear",
	Long: `Poll the clipboard until interrupted. Whenever a mission code is
copied, publish it and replace the clipboard contents with the raw content
URL.`,
	Example: "  cmpush standby -r ~/missions",
	Run:     runCmd,
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

	watcher := &cmclip.Watcher{
		Clipboard: cmclip.System{},
		Publisher: a.Publisher(),
	}

	ctx, cancel := context.WithCancel(cmterm.WithLog(context.Background(), a.MainLog))
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	a.MainLog.Info("Shutting down...")
	cancel()
	<-done
}
