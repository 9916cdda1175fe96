package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/infilengine/cmpush/cmd/cmpush/push"
	"github.com/infilengine/cmpush/cmd/cmpush/serve"
	"github.com/infilengine/cmpush/cmd/cmpush/standby"
)

var globalUsage = `Push codeless custom missions to a gist-backed git repository.`
var Version = "0.0.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmpush",
		Short: "Publish codeless custom missions.",
		Long:  globalUsage,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of cmpush",
		Long:  ``,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cmpush version: %s\n", Version)
		},
	}

	cmd.AddCommand(versionCmd, serve.Cmd, push.Cmd, standby.Cmd)

	return cmd
}

func main() {
	cmd := newRootCmd()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
