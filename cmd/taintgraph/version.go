package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// populated via -ldflags at release time
var (
	version   = "dev"
	buildTime = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taintgraph %s (built %s, %s)\n", version, buildTime, runtime.Version())
		},
	}
}
