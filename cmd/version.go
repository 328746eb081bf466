// cmd/version.go
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time:
// go build -ldflags "-X github.com/xkilldash9x/autoentry/cmd.Version=1.0.0"
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the autoentry version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("autoentry", Version)
		},
	}
}
