package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the current hitolog release.
const Version = "0.4.2"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hitolog version %s\n", Version)
	},
}
