// Package cli defines the filedrop command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "filedrop",
	Short: "Public file server with an authenticated admin API",
	Long: "filedrop serves a directory of files read-only on a public port and " +
		"exposes uploads, chunked uploads and file management on a separate " +
		"API-key protected admin port.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the filedrop version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("filedrop %s\n", version)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to configuration file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(versionCmd)
}
