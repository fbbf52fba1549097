package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
	noColor      bool
	configFile   string
)

var rootCmd = &cobra.Command{
	Use:   "uf2info",
	Short: "Inspect and convert UF2 firmware files",
	Long: `uf2info decodes UF2 firmware containers (512-byte blocks) into plain
binaries, validates block sequencing and reports which target memory
ranges the payloads cover.

Commands:
  convert     Convert a UF2 file to bin, Intel HEX or a flat memory image
  info        List blocks and report covered regions without writing output`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "report format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: uf2info-config.yaml in ., ./config, $HOME/.uf2info, /etc/uf2info)")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}
