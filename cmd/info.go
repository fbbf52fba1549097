package cmd

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <input.uf2>",
	Short: "List UF2 blocks and report covered memory regions",
	Long: `Decode a UF2 file and print one line per block (index, flags, target
range, payload length, declared total, family) followed by the merged
memory regions and any sequencing inconsistencies. Nothing is written.

Examples:
  uf2info info firmware.uf2
  uf2info info firmware.uf2 --output json`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0], "", true)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	addConversionFlags(infoCmd)
}
