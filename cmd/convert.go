package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wintermute101/uf2info/internal/services"
	"github.com/wintermute101/uf2info/pkg/app"
	"github.com/wintermute101/uf2info/pkg/app/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.uf2> [output]",
	Short: "Convert a UF2 file into a binary, Intel HEX file or memory image",
	Long: `Decode every 512-byte block of a UF2 file and write the payloads out.

The output file is only created once the whole input has been decoded;
a malformed block aborts the run without touching the destination.

Examples:
  # Report covered regions without writing anything
  uf2info convert firmware.uf2

  # Concatenate payloads into a raw binary
  uf2info convert firmware.uf2 firmware.bin

  # Place payloads at their target addresses as Intel HEX
  uf2info convert firmware.uf2 firmware.hex --format hex

  # Refuse files with out-of-sequence blocks
  uf2info convert firmware.uf2 firmware.bin --strict`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var output string
		if len(args) == 2 {
			output = args[1]
		}
		return runConvert(cmd, args[0], output, false)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Output encoding
	convertCmd.Flags().StringP("format", "f", string(services.FormatBinary), "output encoding (bin, hex, image)")
	convertCmd.Flags().Int("hex-line-length", services.DefaultHexLineLength, "data bytes per Intel HEX record")
	convertCmd.Flags().Int("padding", services.DefaultPadding, "fill byte for gaps in hex segments and images")
	convertCmd.Flags().Int64("max-image-size", services.DefaultMaxImageSize, "largest flat image to produce, in bytes")

	addConversionFlags(convertCmd)
}

// addConversionFlags registers the flags shared by convert and info
func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("strict", false, "treat block sequencing inconsistencies as errors")
	cmd.Flags().Bool("skip-not-main-flash", false, "leave blocks flagged not-main-flash out of the output")
}

func runConvert(cmd *cobra.Command, input, output string, listBlocks bool) error {
	config, err := LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	// Create application context
	ctx := app.NewContext()
	ctx.OutputFormat = config.OutputFormat
	ctx.Verbose = verbose
	ctx.Quiet = quiet
	ctx.NoColor = config.NoColor
	ctx.LogWriter = cmd.ErrOrStderr()

	// Create conversion request
	request := &convert.Request{
		InputPath:        input,
		OutputPath:       output,
		BinaryFormat:     config.BinaryFormat,
		HexLineLength:    config.HexLineLength,
		Padding:          config.Padding,
		MaxImageSize:     config.MaxImageSize,
		Strict:           config.Strict,
		SkipNotMainFlash: config.SkipNotMainFlash,
		ListBlocks:       listBlocks,
	}

	// Handle the request through application layer
	response, err := convert.Handle(ctx, request)
	if err != nil {
		return err
	}

	if ctx.Quiet {
		return nil
	}
	ctx.Log("%s", convert.FormatSummary(response))

	// Format and display results
	if err := convert.FormatOutput(cmd.OutOrStdout(), response, ctx.OutputFormat, ctx.NoColor); err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	return nil
}
