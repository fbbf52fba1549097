package convert

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/wintermute101/uf2info/internal/types"
	"github.com/wintermute101/uf2info/pkg/app"
)

// FormatOutput formats conversion results according to output format
func FormatOutput(w io.Writer, response *Response, format string, noColor bool) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table", "":
		return formatTable(w, response, noColor)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats results as a human readable report
func formatTable(w io.Writer, response *Response, noColor bool) error {
	warn := color.New(color.FgYellow)
	ok := color.New(color.FgGreen)
	if noColor {
		warn.DisableColor()
		ok.DisableColor()
	}

	if len(response.Blocks) > 0 {
		if err := formatBlocks(w, response.Blocks); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "File %s len %d total blocks %d binary len %d\n",
		response.InputPath, response.InputSize, response.BlocksProcessed, response.BinaryLength)
	if response.BlocksSkipped > 0 {
		fmt.Fprintf(w, "Skipped %d block(s) not destined for main flash\n", response.BlocksSkipped)
	}
	for _, f := range response.Families {
		fmt.Fprintf(w, "Family: %s\n", types.FamilyID(f.ID))
	}

	if len(response.Regions) == 0 {
		fmt.Fprintln(w, "No memory regions covered.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "\nSTART\tEND\tSIZE\n")
		fmt.Fprintf(tw, "-----\t---\t----\n")
		for _, r := range response.Regions {
			fmt.Fprintf(tw, "0x%08X\t0x%08X\t%s\n", r.Start, r.End, app.ByteSize(r.Size))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d region(s), %s covered\n", len(response.Regions), app.ByteSize(response.CoveredBytes))
	}

	if len(response.Inconsistencies) == 0 {
		ok.Fprintln(w, "✓ Block sequence consistent")
	} else {
		for _, inc := range response.Inconsistencies {
			warn.Fprintf(w, "⚠ %s\n", inc.Message)
		}
	}

	if response.OutputPath != "" {
		fmt.Fprintf(w, "Wrote %s (%s) to %s\n", app.ByteSize(response.BinaryLength), response.OutputFormat, response.OutputPath)
	}

	return nil
}

// formatBlocks prints one line per block
func formatBlocks(w io.Writer, blocks []BlockInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "BLOCK\tINDEX\tFLAGS\tTARGET\tLEN\tTOTAL\tFAMILY\n")
	for _, b := range blocks {
		family := b.Family
		if family == "" {
			family = "-"
		}
		flags := b.Flags
		if b.Skipped {
			flags += " (skipped)"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t0x%08X-0x%08X\t%d\t%d\t%s\n",
			b.Position, b.BlockIndex, flags, b.TargetAddr,
			uint64(b.TargetAddr)+uint64(b.DataLen), b.DataLen, b.TotalBlocks, family)
	}
	return tw.Flush()
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, response *Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, response *Response) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}

// FormatSummary provides a one-line summary
func FormatSummary(response *Response) string {
	summary := fmt.Sprintf("%d block(s), %s binary, %d region(s)",
		response.BlocksProcessed, app.ByteSize(response.BinaryLength), len(response.Regions))

	if n := len(response.Inconsistencies); n > 0 {
		summary += fmt.Sprintf(", %d inconsistenc", n)
		if n == 1 {
			summary += "y"
		} else {
			summary += "ies"
		}
	}

	return summary
}
