package services

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcinbor85/gohex"

	"github.com/wintermute101/uf2info/internal/types"
)

// OutputFormat selects how the converted firmware is serialized
type OutputFormat string

const (
	// FormatBinary writes the payloads concatenated in arrival order
	FormatBinary OutputFormat = "bin"

	// FormatIntelHex writes Intel HEX records at the payloads' target addresses
	FormatIntelHex OutputFormat = "hex"

	// FormatImage writes a flat memory image from the lowest to the highest covered address
	FormatImage OutputFormat = "image"
)

// Output defaults
const (
	DefaultHexLineLength = 16
	DefaultPadding       = 0xFF
	DefaultMaxImageSize  = 64 << 20
)

// OutputOptions controls output serialization
type OutputOptions struct {
	Format        OutputFormat
	HexLineLength byte   // data bytes per Intel HEX record
	Padding       byte   // fill byte for gaps in hex segments and images
	MaxImageSize  uint32 // largest flat image FormatImage will produce
}

// DefaultOutputOptions returns options producing a plain binary
func DefaultOutputOptions() OutputOptions {
	return OutputOptions{
		Format:        FormatBinary,
		HexLineLength: DefaultHexLineLength,
		Padding:       DefaultPadding,
		MaxImageSize:  DefaultMaxImageSize,
	}
}

// ParseOutputFormat validates a format name
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(name)); f {
	case FormatBinary, FormatIntelHex, FormatImage:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported binary format: %q (use bin, hex or image)", name)
	}
}

// EncodeOutput serializes the conversion result to w
func EncodeOutput(w io.Writer, result *ConversionResult, opts OutputOptions) error {
	if result == nil {
		return fmt.Errorf("conversion result cannot be nil")
	}

	switch opts.Format {
	case FormatBinary, "":
		_, err := w.Write(result.Binary)
		return err
	case FormatIntelHex:
		mem, err := buildMemory(result, opts.Padding)
		if err != nil {
			return err
		}
		lineLength := opts.HexLineLength
		if lineLength == 0 {
			lineLength = DefaultHexLineLength
		}
		return mem.DumpIntelHex(w, lineLength)
	case FormatImage:
		return writeImage(w, result, opts)
	default:
		return fmt.Errorf("unsupported binary format: %q", opts.Format)
	}
}

// WriteOutputFile encodes the result into a temporary file next to path and
// renames it into place once complete.
func WriteOutputFile(path string, result *ConversionResult, opts OutputOptions) (err error) {
	if path == "" {
		return fmt.Errorf("output file path cannot be empty")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary output file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = EncodeOutput(bw, result, opts); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// buildMemory lays every payload out at its target address, one gohex data
// segment per region. Later payloads overwrite earlier ones where they overlap.
func buildMemory(result *ConversionResult, padding byte) (*gohex.Memory, error) {
	segments := make([][]byte, len(result.Regions))
	for i, r := range result.Regions {
		segments[i] = bytes.Repeat([]byte{padding}, int(r.Len()))
	}

	for _, p := range result.Placements {
		i := sort.Search(len(result.Regions), func(i int) bool {
			return result.Regions[i].End > p.Address
		})
		if i == len(result.Regions) || result.Regions[i].Start > p.Address {
			return nil, fmt.Errorf("payload at 0x%08X is outside every region", p.Address)
		}
		if p.Offset+p.Length > len(result.Binary) {
			return nil, fmt.Errorf("payload at 0x%08X exceeds binary length", p.Address)
		}
		copy(segments[i][p.Address-result.Regions[i].Start:], result.Binary[p.Offset:p.Offset+p.Length])
	}

	mem := gohex.NewMemory()
	for i, r := range result.Regions {
		if err := mem.AddBinary(r.Start, segments[i]); err != nil {
			return nil, fmt.Errorf("failed to add region %s: %w", r, err)
		}
	}
	return mem, nil
}

func writeImage(w io.Writer, result *ConversionResult, opts OutputOptions) error {
	if len(result.Regions) == 0 {
		return nil
	}

	low := result.Regions[0].Start
	high := result.Regions[len(result.Regions)-1].End
	size := high - low

	limit := opts.MaxImageSize
	if limit == 0 {
		limit = DefaultMaxImageSize
	}
	if size > limit {
		return fmt.Errorf("image spanning %s would be %d bytes, limit is %d",
			types.Region{Start: low, End: high}, size, limit)
	}

	mem, err := buildMemory(result, opts.Padding)
	if err != nil {
		return err
	}

	_, err = w.Write(mem.ToBinary(low, size, opts.Padding))
	return err
}
