package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/wintermute101/uf2info/internal/interfaces"
	"github.com/wintermute101/uf2info/internal/parsers/blocks"
	"github.com/wintermute101/uf2info/internal/regions"
	"github.com/wintermute101/uf2info/internal/types"
)

// InconsistencyKind classifies a non-fatal sequencing problem
type InconsistencyKind string

const (
	// InconsistencyBlockIndex means a block's index differs from its position in the stream
	InconsistencyBlockIndex InconsistencyKind = "block_index_mismatch"

	// InconsistencyTotalBlocks means the last block's declared total differs from the blocks read
	InconsistencyTotalBlocks InconsistencyKind = "total_blocks_mismatch"

	// InconsistencyTotalChanged means a block declares a different total than the block before it
	InconsistencyTotalChanged InconsistencyKind = "total_blocks_changed"
)

// Inconsistency is a reported, non-fatal problem found during conversion
type Inconsistency struct {
	Kind     InconsistencyKind
	Position uint32 // 0-based position of the block in the stream
	Declared uint32 // value the block declares
	Observed uint32 // value observed by the converter
}

func (i Inconsistency) String() string {
	switch i.Kind {
	case InconsistencyBlockIndex:
		return fmt.Sprintf("block no %d does not match read blocks no %d", i.Declared, i.Observed)
	case InconsistencyTotalBlocks:
		return fmt.Sprintf("read total blocks %d does not match total blocks in block %d", i.Observed, i.Declared)
	case InconsistencyTotalChanged:
		return fmt.Sprintf("block %d declares total blocks %d, previous blocks declared %d", i.Position, i.Declared, i.Observed)
	default:
		return fmt.Sprintf("%s at block %d: declared %d, observed %d", i.Kind, i.Position, i.Declared, i.Observed)
	}
}

// Placement records where one payload sits in the output binary and in target memory
type Placement struct {
	Address uint32 // target address of the payload
	Offset  int    // offset of the payload inside ConversionResult.Binary
	Length  int
}

// BlockEvent is passed to ConversionOptions.OnBlock for every decoded block
type BlockEvent struct {
	Position uint32
	Reader   interfaces.BlockReader
	Skipped  bool
}

// BlockError wraps a fatal error with the stream position where it happened
type BlockError struct {
	Position  uint32 // 0-based position of the failing block
	Offset    int64  // byte offset of the block in the stream
	BytesRead int    // bytes available for the block
	Err       error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d at offset %d (%d bytes read): %v", e.Position, e.Offset, e.BytesRead, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// ConversionOptions controls a conversion run
type ConversionOptions struct {
	// SkipNotMainFlash leaves blocks flagged NotMainFlash out of the binary and region set
	SkipNotMainFlash bool

	// OnBlock, when set, is called after each block is decoded
	OnBlock func(BlockEvent)
}

// ConversionResult is the outcome of a successful conversion pass
type ConversionResult struct {
	Binary          []byte
	Regions         []types.Region
	Placements      []Placement
	Families        []types.FamilyID
	Inconsistencies []Inconsistency
	BlocksProcessed uint32
	BlocksSkipped   uint32
	DeclaredTotal   uint32
}

// HasInconsistencies reports whether any non-fatal problem was found
func (r *ConversionResult) HasInconsistencies() bool {
	return len(r.Inconsistencies) > 0
}

// ConversionService turns a UF2 stream into a flat binary and a region set
type ConversionService struct {
	options ConversionOptions
}

// NewConversionService creates a conversion service with the given options
func NewConversionService(options ConversionOptions) *ConversionService {
	return &ConversionService{options: options}
}

// Convert reads r block by block until end of stream. Any framing or decode
// failure aborts the run and no partial result is returned. Sequencing
// problems are collected in the result instead.
func (cs *ConversionService) Convert(r io.Reader) (*ConversionResult, error) {
	var (
		tracker  = regions.NewTracker()
		result   = &ConversionResult{}
		buf      = make([]byte, types.BlockSize)
		position uint32
		offset   int64
		haveLast bool
	)

	for {
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = fmt.Errorf("%w: read %d bytes, it is not block size", blocks.ErrShortRead, n)
			}
			return nil, &BlockError{Position: position, Offset: offset, BytesRead: n, Err: err}
		}

		reader, err := blocks.NewBlockReader(buf)
		if err != nil {
			return nil, &BlockError{Position: position, Offset: offset, BytesRead: n, Err: err}
		}

		if reader.BlockIndex() != position {
			result.Inconsistencies = append(result.Inconsistencies, Inconsistency{
				Kind:     InconsistencyBlockIndex,
				Position: position,
				Declared: reader.BlockIndex(),
				Observed: position,
			})
		}
		if haveLast && reader.TotalBlocks() != result.DeclaredTotal {
			result.Inconsistencies = append(result.Inconsistencies, Inconsistency{
				Kind:     InconsistencyTotalChanged,
				Position: position,
				Declared: reader.TotalBlocks(),
				Observed: result.DeclaredTotal,
			})
		}
		result.DeclaredTotal = reader.TotalBlocks()
		haveLast = true

		if family, ok := reader.FamilyID(); ok && !slices.Contains(result.Families, family) {
			result.Families = append(result.Families, family)
		}

		skip := cs.options.SkipNotMainFlash && !reader.IsMainFlash()
		if skip {
			result.BlocksSkipped++
		} else if err := accumulate(result, tracker, reader); err != nil {
			return nil, &BlockError{Position: position, Offset: offset, BytesRead: n, Err: err}
		}

		if cs.options.OnBlock != nil {
			cs.options.OnBlock(BlockEvent{Position: position, Reader: reader, Skipped: skip})
		}

		position++
		offset += int64(n)
	}

	result.BlocksProcessed = position
	if haveLast && result.DeclaredTotal != position {
		result.Inconsistencies = append(result.Inconsistencies, Inconsistency{
			Kind:     InconsistencyTotalBlocks,
			Position: position - 1,
			Declared: result.DeclaredTotal,
			Observed: position,
		})
	}
	result.Regions = tracker.Regions()

	return result, nil
}

// accumulate appends the payload to the binary and records its coverage
func accumulate(result *ConversionResult, tracker interfaces.RegionTracker, reader interfaces.BlockReader) error {
	if reader.DataLength() == 0 {
		return nil
	}

	end, err := reader.EndAddress()
	if err != nil {
		return err
	}

	result.Placements = append(result.Placements, Placement{
		Address: reader.TargetAddress(),
		Offset:  len(result.Binary),
		Length:  int(reader.DataLength()),
	})
	result.Binary = append(result.Binary, reader.Payload()...)
	tracker.Add(reader.TargetAddress(), end)

	return nil
}

// ConvertFile opens path and converts its contents
func (cs *ConversionService) ConvertFile(path string) (*ConversionResult, error) {
	if path == "" {
		return nil, fmt.Errorf("input file path cannot be empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return cs.Convert(file)
}
