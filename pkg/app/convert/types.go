package convert

import (
	"time"

	"github.com/wintermute101/uf2info/internal/services"
	"github.com/wintermute101/uf2info/internal/types"
)

// Request represents a UF2 conversion request
type Request struct {
	InputPath  string
	OutputPath string // empty for an analysis-only run

	// Output encoding
	BinaryFormat  string
	HexLineLength int
	Padding       int
	MaxImageSize  int64

	// Behaviour
	Strict           bool // treat sequencing inconsistencies as errors
	SkipNotMainFlash bool
	ListBlocks       bool
}

// Response represents the outcome of a conversion
type Response struct {
	RunID           string              `json:"run_id" yaml:"run_id"`
	InputPath       string              `json:"input_path" yaml:"input_path"`
	InputSize       int64               `json:"input_size" yaml:"input_size"`
	BlocksProcessed uint32              `json:"blocks_processed" yaml:"blocks_processed"`
	BlocksSkipped   uint32              `json:"blocks_skipped" yaml:"blocks_skipped"`
	DeclaredTotal   uint32              `json:"declared_total" yaml:"declared_total"`
	BinaryLength    int                 `json:"binary_length" yaml:"binary_length"`
	CoveredBytes    uint64              `json:"covered_bytes" yaml:"covered_bytes"`
	Regions         []RegionInfo        `json:"regions" yaml:"regions"`
	Families        []FamilyInfo        `json:"families,omitempty" yaml:"families,omitempty"`
	Inconsistencies []InconsistencyInfo `json:"inconsistencies" yaml:"inconsistencies"`
	Blocks          []BlockInfo         `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	OutputPath      string              `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	OutputFormat    string              `json:"output_format,omitempty" yaml:"output_format,omitempty"`
	Duration        time.Duration       `json:"duration" yaml:"duration"`
}

// RegionInfo describes one covered address range
type RegionInfo struct {
	Start uint32 `json:"start" yaml:"start"`
	End   uint32 `json:"end" yaml:"end"`
	Size  uint32 `json:"size" yaml:"size"`
	Range string `json:"range" yaml:"range"`
}

// FamilyInfo describes a family ID seen in the file
type FamilyInfo struct {
	ID   uint32 `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// InconsistencyInfo describes a non-fatal sequencing problem
type InconsistencyInfo struct {
	Kind     string `json:"kind" yaml:"kind"`
	Position uint32 `json:"position" yaml:"position"`
	Declared uint32 `json:"declared" yaml:"declared"`
	Observed uint32 `json:"observed" yaml:"observed"`
	Message  string `json:"message" yaml:"message"`
}

// BlockInfo describes one block for listing output
type BlockInfo struct {
	Position    uint32 `json:"position" yaml:"position"`
	BlockIndex  uint32 `json:"block_index" yaml:"block_index"`
	TotalBlocks uint32 `json:"total_blocks" yaml:"total_blocks"`
	Flags       string `json:"flags" yaml:"flags"`
	TargetAddr  uint32 `json:"target_addr" yaml:"target_addr"`
	DataLen     uint32 `json:"data_len" yaml:"data_len"`
	Family      string `json:"family,omitempty" yaml:"family,omitempty"`
	Skipped     bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

func newRegionInfo(r types.Region) RegionInfo {
	return RegionInfo{
		Start: r.Start,
		End:   r.End,
		Size:  r.Len(),
		Range: r.String(),
	}
}

func newInconsistencyInfo(i services.Inconsistency) InconsistencyInfo {
	return InconsistencyInfo{
		Kind:     string(i.Kind),
		Position: i.Position,
		Declared: i.Declared,
		Observed: i.Observed,
		Message:  i.String(),
	}
}

func newBlockInfo(ev services.BlockEvent) BlockInfo {
	info := BlockInfo{
		Position:    ev.Position,
		BlockIndex:  ev.Reader.BlockIndex(),
		TotalBlocks: ev.Reader.TotalBlocks(),
		Flags:       ev.Reader.Flags().String(),
		TargetAddr:  ev.Reader.TargetAddress(),
		DataLen:     ev.Reader.DataLength(),
		Skipped:     ev.Skipped,
	}
	if family, ok := ev.Reader.FamilyID(); ok {
		info.Family = family.String()
	}
	return info
}
