// File: internal/interfaces/block.go
package interfaces

import (
	"github.com/wintermute101/uf2info/internal/types"
)

// BlockReader provides methods for reading information from a decoded UF2 block
type BlockReader interface {
	// Block returns a copy of the decoded block record
	Block() types.Block

	// Flags returns the block flags
	Flags() types.BlockFlags

	// TargetAddress returns the address the payload is destined for
	TargetAddress() uint32

	// DataLength returns the number of valid payload bytes
	DataLength() uint32

	// EndAddress returns the exclusive end address of the payload in target memory
	EndAddress() (uint32, error)

	// BlockIndex returns the 0-based position declared by the producer
	BlockIndex() uint32

	// TotalBlocks returns the total block count declared by the producer
	TotalBlocks() uint32

	// FamilyID returns the family ID if the block declares one
	FamilyID() (types.FamilyID, bool)

	// FileSize returns the container file size if the block is part of a file container
	FileSize() (uint32, bool)

	// Payload returns the first DataLength bytes of the payload area
	Payload() []byte

	// IsMainFlash reports whether the block targets main flash
	IsMainFlash() bool
}

// RegionTracker maintains the minimal sorted set of covered address ranges
type RegionTracker interface {
	// Add records coverage of [start, end); empty intervals are ignored
	Add(start, end uint32)

	// Regions returns the current region set in ascending order
	Regions() []types.Region

	// Len returns the number of disjoint regions
	Len() int

	// Covered returns the total number of covered bytes
	Covered() uint64

	// Contains reports whether addr lies inside a tracked region
	Contains(addr uint32) bool
}
