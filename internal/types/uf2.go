// Package types implements data structures for the UF2 firmware container format.
// Field layout follows the Microsoft UF2 format: every block is 512 bytes,
// all header words are little-endian uint32.
package types

import (
	"fmt"
	"strings"
)

// Block Layout
// A UF2 file is a sequence of fixed-size blocks, each self-describing.

const (
	// BlockSize is the size of every UF2 block on disk.
	BlockSize = 512

	// HeaderSize is the number of bytes preceding the payload area.
	HeaderSize = 32

	// MaxPayloadSize is the payload capacity of one block: BlockSize minus the
	// 32-byte header and the 4-byte end tag.
	MaxPayloadSize = 476

	// MagicStart0 is the first magic word at offset 0 ("UF2\n").
	MagicStart0 uint32 = 0x0A324655

	// MagicStart1 is the second magic word at offset 4.
	MagicStart1 uint32 = 0x9E5D5157

	// MagicEnd is the closing magic word at offset 508.
	MagicEnd uint32 = 0x0AB16F30
)

// Header field offsets, relative to the start of a block.
const (
	OffsetMagicStart0 = 0
	OffsetMagicStart1 = 4
	OffsetFlags       = 8
	OffsetTargetAddr  = 12
	OffsetDataLen     = 16
	OffsetBlockIndex  = 20
	OffsetTotalBlocks = 24
	OffsetFamilyID    = 28
	OffsetPayload     = HeaderSize
	OffsetMagicEnd    = BlockSize - 4
)

// BlockFlags is the bit-field stored at offset 8 of each block.
type BlockFlags uint32

const (
	// FlagNotMainFlash marks a block that should not be written to main flash
	// (comments, debug info, device-specific metadata).
	FlagNotMainFlash BlockFlags = 0x00000001

	// FlagFileContainer marks a block belonging to a file container; the
	// family ID word then holds the file size.
	FlagFileContainer BlockFlags = 0x00001000

	// FlagFamilyIDPresent marks that the word at offset 28 is a family ID.
	FlagFamilyIDPresent BlockFlags = 0x00002000

	// FlagMD5ChecksumPresent marks that the last 24 payload bytes carry an
	// address, length and MD5 digest of the region.
	FlagMD5ChecksumPresent BlockFlags = 0x00004000

	// FlagExtensionTagsPresent marks extension tags following the payload.
	FlagExtensionTagsPresent BlockFlags = 0x00008000
)

var flagNames = []struct {
	flag BlockFlags
	name string
}{
	{FlagNotMainFlash, "NotMainFlash"},
	{FlagFileContainer, "FileContainer"},
	{FlagFamilyIDPresent, "FamilyIDPresent"},
	{FlagMD5ChecksumPresent, "MD5ChecksumPresent"},
	{FlagExtensionTagsPresent, "ExtensionTagsPresent"},
}

// Has reports whether all bits of flag are set.
func (f BlockFlags) Has(flag BlockFlags) bool {
	return f&flag == flag
}

// String renders the set flags joined by '|', unknown bits in hex.
func (f BlockFlags) String() string {
	if f == 0 {
		return "none"
	}

	var parts []string
	rest := f
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%08X", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Block is one decoded 512-byte UF2 block.
type Block struct {
	// Flags describing block semantics (offset 8)
	Flags BlockFlags
	// Address in target memory where the payload is destined (offset 12)
	TargetAddr uint32
	// Number of valid payload bytes (offset 16)
	DataLen uint32
	// Position of this block in the file, 0-based (offset 20)
	BlockIndex uint32
	// Total number of blocks declared by the producer (offset 24)
	TotalBlocks uint32
	// Family ID, or file size when FlagFileContainer is set (offset 28)
	FamilyID uint32
	// Payload area; only the first DataLen bytes are meaningful (offset 32)
	Payload [MaxPayloadSize]byte
}

// Data returns the meaningful part of the payload.
func (b *Block) Data() []byte {
	n := b.DataLen
	if n > MaxPayloadSize {
		n = MaxPayloadSize
	}
	return b.Payload[:n]
}

// Region is a half-open address interval [Start, End) covered by payload data.
type Region struct {
	Start uint32
	End   uint32
}

// Len returns the number of bytes in the region.
func (r Region) Len() uint32 {
	return r.End - r.Start
}

// String formats the region as 0xSTART-0xEND.
func (r Region) String() string {
	return fmt.Sprintf("0x%08X-0x%08X", r.Start, r.End)
}
