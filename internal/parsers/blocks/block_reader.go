package blocks

import (
	"encoding/binary"
	"fmt"

	"github.com/wintermute101/uf2info/internal/interfaces"
	"github.com/wintermute101/uf2info/internal/types"
)

// blockReader implements the BlockReader interface
type blockReader struct {
	block *types.Block
}

// NewBlockReader decodes a raw 512-byte buffer and returns a BlockReader over it
func NewBlockReader(data []byte) (interfaces.BlockReader, error) {
	block, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return &blockReader{block: block}, nil
}

// Decode parses one raw UF2 block. The buffer must be exactly types.BlockSize bytes.
// All three magic words are verified and the payload length is bounded by
// types.MaxPayloadSize. Decode does not retain data.
func Decode(data []byte) (*types.Block, error) {
	if len(data) != types.BlockSize {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrShortRead, len(data), types.BlockSize)
	}

	endian := binary.LittleEndian

	if err := checkMagic(data, types.OffsetMagicStart0, types.MagicStart0); err != nil {
		return nil, err
	}
	if err := checkMagic(data, types.OffsetMagicStart1, types.MagicStart1); err != nil {
		return nil, err
	}
	if err := checkMagic(data, types.OffsetMagicEnd, types.MagicEnd); err != nil {
		return nil, err
	}

	block := &types.Block{
		Flags:       types.BlockFlags(endian.Uint32(data[types.OffsetFlags : types.OffsetFlags+4])),
		TargetAddr:  endian.Uint32(data[types.OffsetTargetAddr : types.OffsetTargetAddr+4]),
		DataLen:     endian.Uint32(data[types.OffsetDataLen : types.OffsetDataLen+4]),
		BlockIndex:  endian.Uint32(data[types.OffsetBlockIndex : types.OffsetBlockIndex+4]),
		TotalBlocks: endian.Uint32(data[types.OffsetTotalBlocks : types.OffsetTotalBlocks+4]),
		FamilyID:    endian.Uint32(data[types.OffsetFamilyID : types.OffsetFamilyID+4]),
	}

	if block.DataLen > types.MaxPayloadSize {
		return nil, fmt.Errorf("%w: data_len %d, capacity %d", ErrPayloadTooLarge, block.DataLen, types.MaxPayloadSize)
	}

	copy(block.Payload[:], data[types.OffsetPayload:types.OffsetPayload+types.MaxPayloadSize])

	return block, nil
}

func checkMagic(data []byte, offset int, expected uint32) error {
	actual := binary.LittleEndian.Uint32(data[offset : offset+4])
	if actual != expected {
		return &MagicMismatchError{Offset: offset, Expected: expected, Actual: actual}
	}
	return nil
}

// Block returns a copy of the decoded block
func (br *blockReader) Block() types.Block {
	return *br.block
}

// Flags returns the block flags
func (br *blockReader) Flags() types.BlockFlags {
	return br.block.Flags
}

// TargetAddress returns the payload destination address
func (br *blockReader) TargetAddress() uint32 {
	return br.block.TargetAddr
}

// DataLength returns the number of valid payload bytes
func (br *blockReader) DataLength() uint32 {
	return br.block.DataLen
}

// EndAddress returns TargetAddress + DataLength, failing on 32-bit overflow
func (br *blockReader) EndAddress() (uint32, error) {
	end := uint64(br.block.TargetAddr) + uint64(br.block.DataLen)
	if end > 1<<32-1 {
		return 0, fmt.Errorf("%w: 0x%08X + %d", ErrAddressOverflow, br.block.TargetAddr, br.block.DataLen)
	}
	return uint32(end), nil
}

// BlockIndex returns the declared block position
func (br *blockReader) BlockIndex() uint32 {
	return br.block.BlockIndex
}

// TotalBlocks returns the declared total block count
func (br *blockReader) TotalBlocks() uint32 {
	return br.block.TotalBlocks
}

// FamilyID returns the family ID when FlagFamilyIDPresent is set
func (br *blockReader) FamilyID() (types.FamilyID, bool) {
	if !br.block.Flags.Has(types.FlagFamilyIDPresent) {
		return 0, false
	}
	return types.FamilyID(br.block.FamilyID), true
}

// FileSize returns the file size word when FlagFileContainer is set
func (br *blockReader) FileSize() (uint32, bool) {
	if !br.block.Flags.Has(types.FlagFileContainer) {
		return 0, false
	}
	return br.block.FamilyID, true
}

// Payload returns the meaningful payload bytes
func (br *blockReader) Payload() []byte {
	return br.block.Data()
}

// IsMainFlash reports whether the block is destined for main flash
func (br *blockReader) IsMainFlash() bool {
	return !br.block.Flags.Has(types.FlagNotMainFlash)
}
