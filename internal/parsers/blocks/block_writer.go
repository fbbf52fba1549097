package blocks

import (
	"encoding/binary"
	"fmt"

	"github.com/wintermute101/uf2info/internal/types"
)

// Encode serializes a block into its 512-byte wire form, magic words included.
func Encode(block types.Block) ([]byte, error) {
	if block.DataLen > types.MaxPayloadSize {
		return nil, fmt.Errorf("%w: data_len %d, capacity %d", ErrPayloadTooLarge, block.DataLen, types.MaxPayloadSize)
	}

	data := make([]byte, types.BlockSize)
	endian := binary.LittleEndian

	endian.PutUint32(data[types.OffsetMagicStart0:], types.MagicStart0)
	endian.PutUint32(data[types.OffsetMagicStart1:], types.MagicStart1)
	endian.PutUint32(data[types.OffsetFlags:], uint32(block.Flags))
	endian.PutUint32(data[types.OffsetTargetAddr:], block.TargetAddr)
	endian.PutUint32(data[types.OffsetDataLen:], block.DataLen)
	endian.PutUint32(data[types.OffsetBlockIndex:], block.BlockIndex)
	endian.PutUint32(data[types.OffsetTotalBlocks:], block.TotalBlocks)
	endian.PutUint32(data[types.OffsetFamilyID:], block.FamilyID)
	copy(data[types.OffsetPayload:], block.Payload[:])
	endian.PutUint32(data[types.OffsetMagicEnd:], types.MagicEnd)

	return data, nil
}

// NewDataBlock builds a block carrying payload at addr. The payload is
// truncated to types.MaxPayloadSize.
func NewDataBlock(index, total, addr uint32, payload []byte) types.Block {
	block := types.Block{
		TargetAddr:  addr,
		BlockIndex:  index,
		TotalBlocks: total,
	}
	n := copy(block.Payload[:], payload)
	block.DataLen = uint32(n)
	return block
}
