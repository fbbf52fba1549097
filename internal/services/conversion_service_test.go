package services

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wintermute101/uf2info/internal/parsers/blocks"
	"github.com/wintermute101/uf2info/internal/types"
)

// buildStream encodes blocks back to back into a UF2 byte stream
func buildStream(t *testing.T, blockList ...types.Block) []byte {
	t.Helper()

	var buf bytes.Buffer
	for _, b := range blockList {
		data, err := blocks.Encode(b)
		require.NoError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

// filledPayload returns n bytes all set to value
func filledPayload(n int, value byte) []byte {
	return bytes.Repeat([]byte{value}, n)
}

// countingReader counts Read calls made by the converter
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestConvert_ThreeBlockScenario(t *testing.T) {
	stream := buildStream(t,
		blocks.NewDataBlock(0, 3, 0x1000, filledPayload(16, 0xA1)),
		blocks.NewDataBlock(1, 3, 0x1010, filledPayload(16, 0xB2)),
		blocks.NewDataBlock(2, 3, 0x2000, filledPayload(8, 0xC3)),
	)

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	require.NoError(t, err)

	assert.Equal(t, []types.Region{
		{Start: 0x1000, End: 0x1020},
		{Start: 0x2000, End: 0x2008},
	}, result.Regions)
	assert.Len(t, result.Binary, 40)
	assert.Equal(t, uint32(3), result.BlocksProcessed)
	assert.Empty(t, result.Inconsistencies)
	assert.False(t, result.HasInconsistencies())

	assert.Equal(t, filledPayload(16, 0xA1), result.Binary[0:16])
	assert.Equal(t, filledPayload(16, 0xB2), result.Binary[16:32])
	assert.Equal(t, filledPayload(8, 0xC3), result.Binary[32:40])

	assert.Equal(t, []Placement{
		{Address: 0x1000, Offset: 0, Length: 16},
		{Address: 0x1010, Offset: 16, Length: 16},
		{Address: 0x2000, Offset: 32, Length: 8},
	}, result.Placements)
}

func TestConvert_RoundTripAccumulation(t *testing.T) {
	const n = 50

	var blockList []types.Block
	var expectedLen int
	for i := uint32(0); i < n; i++ {
		size := int(i*7) % (types.MaxPayloadSize + 1)
		expectedLen += size
		blockList = append(blockList, blocks.NewDataBlock(i, n, 0x10000000+i*types.MaxPayloadSize, filledPayload(size, byte(i))))
	}

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(buildStream(t, blockList...)))
	require.NoError(t, err)

	assert.Empty(t, result.Inconsistencies)
	assert.Equal(t, uint32(n), result.BlocksProcessed)
	assert.Len(t, result.Binary, expectedLen)
}

func TestConvert_EmptyStream(t *testing.T) {
	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(nil))
	require.NoError(t, err)

	assert.Equal(t, uint32(0), result.BlocksProcessed)
	assert.Empty(t, result.Binary)
	assert.Empty(t, result.Regions)
	assert.Empty(t, result.Inconsistencies)
}

func TestConvert_ZeroLengthPayloadNotTracked(t *testing.T) {
	stream := buildStream(t,
		blocks.NewDataBlock(0, 2, 0x1000, nil),
		blocks.NewDataBlock(1, 2, 0x3000, filledPayload(4, 1)),
	)

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	require.NoError(t, err)

	assert.Equal(t, []types.Region{{Start: 0x3000, End: 0x3004}}, result.Regions)
	assert.Len(t, result.Binary, 4)
	assert.Len(t, result.Placements, 1)
}

func TestConvert_BlockIndexMismatch(t *testing.T) {
	stream := buildStream(t,
		blocks.NewDataBlock(0, 3, 0x0, filledPayload(4, 1)),
		blocks.NewDataBlock(2, 3, 0x4, filledPayload(4, 2)),
		blocks.NewDataBlock(1, 3, 0x8, filledPayload(4, 3)),
	)

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	require.NoError(t, err, "index mismatch must not abort the run")

	assert.Equal(t, uint32(3), result.BlocksProcessed)
	assert.Len(t, result.Binary, 12)
	assert.Equal(t, []Inconsistency{
		{Kind: InconsistencyBlockIndex, Position: 1, Declared: 2, Observed: 1},
		{Kind: InconsistencyBlockIndex, Position: 2, Declared: 1, Observed: 2},
	}, result.Inconsistencies)
}

func TestConvert_TotalBlocksMismatch(t *testing.T) {
	stream := buildStream(t,
		blocks.NewDataBlock(0, 5, 0x0, filledPayload(4, 1)),
		blocks.NewDataBlock(1, 5, 0x4, filledPayload(4, 2)),
	)

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	require.NoError(t, err)

	require.Len(t, result.Inconsistencies, 1)
	assert.Equal(t, Inconsistency{
		Kind:     InconsistencyTotalBlocks,
		Position: 1,
		Declared: 5,
		Observed: 2,
	}, result.Inconsistencies[0])
	assert.Contains(t, result.Inconsistencies[0].String(), "does not match")
	assert.Equal(t, uint32(5), result.DeclaredTotal)
}

func TestConvert_TotalBlocksChanged(t *testing.T) {
	stream := buildStream(t,
		blocks.NewDataBlock(0, 2, 0x0, filledPayload(4, 1)),
		blocks.NewDataBlock(1, 3, 0x4, filledPayload(4, 2)),
		blocks.NewDataBlock(2, 3, 0x8, filledPayload(4, 3)),
	)

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	require.NoError(t, err)

	assert.Equal(t, []Inconsistency{
		{Kind: InconsistencyTotalChanged, Position: 1, Declared: 3, Observed: 2},
	}, result.Inconsistencies)
}

func TestConvert_ShortRead(t *testing.T) {
	stream := buildStream(t,
		blocks.NewDataBlock(0, 2, 0x0, filledPayload(16, 1)),
	)
	stream = append(stream, make([]byte, 100)...)

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, blocks.ErrShortRead)

	var blockErr *BlockError
	require.True(t, errors.As(err, &blockErr))
	assert.Equal(t, uint32(1), blockErr.Position)
	assert.Equal(t, int64(types.BlockSize), blockErr.Offset)
	assert.Equal(t, 100, blockErr.BytesRead)
}

func TestConvert_BadMagicAbortsBeforeFurtherReads(t *testing.T) {
	first, err := blocks.Encode(blocks.NewDataBlock(0, 3, 0x0, filledPayload(8, 1)))
	require.NoError(t, err)
	bad, err := blocks.Encode(blocks.NewDataBlock(1, 3, 0x8, filledPayload(8, 2)))
	require.NoError(t, err)
	bad[types.OffsetMagicEnd] ^= 0x80
	third, err := blocks.Encode(blocks.NewDataBlock(2, 3, 0x10, filledPayload(8, 3)))
	require.NoError(t, err)

	// one block per Read so the number of reads equals blocks consumed
	reader := &countingReader{r: io.MultiReader(bytes.NewReader(first), bytes.NewReader(bad), bytes.NewReader(third))}

	var seen []uint32
	svc := NewConversionService(ConversionOptions{
		OnBlock: func(ev BlockEvent) { seen = append(seen, ev.Position) },
	})
	result, err := svc.Convert(reader)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, blocks.ErrInvalidMagic)
	assert.Equal(t, 2, reader.reads, "third block must never be read")
	assert.Equal(t, []uint32{0}, seen)

	var blockErr *BlockError
	require.True(t, errors.As(err, &blockErr))
	assert.Equal(t, uint32(1), blockErr.Position)
}

func TestConvert_PayloadTooLarge(t *testing.T) {
	data, err := blocks.Encode(blocks.NewDataBlock(0, 1, 0x0, filledPayload(8, 1)))
	require.NoError(t, err)
	data[types.OffsetDataLen] = 0xFF
	data[types.OffsetDataLen+1] = 0x01

	_, err = NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(data))
	assert.ErrorIs(t, err, blocks.ErrPayloadTooLarge)
}

func TestConvert_AddressOverflow(t *testing.T) {
	stream := buildStream(t, blocks.NewDataBlock(0, 1, 0xFFFFFFF0, filledPayload(32, 1)))

	_, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	assert.ErrorIs(t, err, blocks.ErrAddressOverflow)
}

func TestConvert_SkipNotMainFlash(t *testing.T) {
	comment := blocks.NewDataBlock(1, 3, 0x9000, filledPayload(32, 0xEE))
	comment.Flags = types.FlagNotMainFlash

	stream := buildStream(t,
		blocks.NewDataBlock(0, 3, 0x1000, filledPayload(16, 1)),
		comment,
		blocks.NewDataBlock(2, 3, 0x1010, filledPayload(16, 2)),
	)

	t.Run("Included by default", func(t *testing.T) {
		result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
		require.NoError(t, err)
		assert.Len(t, result.Binary, 64)
		assert.Len(t, result.Regions, 2)
		assert.Equal(t, uint32(0), result.BlocksSkipped)
	})

	t.Run("Skipped when requested", func(t *testing.T) {
		var skipped []uint32
		svc := NewConversionService(ConversionOptions{
			SkipNotMainFlash: true,
			OnBlock: func(ev BlockEvent) {
				if ev.Skipped {
					skipped = append(skipped, ev.Position)
				}
			},
		})
		result, err := svc.Convert(bytes.NewReader(stream))
		require.NoError(t, err)
		assert.Len(t, result.Binary, 32)
		assert.Equal(t, []types.Region{{Start: 0x1000, End: 0x1020}}, result.Regions)
		assert.Equal(t, uint32(1), result.BlocksSkipped)
		assert.Equal(t, uint32(3), result.BlocksProcessed)
		assert.Empty(t, result.Inconsistencies)
		assert.Equal(t, []uint32{1}, skipped)
	})
}

func TestConvert_Families(t *testing.T) {
	withFamily := func(b types.Block, family types.FamilyID) types.Block {
		b.Flags |= types.FlagFamilyIDPresent
		b.FamilyID = uint32(family)
		return b
	}

	stream := buildStream(t,
		withFamily(blocks.NewDataBlock(0, 3, 0x0, filledPayload(4, 1)), types.FamilyRP2040),
		withFamily(blocks.NewDataBlock(1, 3, 0x4, filledPayload(4, 1)), types.FamilyRP2040),
		withFamily(blocks.NewDataBlock(2, 3, 0x8, filledPayload(4, 1)), types.FamilyRP2XXXDat),
	)

	result, err := NewConversionService(ConversionOptions{}).Convert(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, []types.FamilyID{types.FamilyRP2040, types.FamilyRP2XXXDat}, result.Families)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.uf2")
	require.NoError(t, os.WriteFile(path, buildStream(t,
		blocks.NewDataBlock(0, 1, 0x2000, filledPayload(10, 7)),
	), 0o644))

	svc := NewConversionService(ConversionOptions{})

	result, err := svc.ConvertFile(path)
	require.NoError(t, err)
	assert.Len(t, result.Binary, 10)

	_, err = svc.ConvertFile(filepath.Join(dir, "missing.uf2"))
	assert.Error(t, err)

	_, err = svc.ConvertFile("")
	assert.Error(t, err)
}

func TestBlockError(t *testing.T) {
	err := &BlockError{Position: 4, Offset: 2048, BytesRead: 100, Err: blocks.ErrShortRead}

	assert.Contains(t, err.Error(), "block 4")
	assert.Contains(t, err.Error(), "offset 2048")
	assert.ErrorIs(t, err, blocks.ErrShortRead)
}
