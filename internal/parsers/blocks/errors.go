package blocks

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagic is returned when one of the three magic words does not match.
	ErrInvalidMagic = errors.New("invalid UF2 magic")

	// ErrPayloadTooLarge is returned when the declared payload length exceeds the block capacity.
	ErrPayloadTooLarge = errors.New("payload length exceeds block capacity")

	// ErrShortRead is returned when a block is not exactly BlockSize bytes.
	ErrShortRead = errors.New("short read: not a full UF2 block")

	// ErrAddressOverflow is returned when target address plus payload length exceeds 32 bits.
	ErrAddressOverflow = errors.New("payload end address overflows 32 bits")
)

// MagicMismatchError describes which magic word failed validation.
type MagicMismatchError struct {
	Offset   int
	Expected uint32
	Actual   uint32
}

func (e *MagicMismatchError) Error() string {
	return fmt.Sprintf("invalid UF2 magic at offset %d: expected 0x%08X, got 0x%08X",
		e.Offset, e.Expected, e.Actual)
}

// Unwrap lets errors.Is match ErrInvalidMagic.
func (e *MagicMismatchError) Unwrap() error {
	return ErrInvalidMagic
}
