package gridgo

import "errors"

var (
	// ErrInvalidCellSize is returned by New when the cell size is not
	// positive.
	ErrInvalidCellSize = errors.New("cell size must be positive")

	// ErrInvalidBitWidth is returned by New when the z-order bit width
	// is outside [1, 32].
	ErrInvalidBitWidth = errors.New("bit width must be in [1, 32]")

	// ErrInvalidMagic is returned by LoadSnapshot when the input does
	// not start with a gridgo snapshot header.
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrInvalidVersion is returned by LoadSnapshot for snapshots
	// written by an unsupported format version.
	ErrInvalidVersion = errors.New("unsupported snapshot version")

	// ErrChecksumMismatch is returned by LoadSnapshot when the payload
	// checksum does not match the header.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

	// ErrUnknownCodec is returned by LoadSnapshot when the codec named
	// in the header is not registered.
	ErrUnknownCodec = errors.New("unknown snapshot codec")

	// ErrUnknownCompression is returned for an unrecognized snapshot
	// compression type.
	ErrUnknownCompression = errors.New("unknown snapshot compression")

	// ErrCorruptSnapshot unifies structural decoding failures.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
