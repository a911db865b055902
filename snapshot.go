package gridgo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hupe1980/gridgo/codec"
	"github.com/hupe1980/gridgo/internal/arena"
	"github.com/hupe1980/gridgo/internal/queryset"
	"github.com/hupe1980/gridgo/internal/zorder"
)

const (
	// snapshotMagic identifies gridgo snapshot files (ASCII "GRD0").
	snapshotMagic = 0x47524430
	// snapshotVersion is the current snapshot format version (v1.0).
	snapshotVersion = 0x00010000
)

// snapshotHeader is the fixed 64-byte little-endian header at the
// start of every snapshot. The checksum covers the (compressed)
// payload that follows the header.
type snapshotHeader struct {
	Magic            uint32
	Version          uint32
	CellSize         int32
	BitWidth         uint8
	Compression      uint8
	CodecName        [8]byte
	LiveElements     uint32
	ElementSlots     uint32
	NodeCount        uint32 // head slots included
	ElementFree      int32
	NodeFree         int32
	PayloadSize      uint32
	UncompressedSize uint32
	Checksum         uint32
	Reserved         [10]byte
}

type snapshotOptions struct {
	compression CompressionType
	codec       codec.Codec
}

// SnapshotOption configures WriteSnapshot and LoadSnapshot.
type SnapshotOption func(*snapshotOptions)

// WithCompression sets the payload compression. Defaults to
// CompressionZstd.
func WithCompression(c CompressionType) SnapshotOption {
	return func(o *snapshotOptions) {
		o.compression = c
	}
}

// WithCodec sets the codec used for element values. Defaults to
// codec.Default. Snapshots record the codec name, so LoadSnapshot only
// needs this for codecs not built into the codec package.
func WithCodec(c codec.Codec) SnapshotOption {
	return func(o *snapshotOptions) {
		if c != nil {
			o.codec = c
		}
	}
}

// WriteSnapshot serializes the grid to w: a fixed header followed by a
// compressed, CRC32-checked payload holding both arenas verbatim, free
// lists included. The written grid restores to an identical structure,
// not just equal query results.
func (g *Grid[T]) WriteSnapshot(w io.Writer, opts ...SnapshotOption) error {
	o := snapshotOptions{
		compression: CompressionZstd,
		codec:       codec.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}

	values := g.elements.Values()
	valueData, err := o.codec.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode element values: %w", err)
	}

	nodeElems := g.nodes.Elems()
	nodeNext := g.nodes.Next()
	elemLinks := g.elements.Links()

	payload := make([]byte, 0,
		4*(len(nodeElems)+len(nodeNext)+len(elemLinks))+4+len(valueData))
	payload = appendInt32Slice(payload, nodeElems)
	payload = appendInt32Slice(payload, nodeNext)
	payload = appendInt32Slice(payload, elemLinks)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(valueData)))
	payload = append(payload, valueData...)

	body, used, err := compressPayload(payload, o.compression)
	if err != nil {
		return err
	}

	header := snapshotHeader{
		Magic:            snapshotMagic,
		Version:          snapshotVersion,
		CellSize:         g.cellSize,
		BitWidth:         uint8(g.bitWidth),
		Compression:      uint8(used),
		LiveElements:     uint32(g.elements.Len()),
		ElementSlots:     uint32(len(elemLinks)),
		NodeCount:        uint32(len(nodeElems)),
		ElementFree:      g.elements.FreeHead(),
		NodeFree:         g.nodes.FreeHead(),
		PayloadSize:      uint32(len(body)),
		UncompressedSize: uint32(len(payload)),
		Checksum:         crc32.ChecksumIEEE(body),
	}
	copy(header.CodecName[:], o.codec.Name())

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write snapshot payload: %w", err)
	}

	g.logger.Debug("snapshot written",
		"elements", g.elements.Len(),
		"compression", used.String(),
		"payload_bytes", len(body),
	)

	return nil
}

// LoadSnapshot reads a snapshot written by WriteSnapshot and rebuilds
// the grid, validating magic, version and checksum. T must match the
// type the snapshot was written with as far as the codec is concerned.
func LoadSnapshot[T any](r io.Reader, opts ...SnapshotOption) (*Grid[T], error) {
	o := snapshotOptions{
		codec: codec.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var header snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if header.Magic != snapshotMagic {
		return nil, ErrInvalidMagic
	}
	if header.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidVersion, header.Version)
	}
	if header.CellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size %d", ErrCorruptSnapshot, header.CellSize)
	}
	if header.BitWidth < 1 || header.BitWidth > 32 {
		return nil, fmt.Errorf("%w: bit width %d", ErrCorruptSnapshot, header.BitWidth)
	}

	body := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read snapshot payload: %w", err)
	}
	if crc32.ChecksumIEEE(body) != header.Checksum {
		return nil, ErrChecksumMismatch
	}

	payload, err := decompressPayload(body, CompressionType(header.Compression), int(header.UncompressedSize))
	if err != nil {
		return nil, err
	}

	heads := 1 << header.BitWidth
	nodeCount := int(header.NodeCount)
	slotCount := int(header.ElementSlots)
	if nodeCount < heads {
		return nil, fmt.Errorf("%w: node count %d below head region %d", ErrCorruptSnapshot, nodeCount, heads)
	}

	pr := bytes.NewReader(payload)
	nodeElems, err := readInt32Slice(pr, nodeCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	nodeNext, err := readInt32Slice(pr, nodeCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	elemLinks, err := readInt32Slice(pr, slotCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if err := validateStructure(header, nodeElems, nodeNext, elemLinks); err != nil {
		return nil, err
	}

	var valueLen uint32
	if err := binary.Read(pr, binary.LittleEndian, &valueLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	valueData := make([]byte, valueLen)
	if _, err := io.ReadFull(pr, valueData); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	name := codecName(header.CodecName)
	c := o.codec
	if c.Name() != name {
		builtin, ok := codec.ByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
		}
		c = builtin
	}

	var values []T
	if err := c.Unmarshal(valueData, &values); err != nil {
		return nil, fmt.Errorf("decode element values: %w", err)
	}
	if len(values) > slotCount {
		return nil, fmt.Errorf("%w: %d values for %d element slots", ErrCorruptSnapshot, len(values), slotCount)
	}
	if len(values) < slotCount {
		// Free slots at the tail may have been encoded as absent.
		values = append(values, make([]T, slotCount-len(values))...)
	}

	g, err := New[T](header.CellSize, int(header.BitWidth))
	if err != nil {
		return nil, err
	}
	g.elements = arena.RestoreElements(values, elemLinks, header.ElementFree, int(header.LiveElements))
	g.nodes = arena.RestoreNodes(nodeElems, nodeNext, heads, header.NodeFree)
	g.seen = queryset.New(slotCount)
	g.mask = zorder.Mask(int(header.BitWidth))

	g.logger.Debug("snapshot loaded",
		"elements", g.elements.Len(),
		"compression", CompressionType(header.Compression).String(),
	)

	return g, nil
}

// validateStructure range-checks every restored index before any of it
// is walked. The checksum only proves the payload survived transit,
// not that the writer was sane: an out-of-range free head or link
// would otherwise index past the arena slices.
func validateStructure(header snapshotHeader, nodeElems, nodeNext, elemLinks []int32) error {
	heads := int32(1) << header.BitWidth
	nodeCount := int32(len(nodeElems))
	slotCount := int32(len(elemLinks))

	if int32(header.LiveElements) > slotCount {
		return fmt.Errorf("%w: %d live elements in %d slots", ErrCorruptSnapshot, header.LiveElements, slotCount)
	}
	for i, elem := range nodeElems {
		if elem != arena.None && (elem < 0 || elem >= slotCount) {
			return fmt.Errorf("%w: node %d references element slot %d of %d", ErrCorruptSnapshot, i, elem, slotCount)
		}
	}
	for i, next := range nodeNext {
		if next != arena.None && (next < 0 || next >= nodeCount) {
			return fmt.Errorf("%w: node %d links to node %d of %d", ErrCorruptSnapshot, i, next, nodeCount)
		}
	}

	// Free chains must stay inside their arenas and terminate: a bad
	// head panics RestoreNodes, a cycle spins it forever, and either
	// hands slots out twice after load. Heads never enter the node
	// free list.
	if err := checkFreeChain(header.NodeFree, nodeNext, heads, nodeCount); err != nil {
		return fmt.Errorf("%w: node free list: %v", ErrCorruptSnapshot, err)
	}
	for i, link := range elemLinks {
		if link != arena.None && (link < 0 || link >= slotCount) {
			return fmt.Errorf("%w: element slot %d links to slot %d of %d", ErrCorruptSnapshot, i, link, slotCount)
		}
	}
	if err := checkFreeChain(header.ElementFree, elemLinks, 0, slotCount); err != nil {
		return fmt.Errorf("%w: element free list: %v", ErrCorruptSnapshot, err)
	}

	return nil
}

// checkFreeChain walks a free list through links, requiring every
// entry in [lo, hi) and a None terminator within len(links) steps.
func checkFreeChain(head int32, links []int32, lo, hi int32) error {
	steps := 0
	for cur := head; cur != arena.None; cur = links[cur] {
		if cur < lo || cur >= hi {
			return fmt.Errorf("index %d outside [%d, %d)", cur, lo, hi)
		}
		steps++
		if steps > len(links) {
			return errors.New("cycle detected")
		}
	}
	return nil
}

func appendInt32Slice(dst []byte, s []int32) []byte {
	for _, v := range s {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out, nil
}

func codecName(raw [8]byte) string {
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	return string(raw[:end])
}
