package prover

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/air"
	"github.com/vybium/vybium-motion-proof/internal/vybium-motion-proof/core"
)

// Binary proof layout, little-endian throughout:
//
//	version     u8
//	trace id    16 bytes
//	epoch       u64
//	height      u32
//	flags       u8   (bit 0: first-after-reset)
//	num queries u32
//	root        u16 length + bytes
//	openings    u32 count, then per opening:
//	  index     u32
//	  row       8 x u64 (canonical field values)
//	  next row  8 x u64
//	  path      u16 count, then per node: u16 hash length + bytes, u8 side
//	  next path same
//
// The layout is versioned and stable: a proof produced here verifies in any
// process holding the same public parameters.

const flagFirstAfterReset = 1 << 0

// MarshalBinary serializes the proof
func (p *Proof) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(p.Version)
	buf.Write(p.Pub.TraceID[:])
	writeUint64(&buf, p.Pub.Epoch)
	writeUint32(&buf, p.Pub.Height)

	var flags byte
	if p.Pub.FirstAfterReset {
		flags |= flagFirstAfterReset
	}
	buf.WriteByte(flags)
	writeUint32(&buf, p.Pub.NumQueries)

	if err := writeBytes(&buf, p.Root); err != nil {
		return nil, fmt.Errorf("failed to encode root: %w", err)
	}

	writeUint32(&buf, uint32(len(p.Openings)))
	for i, opening := range p.Openings {
		if len(opening.Row) != air.NumColumns || len(opening.NextRow) != air.NumColumns {
			return nil, fmt.Errorf("opening %d has malformed rows", i)
		}

		writeUint32(&buf, opening.Index)
		for _, elem := range opening.Row {
			writeUint64(&buf, elem.Value())
		}
		for _, elem := range opening.NextRow {
			writeUint64(&buf, elem.Value())
		}
		if err := writePath(&buf, opening.Path); err != nil {
			return nil, fmt.Errorf("opening %d: %w", i, err)
		}
		if err := writePath(&buf, opening.NextPath); err != nil {
			return nil, fmt.Errorf("opening %d: %w", i, err)
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes a proof, rejecting truncated or oversized input
func (p *Proof) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to decode version: %w", err)
	}
	if version != ProofVersion {
		return fmt.Errorf("unsupported proof version %d", version)
	}
	p.Version = version

	if _, err := io.ReadFull(r, p.Pub.TraceID[:]); err != nil {
		return fmt.Errorf("failed to decode trace id: %w", err)
	}
	if p.Pub.Epoch, err = readUint64(r); err != nil {
		return fmt.Errorf("failed to decode epoch: %w", err)
	}
	if p.Pub.Height, err = readUint32(r); err != nil {
		return fmt.Errorf("failed to decode height: %w", err)
	}

	flags, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to decode flags: %w", err)
	}
	p.Pub.FirstAfterReset = flags&flagFirstAfterReset != 0

	if p.Pub.NumQueries, err = readUint32(r); err != nil {
		return fmt.Errorf("failed to decode query count: %w", err)
	}

	if p.Root, err = readBytes(r); err != nil {
		return fmt.Errorf("failed to decode root: %w", err)
	}

	count, err := readUint32(r)
	if err != nil {
		return fmt.Errorf("failed to decode opening count: %w", err)
	}
	if uint64(count) > uint64(len(data)) {
		return fmt.Errorf("opening count %d exceeds input size", count)
	}

	p.Openings = make([]RowOpening, count)
	for i := range p.Openings {
		opening := &p.Openings[i]

		if opening.Index, err = readUint32(r); err != nil {
			return fmt.Errorf("opening %d: failed to decode index: %w", i, err)
		}
		if opening.Row, err = readRow(r); err != nil {
			return fmt.Errorf("opening %d: %w", i, err)
		}
		if opening.NextRow, err = readRow(r); err != nil {
			return fmt.Errorf("opening %d: %w", i, err)
		}
		if opening.Path, err = readPath(r); err != nil {
			return fmt.Errorf("opening %d: %w", i, err)
		}
		if opening.NextPath, err = readPath(r); err != nil {
			return fmt.Errorf("opening %d: %w", i, err)
		}
	}

	if r.Len() != 0 {
		return fmt.Errorf("%d trailing bytes after proof", r.Len())
	}

	return nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeBytes(buf *bytes.Buffer, data []byte) error {
	if len(data) > 0xFFFF {
		return fmt.Errorf("byte field too long: %d", len(data))
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(data)))
	buf.Write(b[:])
	buf.Write(data)
	return nil
}

func writePath(buf *bytes.Buffer, path []core.ProofNode) error {
	if len(path) > 0xFFFF {
		return fmt.Errorf("authentication path too long: %d", len(path))
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(path)))
	buf.Write(b[:])

	for _, node := range path {
		if err := writeBytes(buf, node.Hash); err != nil {
			return err
		}
		if node.IsRight {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint16(b[:]))

	data := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func readRow(r *bytes.Reader) ([]field.Element, error) {
	row := make([]field.Element, air.NumColumns)
	for i := range row {
		v, err := readUint64(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode row element %d: %w", i, err)
		}
		if v >= field.P {
			return nil, fmt.Errorf("row element %d is not canonical: %d", i, v)
		}
		row[i] = field.New(v)
	}
	return row, nil
}

func readPath(r *bytes.Reader) ([]core.ProofNode, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint16(b[:]))

	path := make([]core.ProofNode, n)
	for i := range path {
		h, err := readBytes(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode path node %d: %w", i, err)
		}
		side, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("failed to decode path node %d side: %w", i, err)
		}
		path[i] = core.ProofNode{Hash: h, IsRight: side == 1}
	}
	return path, nil
}
