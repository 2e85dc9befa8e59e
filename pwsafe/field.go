package pwsafe

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/pwvault/internal/secret"
	"github.com/google/uuid"
)

// fieldOwner is the weak parent handle of a field. It resolves to the owning
// document, or nil while the field is detached.
type fieldOwner interface {
	document() *Document
}

// Field holds the canonical raw bytes of a single header or record field.
// Typed views (Text, Time, UUID, Version, Uint32) are computed on read and
// replace the raw payload with the canonical encoding on write.
//
// A field is mutable until its owning document becomes read-only.
type Field struct {
	raw   []byte
	owner fieldOwner
}

// Header is a typed field of the database header section.
type Header struct {
	Field
	typ HeaderType
}

// Record is a typed field of a password entry.
type Record struct {
	Field
	typ RecordType
}

// NewHeader creates a detached header field with a copy of value.
func NewHeader(t HeaderType, value []byte) *Header {
	h := &Header{typ: t}
	h.raw = append([]byte(nil), value...)
	return h
}

// NewRecord creates a detached record field with a copy of value.
func NewRecord(t RecordType, value []byte) *Record {
	r := &Record{typ: t}
	r.raw = append([]byte(nil), value...)
	return r
}

// Type reports the header field type code.
func (h *Header) Type() HeaderType { return h.typ }

// Type reports the record field type code.
func (r *Record) Type() RecordType { return r.typ }

func (f *Field) document() *Document {
	if f.owner == nil {
		return nil
	}
	return f.owner.document()
}

// mutable reports whether the field may be written to.
func (f *Field) mutable() error {
	if doc := f.document(); doc != nil && doc.readOnly {
		return ErrReadOnly
	}
	return nil
}

// setRaw replaces the payload, wiping the previous one, and signals the
// owning document. An empty payload is stored as nil, the same as a parsed
// empty field, so payloads compare equal across a save/load round trip.
func (f *Field) setRaw(b []byte) {
	secret.Wipe(f.raw)
	if len(b) == 0 {
		b = nil
	}
	f.raw = b
	if doc := f.document(); doc != nil {
		doc.markChanged()
	}
}

// setRawQuiet replaces the payload without touching the document's changed
// flag. Used for access/modify stamping.
func (f *Field) setRawQuiet(b []byte) {
	secret.Wipe(f.raw)
	if len(b) == 0 {
		b = nil
	}
	f.raw = b
}

// Len reports the raw payload length in bytes.
func (f *Field) Len() int { return len(f.raw) }

// Bytes returns a copy of the raw payload.
func (f *Field) Bytes() []byte {
	return append([]byte(nil), f.raw...)
}

// SetBytes replaces the payload with a copy of b.
func (f *Field) SetBytes(b []byte) error {
	if err := f.mutable(); err != nil {
		return err
	}
	f.setRaw(append([]byte(nil), b...))
	return nil
}

// Text interprets the payload as UTF-8 text without a byte-order mark.
func (f *Field) Text() string { return string(f.raw) }

// SetText replaces the payload with the UTF-8 bytes of s.
func (f *Field) SetText(s string) error {
	if err := f.mutable(); err != nil {
		return err
	}
	f.setRaw([]byte(s))
	return nil
}

// Time interprets the payload as a little-endian unsigned 32-bit count of
// seconds since 1970-01-01 UTC. A stored zero reads as the zero time.
// Eight hex characters, as written by some older tools, are accepted too.
func (f *Field) Time() (time.Time, error) {
	switch len(f.raw) {
	case 4:
		ts := binary.LittleEndian.Uint32(f.raw)
		if ts == 0 {
			return time.Time{}, nil
		}
		return time.Unix(int64(ts), 0).UTC(), nil
	case 8:
		b, err := hex.DecodeString(string(f.raw))
		if err != nil || len(b) != 4 {
			return time.Time{}, fmt.Errorf("decoding hex timestamp: %w", ErrBadFieldWidth)
		}
		ts := binary.LittleEndian.Uint32(b)
		if ts == 0 {
			return time.Time{}, nil
		}
		return time.Unix(int64(ts), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("timestamp payload is %d bytes: %w", len(f.raw), ErrBadFieldWidth)
	}
}

// SetTime stores t as little-endian unsigned 32-bit Unix seconds. The zero
// time stores as 0.
func (f *Field) SetTime(t time.Time) error {
	if err := f.mutable(); err != nil {
		return err
	}
	b, err := encodeTime(t)
	if err != nil {
		return err
	}
	f.setRaw(b)
	return nil
}

func encodeTime(t time.Time) ([]byte, error) {
	var ts uint32
	if !t.IsZero() {
		x := t.Unix()
		if x < 0 || x > math.MaxUint32 {
			return nil, fmt.Errorf("timestamp %v out of range: %w", t, ErrInvalidArgument)
		}
		ts = uint32(x)
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, ts)
	return b, nil
}

// UUID interprets the payload as a 16-byte UUID in raw layout. No byte
// reordering is performed regardless of platform endianness.
func (f *Field) UUID() (uuid.UUID, error) {
	if len(f.raw) != 16 {
		return uuid.Nil, fmt.Errorf("uuid payload is %d bytes: %w", len(f.raw), ErrBadFieldWidth)
	}
	var id uuid.UUID
	copy(id[:], f.raw)
	return id, nil
}

// SetUUID stores the 16 raw bytes of id.
func (f *Field) SetUUID(id uuid.UUID) error {
	if err := f.mutable(); err != nil {
		return err
	}
	f.setRaw(append([]byte(nil), id[:]...))
	return nil
}

// Version interprets the payload as a little-endian unsigned 16-bit value.
func (f *Field) Version() (uint16, error) {
	if len(f.raw) != 2 {
		return 0, fmt.Errorf("version payload is %d bytes: %w", len(f.raw), ErrBadFieldWidth)
	}
	return binary.LittleEndian.Uint16(f.raw), nil
}

// SetVersion stores v as two little-endian bytes.
func (f *Field) SetVersion(v uint16) error {
	if err := f.mutable(); err != nil {
		return err
	}
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	f.setRaw(b)
	return nil
}

// Uint32 interprets the payload as a little-endian unsigned 32-bit value.
func (f *Field) Uint32() (uint32, error) {
	if len(f.raw) != 4 {
		return 0, fmt.Errorf("uint32 payload is %d bytes: %w", len(f.raw), ErrBadFieldWidth)
	}
	return binary.LittleEndian.Uint32(f.raw), nil
}

// SetUint32 stores v as four little-endian bytes.
func (f *Field) SetUint32(v uint32) error {
	if err := f.mutable(); err != nil {
		return err
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	f.setRaw(b)
	return nil
}

// wipe destroys the payload. The field is unusable afterwards.
func (f *Field) wipe() {
	secret.Wipe(f.raw)
	f.raw = nil
}
