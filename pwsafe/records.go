package pwsafe

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordCollection is the ordered set of record fields of a single entry.
// It keeps at most one record of any given type; lookups by type return the
// first match.
type RecordCollection struct {
	entry *Entry
	items []*Record
}

func (c *RecordCollection) document() *Document {
	if c.entry == nil || c.entry.owner == nil {
		return nil
	}
	return c.entry.owner.doc
}

func (c *RecordCollection) mutable() error {
	if doc := c.document(); doc != nil && doc.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (c *RecordCollection) markChanged() {
	if doc := c.document(); doc != nil {
		doc.markChanged()
	}
}

// Len reports the number of record fields.
func (c *RecordCollection) Len() int { return len(c.items) }

// Fields returns a snapshot of the record fields in insertion order.
func (c *RecordCollection) Fields() []*Record {
	return append([]*Record(nil), c.items...)
}

// Contains reports whether a record of the given type is present.
func (c *RecordCollection) Contains(t RecordType) bool {
	_, ok := c.find(t)
	return ok
}

// Get returns the first record of the given type.
func (c *RecordCollection) Get(t RecordType) (*Record, bool) {
	return c.find(t)
}

func (c *RecordCollection) find(t RecordType) (*Record, bool) {
	for _, r := range c.items {
		if r.typ == t {
			return r, true
		}
	}
	return nil, false
}

// Add appends a detached record field. Adding a second record of an already
// present type fails with ErrInvalidArgument.
func (c *RecordCollection) Add(r *Record) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("nil record: %w", ErrInvalidArgument)
	}
	if c.Contains(r.typ) {
		return fmt.Errorf("duplicate record type %#02x: %w", uint8(r.typ), ErrInvalidArgument)
	}
	r.owner = c
	c.items = append(c.items, r)
	c.markChanged()
	return nil
}

// Remove deletes the record of the given type, if present.
func (c *RecordCollection) Remove(t RecordType) error {
	if err := c.mutable(); err != nil {
		return err
	}
	for i, r := range c.items {
		if r.typ == t {
			r.owner = nil
			r.wipe()
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.markChanged()
			return nil
		}
	}
	return nil
}

// getOrCreate returns the record of the given type, appending an empty one
// when absent.
func (c *RecordCollection) getOrCreate(t RecordType) (*Record, error) {
	if err := c.mutable(); err != nil {
		return nil, err
	}
	if r, ok := c.find(t); ok {
		return r, nil
	}
	r := &Record{typ: t}
	r.owner = c
	c.items = append(c.items, r)
	return r, nil
}

// Text returns the text view of the record of the given type, or "" when
// absent.
func (c *RecordCollection) Text(t RecordType) string {
	if r, ok := c.find(t); ok {
		return r.Text()
	}
	return ""
}

// SetText writes s through the text view, creating the record if needed.
func (c *RecordCollection) SetText(t RecordType, s string) error {
	r, err := c.getOrCreate(t)
	if err != nil {
		return err
	}
	return r.SetText(s)
}

// Time returns the time view of the record of the given type, or the zero
// time when absent or malformed.
func (c *RecordCollection) Time(t RecordType) time.Time {
	if r, ok := c.find(t); ok {
		if tm, err := r.Time(); err == nil {
			return tm
		}
	}
	return time.Time{}
}

// SetTime writes tm through the time view, creating the record if needed.
func (c *RecordCollection) SetTime(t RecordType, tm time.Time) error {
	r, err := c.getOrCreate(t)
	if err != nil {
		return err
	}
	return r.SetTime(tm)
}

// UUID returns the UUID view of the record of the given type, or uuid.Nil
// when absent or malformed.
func (c *RecordCollection) UUID(t RecordType) uuid.UUID {
	if r, ok := c.find(t); ok {
		if id, err := r.UUID(); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// SetUUID writes id through the UUID view, creating the record if needed.
func (c *RecordCollection) SetUUID(t RecordType, id uuid.UUID) error {
	r, err := c.getOrCreate(t)
	if err != nil {
		return err
	}
	return r.SetUUID(id)
}

// markAccessed stamps the last-access time without marking the document
// changed. No-op for detached entries, read-only documents, or documents
// with access tracking off.
func (c *RecordCollection) markAccessed() {
	doc := c.document()
	if doc == nil || doc.readOnly || !doc.trackAccess {
		return
	}
	c.stampQuiet(RecordLastAccessTime, doc.now())
}

// markModified stamps the last-modification time (and, for password
// changes, the password-modification time). The triggering mutation has
// already marked the document changed.
func (c *RecordCollection) markModified(password bool) {
	doc := c.document()
	if doc == nil || doc.readOnly || !doc.trackModify {
		return
	}
	now := doc.now()
	c.stampQuiet(RecordLastModificationTime, now)
	if password {
		c.stampQuiet(RecordPasswordModificationTime, now)
	}
}

func (c *RecordCollection) stampQuiet(t RecordType, tm time.Time) {
	b, err := encodeTime(tm)
	if err != nil {
		return
	}
	r, ok := c.find(t)
	if !ok {
		r = &Record{typ: t}
		r.owner = c
		c.items = append(c.items, r)
	}
	r.setRawQuiet(b)
}
