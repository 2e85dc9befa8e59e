package pwsafe

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HeaderCollection is the ordered set of header fields of a document. It
// keeps at most one header of any given type; lookups by type return the
// first match.
type HeaderCollection struct {
	doc   *Document
	items []*Header
}

func (c *HeaderCollection) document() *Document { return c.doc }

func (c *HeaderCollection) mutable() error {
	if c.doc != nil && c.doc.readOnly {
		return ErrReadOnly
	}
	return nil
}

// Len reports the number of header fields.
func (c *HeaderCollection) Len() int { return len(c.items) }

// Fields returns a snapshot of the header fields in insertion order.
// Mutating the collection does not invalidate a snapshot taken earlier.
func (c *HeaderCollection) Fields() []*Header {
	return append([]*Header(nil), c.items...)
}

// Contains reports whether a header of the given type is present.
func (c *HeaderCollection) Contains(t HeaderType) bool {
	_, ok := c.find(t)
	return ok
}

// Get returns the first header of the given type.
func (c *HeaderCollection) Get(t HeaderType) (*Header, bool) {
	return c.find(t)
}

func (c *HeaderCollection) find(t HeaderType) (*Header, bool) {
	for _, h := range c.items {
		if h.typ == t {
			return h, true
		}
	}
	return nil, false
}

// Add appends a detached header field to the collection. Adding a second
// header of an already present type fails with ErrInvalidArgument.
func (c *HeaderCollection) Add(h *Header) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("nil header: %w", ErrInvalidArgument)
	}
	if c.Contains(h.typ) {
		return fmt.Errorf("duplicate header type %#02x: %w", uint8(h.typ), ErrInvalidArgument)
	}
	h.owner = c
	c.items = append(c.items, h)
	c.doc.markChanged()
	return nil
}

// Remove deletes the header of the given type, if present.
func (c *HeaderCollection) Remove(t HeaderType) error {
	if err := c.mutable(); err != nil {
		return err
	}
	for i, h := range c.items {
		if h.typ == t {
			h.owner = nil
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.doc.markChanged()
			return nil
		}
	}
	return nil
}

// getOrCreate returns the header of the given type, appending an empty one
// when absent. The Version header is required to pre-exist and is never
// auto-created.
func (c *HeaderCollection) getOrCreate(t HeaderType) (*Header, error) {
	if err := c.mutable(); err != nil {
		return nil, err
	}
	if h, ok := c.find(t); ok {
		return h, nil
	}
	if t == HeaderVersion {
		return nil, fmt.Errorf("version header must already exist: %w", ErrInvalidArgument)
	}
	h := &Header{typ: t}
	h.owner = c
	c.items = append(c.items, h)
	return h, nil
}

// Text returns the text view of the header of the given type, or "" when
// absent.
func (c *HeaderCollection) Text(t HeaderType) string {
	if h, ok := c.find(t); ok {
		return h.Text()
	}
	return ""
}

// SetText writes s through the text view, creating the header if needed.
func (c *HeaderCollection) SetText(t HeaderType, s string) error {
	h, err := c.getOrCreate(t)
	if err != nil {
		return err
	}
	return h.SetText(s)
}

// Time returns the time view of the header of the given type, or the zero
// time when absent or malformed.
func (c *HeaderCollection) Time(t HeaderType) time.Time {
	if h, ok := c.find(t); ok {
		if tm, err := h.Time(); err == nil {
			return tm
		}
	}
	return time.Time{}
}

// SetTime writes tm through the time view, creating the header if needed.
func (c *HeaderCollection) SetTime(t HeaderType, tm time.Time) error {
	h, err := c.getOrCreate(t)
	if err != nil {
		return err
	}
	return h.SetTime(tm)
}

// UUID returns the UUID view of the header of the given type, or uuid.Nil
// when absent or malformed.
func (c *HeaderCollection) UUID(t HeaderType) uuid.UUID {
	if h, ok := c.find(t); ok {
		if id, err := h.UUID(); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// SetUUID writes id through the UUID view, creating the header if needed.
func (c *HeaderCollection) SetUUID(t HeaderType, id uuid.UUID) error {
	h, err := c.getOrCreate(t)
	if err != nil {
		return err
	}
	return h.SetUUID(id)
}

// setTextQuiet stamps a text header without marking the document changed,
// creating the header if needed. Save stamping only; callers check read-only.
func (c *HeaderCollection) setTextQuiet(t HeaderType, s string) {
	h, ok := c.find(t)
	if !ok {
		h = &Header{typ: t}
		h.owner = c
		c.items = append(c.items, h)
	}
	h.setRawQuiet([]byte(s))
}

func (c *HeaderCollection) setTimeQuiet(t HeaderType, tm time.Time) {
	b, err := encodeTime(tm)
	if err != nil {
		return
	}
	h, ok := c.find(t)
	if !ok {
		h = &Header{typ: t}
		h.owner = c
		c.items = append(c.items, h)
	}
	h.setRawQuiet(b)
}
