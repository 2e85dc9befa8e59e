package pwsafe

import (
	"fmt"
	"sort"
)

// EntryCollection is the ordered set of entries of a document. An entry
// belongs to at most one collection at a time.
//
// Title lookups are case-insensitive under the document's collation (see
// Document.SetCollation).
type EntryCollection struct {
	doc   *Document
	items []*Entry
}

func (c *EntryCollection) mutable() error {
	if c.doc != nil && c.doc.readOnly {
		return ErrReadOnly
	}
	return nil
}

// Len reports the number of entries.
func (c *EntryCollection) Len() int { return len(c.items) }

// Entries returns a snapshot of the entries in order. Structural mutation
// of the collection does not invalidate a snapshot taken earlier, so it is
// safe to remove entries while ranging over one.
func (c *EntryCollection) Entries() []*Entry {
	return append([]*Entry(nil), c.items...)
}

// At returns the entry at position i.
func (c *EntryCollection) At(i int) (*Entry, error) {
	if i < 0 || i >= len(c.items) {
		return nil, fmt.Errorf("index %d out of range [0,%d): %w", i, len(c.items), ErrInvalidArgument)
	}
	return c.items[i], nil
}

// Add appends a detached entry to the collection.
func (c *EntryCollection) Add(e *Entry) error {
	return c.insert(len(c.items), e)
}

// AddRange appends each entry in turn, stopping at the first failure.
func (c *EntryCollection) AddRange(entries ...*Entry) error {
	for _, e := range entries {
		if err := c.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Insert places a detached entry at position i.
func (c *EntryCollection) Insert(i int, e *Entry) error {
	if i < 0 || i > len(c.items) {
		return fmt.Errorf("index %d out of range [0,%d]: %w", i, len(c.items), ErrInvalidArgument)
	}
	return c.insert(i, e)
}

func (c *EntryCollection) insert(i int, e *Entry) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("nil entry: %w", ErrInvalidArgument)
	}
	if e.owner != nil {
		return fmt.Errorf("entry %q: %w", e.titleKey(), ErrAlreadyOwned)
	}
	e.owner = c
	c.items = append(c.items, nil)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = e
	c.doc.markChanged()
	return nil
}

// Remove detaches the given entry from the collection.
func (c *EntryCollection) Remove(e *Entry) error {
	if err := c.mutable(); err != nil {
		return err
	}
	for i, x := range c.items {
		if x == e {
			return c.removeAt(i)
		}
	}
	return nil
}

// RemoveAt detaches the entry at position i.
func (c *EntryCollection) RemoveAt(i int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("index %d out of range [0,%d): %w", i, len(c.items), ErrInvalidArgument)
	}
	return c.removeAt(i)
}

func (c *EntryCollection) removeAt(i int) error {
	c.items[i].owner = nil
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.doc.markChanged()
	return nil
}

// Clear detaches every entry.
func (c *EntryCollection) Clear() error {
	if err := c.mutable(); err != nil {
		return err
	}
	for _, e := range c.items {
		e.owner = nil
	}
	c.items = nil
	c.doc.markChanged()
	return nil
}

func (c *EntryCollection) equalFold(a, b string) bool {
	return c.doc.collator.CompareString(a, b) == 0
}

// Contains reports whether an entry with the given title is present.
func (c *EntryCollection) Contains(title string) bool {
	return c.Find(title) != nil
}

// ContainsInGroup reports whether an entry with the given group and title is
// present.
func (c *EntryCollection) ContainsInGroup(group, title string) bool {
	return c.FindInGroup(group, title) != nil
}

// Find returns the first entry whose title matches, or nil.
func (c *EntryCollection) Find(title string) *Entry {
	for _, e := range c.items {
		if c.equalFold(e.titleKey(), title) {
			return e
		}
	}
	return nil
}

// FindInGroup returns the first entry whose group and title match, or nil.
func (c *EntryCollection) FindInGroup(group, title string) *Entry {
	for _, e := range c.items {
		if c.equalFold(e.groupKey(), group) && c.equalFold(e.titleKey(), title) {
			return e
		}
	}
	return nil
}

// GetOrCreate returns the first entry with the given title, creating and
// appending one when absent. On a read-only document a detached entry is
// returned instead of being inserted.
func (c *EntryCollection) GetOrCreate(title string) (*Entry, error) {
	if e := c.Find(title); e != nil {
		return e, nil
	}
	e := NewTitledEntry(title)
	if c.doc != nil && c.doc.readOnly {
		return e, nil
	}
	if err := c.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetOrCreateInGroup behaves like GetOrCreate with a group qualifier.
func (c *EntryCollection) GetOrCreateInGroup(group, title string) (*Entry, error) {
	if e := c.FindInGroup(group, title); e != nil {
		return e, nil
	}
	e := NewTitledEntry(title)
	if r, ok := e.records.find(RecordGroup); ok {
		r.raw = []byte(group)
	} else {
		e.records.items = append(e.records.items, ownedRecord(e.records, RecordGroup, []byte(group)))
	}
	if c.doc != nil && c.doc.readOnly {
		return e, nil
	}
	if err := c.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// RemoveByTitle detaches the first entry whose title matches.
func (c *EntryCollection) RemoveByTitle(title string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	for i, e := range c.items {
		if c.equalFold(e.titleKey(), title) {
			return c.removeAt(i)
		}
	}
	return nil
}

// RemoveInGroup detaches the first entry whose group and title match.
func (c *EntryCollection) RemoveInGroup(group, title string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	for i, e := range c.items {
		if c.equalFold(e.groupKey(), group) && c.equalFold(e.titleKey(), title) {
			return c.removeAt(i)
		}
	}
	return nil
}

// SetByTitle is a source-compat shim for the original indexer assignment:
// only a nil value is accepted, which removes the matched entry. Any other
// value fails with ErrOnlyNilSupported.
func (c *EntryCollection) SetByTitle(title string, e *Entry) error {
	if e != nil {
		return ErrOnlyNilSupported
	}
	return c.RemoveByTitle(title)
}

// RemoveRecord deletes the named record of the entry with the given title.
// The entry is not created when absent.
func (c *EntryCollection) RemoveRecord(title string, t RecordType) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if e := c.Find(title); e != nil {
		return e.records.Remove(t)
	}
	return nil
}

// RemoveRecordInGroup deletes the named record of the entry with the given
// group and title. The entry is not created when absent.
func (c *EntryCollection) RemoveRecordInGroup(group, title string, t RecordType) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if e := c.FindInGroup(group, title); e != nil {
		return e.records.Remove(t)
	}
	return nil
}

// Sort orders the entries by (group, title) under the document's collation.
// The sort is stable.
func (c *EntryCollection) Sort() error {
	if err := c.mutable(); err != nil {
		return err
	}
	col := c.doc.collator
	sort.SliceStable(c.items, func(i, j int) bool {
		a, b := c.items[i], c.items[j]
		if d := col.CompareString(a.groupKey(), b.groupKey()); d != 0 {
			return d < 0
		}
		return col.CompareString(a.titleKey(), b.titleKey()) < 0
	})
	c.doc.markChanged()
	return nil
}
