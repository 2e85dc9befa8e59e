package pwsafe

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FormatVersion is the file-format version written into new documents.
const FormatVersion uint16 = 0x030D

// Document is the top-level aggregate: database headers plus entries, with
// change tracking, read-only enforcement, and load/save orchestration.
//
// A Document and its owned collections are not safe for concurrent use
// without external synchronization.
type Document struct {
	headers *HeaderCollection
	entries *EntryCollection

	pass       *obfuscatedSecret
	iterations uint32

	readOnly    bool
	trackAccess bool
	trackModify bool
	hasChanged  bool

	collator *collate.Collator
	log      Logger
	clock    func() time.Time
}

// New creates a ready-to-save document protected by the given passphrase.
// The headers are seeded with the current format version and a fresh
// document UUID. The passphrase bytes are copied; the caller keeps
// ownership of (and should wipe) its own buffer.
func New(passphrase []byte) (*Document, error) {
	if passphrase == nil {
		return nil, fmt.Errorf("nil passphrase: %w", ErrInvalidArgument)
	}
	d := newEmptyDocument()
	pass, err := newObfuscatedSecret(passphrase)
	if err != nil {
		return nil, fmt.Errorf("protecting passphrase: %w", err)
	}
	d.pass = pass

	ver := &Header{typ: HeaderVersion}
	ver.owner = d.headers
	ver.raw = []byte{byte(FormatVersion & 0xFF), byte(FormatVersion >> 8)}
	id := uuid.New()
	uu := &Header{typ: HeaderUUID}
	uu.owner = d.headers
	uu.raw = append([]byte(nil), id[:]...)
	d.headers.items = []*Header{ver, uu}
	return d, nil
}

func newEmptyDocument() *Document {
	d := &Document{
		iterations:  minIterations,
		trackAccess: true,
		trackModify: true,
		log:         NopLogger(),
		clock:       func() time.Time { return time.Now().UTC() },
	}
	d.collator = collate.New(language.Und, collate.IgnoreCase)
	d.headers = &HeaderCollection{doc: d}
	d.entries = &EntryCollection{doc: d}
	return d
}

// Headers exposes the header collection.
func (d *Document) Headers() *HeaderCollection { return d.headers }

// Entries exposes the entry collection.
func (d *Document) Entries() *EntryCollection { return d.entries }

// Version returns the file-format version header, or 0 when malformed.
func (d *Document) Version() uint16 {
	if h, ok := d.headers.Get(HeaderVersion); ok {
		if v, err := h.Version(); err == nil {
			return v
		}
	}
	return 0
}

// UUID returns the document identity.
func (d *Document) UUID() uuid.UUID { return d.headers.UUID(HeaderUUID) }

// Name returns the database name.
func (d *Document) Name() string { return d.headers.Text(HeaderDatabaseName) }

// SetName sets the database name.
func (d *Document) SetName(s string) error {
	return d.headers.SetText(HeaderDatabaseName, s)
}

// Description returns the database description.
func (d *Document) Description() string { return d.headers.Text(HeaderDatabaseDescription) }

// SetDescription sets the database description.
func (d *Document) SetDescription(s string) error {
	return d.headers.SetText(HeaderDatabaseDescription, s)
}

// LastSaveTime returns the time of the last save, or the zero time.
func (d *Document) LastSaveTime() time.Time {
	return d.headers.Time(HeaderTimestampOfLastSave)
}

// LastSaveApplication returns the application stamp of the last save.
func (d *Document) LastSaveApplication() string {
	return d.headers.Text(HeaderWhatPerformedLastSave)
}

// LastSaveUser returns the user stamp of the last save.
func (d *Document) LastSaveUser() string { return d.headers.Text(HeaderLastSavedByUser) }

// LastSaveHost returns the host stamp of the last save.
func (d *Document) LastSaveHost() string { return d.headers.Text(HeaderLastSavedOnHost) }

// Iterations returns the key-stretch iteration count. A value read from a
// container is preserved verbatim, even below the write-time minimum.
func (d *Document) Iterations() uint32 { return d.iterations }

// SetIterations sets the key-stretch iteration count, clamped to the
// write-time minimum of 2048.
func (d *Document) SetIterations(n uint32) error {
	if d.readOnly {
		return ErrReadOnly
	}
	if n < minIterations {
		n = minIterations
	}
	if n != d.iterations {
		d.iterations = n
		d.markChanged()
	}
	return nil
}

// ReadOnly reports whether the document rejects mutation.
func (d *Document) ReadOnly() bool { return d.readOnly }

// SetReadOnly toggles read-only enforcement.
func (d *Document) SetReadOnly(v bool) { d.readOnly = v }

// TrackAccess reports whether reads of entry values stamp the last-access
// time. Default true.
func (d *Document) TrackAccess() bool { return d.trackAccess }

// SetTrackAccess toggles access stamping.
func (d *Document) SetTrackAccess(v bool) { d.trackAccess = v }

// TrackModify reports whether mutations stamp modification times and saves
// stamp the save headers. Default true.
func (d *Document) TrackModify() bool { return d.trackModify }

// SetTrackModify toggles modification stamping.
func (d *Document) SetTrackModify(v bool) { d.trackModify = v }

// HasChanged reports whether the document was mutated since construction,
// load, or the last clean save.
func (d *Document) HasChanged() bool { return d.hasChanged }

func (d *Document) markChanged() { d.hasChanged = true }

// SetPassphrase replaces the held passphrase. The argument is copied; the
// caller keeps ownership of its own buffer.
func (d *Document) SetPassphrase(passphrase []byte) error {
	if d.readOnly {
		return ErrReadOnly
	}
	if passphrase == nil {
		return fmt.Errorf("nil passphrase: %w", ErrInvalidArgument)
	}
	pass, err := newObfuscatedSecret(passphrase)
	if err != nil {
		return fmt.Errorf("protecting passphrase: %w", err)
	}
	if d.pass != nil {
		d.pass.wipe()
	}
	d.pass = pass
	d.markChanged()
	return nil
}

// SetCollation switches the locale used for case-insensitive title
// comparison and sorting. The default is the invariant (und) collation,
// which keeps comparisons deterministic across platforms.
func (d *Document) SetCollation(tag language.Tag) {
	d.collator = collate.New(tag, collate.IgnoreCase)
}

// SetLogger installs a structured logger. A nil logger silences the
// document.
func (d *Document) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger()
	}
	d.log = l
}

// Close wipes the held obfuscated passphrase. The document cannot be saved
// afterwards.
func (d *Document) Close() {
	if d.pass != nil {
		d.pass.wipe()
		d.pass = nil
	}
}

func (d *Document) now() time.Time { return d.clock() }
