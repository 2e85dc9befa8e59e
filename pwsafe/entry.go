package pwsafe

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a logical password entry: a collection of typed records. A fresh
// entry always carries a UUID record, plus empty Title and Password records.
type Entry struct {
	owner   *EntryCollection
	records *RecordCollection
}

// NewEntry creates a detached entry with a fresh v4 UUID and empty Title
// and Password records.
func NewEntry() *Entry {
	e := newBareEntry()
	id := uuid.New()
	e.records.items = append(e.records.items,
		ownedRecord(e.records, RecordUUID, id[:]),
		ownedRecord(e.records, RecordTitle, nil),
		ownedRecord(e.records, RecordPassword, nil),
	)
	return e
}

// NewTitledEntry creates a detached entry with the given title.
func NewTitledEntry(title string) *Entry {
	e := NewEntry()
	if r, ok := e.records.find(RecordTitle); ok {
		r.raw = []byte(title)
	}
	return e
}

func newBareEntry() *Entry {
	e := &Entry{}
	e.records = &RecordCollection{entry: e}
	return e
}

// newEntryFromRecords builds an entry around parsed records. A UUID record
// is generated when the source did not carry one.
func newEntryFromRecords(records []*Record) *Entry {
	e := newBareEntry()
	for _, r := range records {
		r.owner = e.records
		e.records.items = append(e.records.items, r)
	}
	if !e.records.Contains(RecordUUID) {
		id := uuid.New()
		e.records.items = append(e.records.items,
			ownedRecord(e.records, RecordUUID, id[:]))
	}
	return e
}

func ownedRecord(c *RecordCollection, t RecordType, value []byte) *Record {
	r := &Record{typ: t}
	r.owner = c
	r.raw = append([]byte(nil), value...)
	return r
}

// Records exposes the underlying record collection.
func (e *Entry) Records() *RecordCollection { return e.records }

// Owner returns the collection this entry belongs to, or nil when detached.
func (e *Entry) Owner() *EntryCollection { return e.owner }

// UUID returns the entry identity.
func (e *Entry) UUID() uuid.UUID { return e.records.UUID(RecordUUID) }

func (e *Entry) textValue(t RecordType) string {
	e.records.markAccessed()
	return e.records.Text(t)
}

// titleKey reads the title without stamping access; lookups and sorts go
// through here.
func (e *Entry) titleKey() string { return e.records.Text(RecordTitle) }

func (e *Entry) groupKey() string { return e.records.Text(RecordGroup) }

func (e *Entry) setTextValue(t RecordType, s string) error {
	if err := e.records.SetText(t, s); err != nil {
		return err
	}
	e.records.markModified(t == RecordPassword)
	return nil
}

// Group returns the slash-separated group path of the entry.
func (e *Entry) Group() string { return e.textValue(RecordGroup) }

// SetGroup sets the group path.
func (e *Entry) SetGroup(s string) error { return e.setTextValue(RecordGroup, s) }

// Title returns the entry title.
func (e *Entry) Title() string { return e.textValue(RecordTitle) }

// SetTitle sets the entry title.
func (e *Entry) SetTitle(s string) error { return e.setTextValue(RecordTitle, s) }

// UserName returns the user name.
func (e *Entry) UserName() string { return e.textValue(RecordUserName) }

// SetUserName sets the user name.
func (e *Entry) SetUserName(s string) error { return e.setTextValue(RecordUserName, s) }

// Password returns the password.
func (e *Entry) Password() string { return e.textValue(RecordPassword) }

// SetPassword sets the password and, when modify tracking is on, stamps the
// password-modification time.
func (e *Entry) SetPassword(s string) error { return e.setTextValue(RecordPassword, s) }

// Notes returns the free-form notes.
func (e *Entry) Notes() string { return e.textValue(RecordNotes) }

// SetNotes sets the free-form notes.
func (e *Entry) SetNotes(s string) error { return e.setTextValue(RecordNotes, s) }

// Url returns the entry URL.
func (e *Entry) Url() string { return e.textValue(RecordUrl) }

// SetUrl sets the entry URL.
func (e *Entry) SetUrl(s string) error { return e.setTextValue(RecordUrl, s) }

// Email returns the e-mail address.
func (e *Entry) Email() string { return e.textValue(RecordEmailAddress) }

// SetEmail sets the e-mail address.
func (e *Entry) SetEmail(s string) error { return e.setTextValue(RecordEmailAddress, s) }

// Autotype returns the keystroke script of the entry.
func (e *Entry) Autotype() string { return e.textValue(RecordAutotype) }

// SetAutotype sets the keystroke script.
func (e *Entry) SetAutotype(s string) error { return e.setTextValue(RecordAutotype, s) }

// RunCommand returns the "run" command of the entry.
func (e *Entry) RunCommand() string { return e.textValue(RecordRunCommand) }

// SetRunCommand sets the "run" command.
func (e *Entry) SetRunCommand(s string) error { return e.setTextValue(RecordRunCommand, s) }

// TwoFactorKey returns the raw two-factor key material.
func (e *Entry) TwoFactorKey() []byte {
	e.records.markAccessed()
	if r, ok := e.records.find(RecordTwoFactorKey); ok {
		return r.Bytes()
	}
	return nil
}

// SetTwoFactorKey sets the raw two-factor key material.
func (e *Entry) SetTwoFactorKey(b []byte) error {
	r, err := e.records.getOrCreate(RecordTwoFactorKey)
	if err != nil {
		return err
	}
	if err := r.SetBytes(b); err != nil {
		return err
	}
	e.records.markModified(false)
	return nil
}

// CreditCardNumber returns the card number.
func (e *Entry) CreditCardNumber() string { return e.textValue(RecordCreditCardNumber) }

// SetCreditCardNumber sets the card number.
func (e *Entry) SetCreditCardNumber(s string) error {
	return e.setTextValue(RecordCreditCardNumber, s)
}

// CreditCardExpiration returns the card expiration text.
func (e *Entry) CreditCardExpiration() string { return e.textValue(RecordCreditCardExpiration) }

// SetCreditCardExpiration sets the card expiration text.
func (e *Entry) SetCreditCardExpiration(s string) error {
	return e.setTextValue(RecordCreditCardExpiration, s)
}

// CreditCardVerifValue returns the card verification value.
func (e *Entry) CreditCardVerifValue() string { return e.textValue(RecordCreditCardVerifValue) }

// SetCreditCardVerifValue sets the card verification value.
func (e *Entry) SetCreditCardVerifValue(s string) error {
	return e.setTextValue(RecordCreditCardVerifValue, s)
}

// CreditCardPin returns the card PIN.
func (e *Entry) CreditCardPin() string { return e.textValue(RecordCreditCardPin) }

// SetCreditCardPin sets the card PIN.
func (e *Entry) SetCreditCardPin(s string) error {
	return e.setTextValue(RecordCreditCardPin, s)
}

// CreationTime returns the creation time, or the zero time when unset.
func (e *Entry) CreationTime() time.Time { return e.records.Time(RecordCreationTime) }

// SetCreationTime sets the creation time.
func (e *Entry) SetCreationTime(t time.Time) error {
	return e.records.SetTime(RecordCreationTime, t)
}

// PasswordModificationTime returns the password-modification time.
func (e *Entry) PasswordModificationTime() time.Time {
	return e.records.Time(RecordPasswordModificationTime)
}

// SetPasswordModificationTime sets the password-modification time.
func (e *Entry) SetPasswordModificationTime(t time.Time) error {
	return e.records.SetTime(RecordPasswordModificationTime, t)
}

// LastAccessTime returns the last-access time.
func (e *Entry) LastAccessTime() time.Time { return e.records.Time(RecordLastAccessTime) }

// SetLastAccessTime sets the last-access time.
func (e *Entry) SetLastAccessTime(t time.Time) error {
	return e.records.SetTime(RecordLastAccessTime, t)
}

// PasswordExpiryTime returns the password-expiry time.
func (e *Entry) PasswordExpiryTime() time.Time { return e.records.Time(RecordPasswordExpiryTime) }

// SetPasswordExpiryTime sets the password-expiry time.
func (e *Entry) SetPasswordExpiryTime(t time.Time) error {
	return e.records.SetTime(RecordPasswordExpiryTime, t)
}

// LastModificationTime returns the last-modification time.
func (e *Entry) LastModificationTime() time.Time {
	return e.records.Time(RecordLastModificationTime)
}

// SetLastModificationTime sets the last-modification time.
func (e *Entry) SetLastModificationTime(t time.Time) error {
	return e.records.SetTime(RecordLastModificationTime, t)
}
