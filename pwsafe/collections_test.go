package pwsafe

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := New([]byte("test-passphrase"))
	require.NoError(t, err)
	return doc
}

func TestHeaderCollection_NewDocumentSeeds(t *testing.T) {
	doc := newTestDocument(t)

	assert.True(t, doc.Headers().Contains(HeaderVersion))
	assert.True(t, doc.Headers().Contains(HeaderUUID))
	assert.Equal(t, uint16(0x030D), doc.Version())
	assert.NotEqual(t, uuid.Nil, doc.UUID())
	assert.False(t, doc.HasChanged())
}

func TestHeaderCollection_SetTextAutoCreates(t *testing.T) {
	doc := newTestDocument(t)

	require.False(t, doc.Headers().Contains(HeaderDatabaseName))
	require.NoError(t, doc.SetName("personal"))
	assert.Equal(t, "personal", doc.Name())
	assert.True(t, doc.HasChanged())
}

func TestHeaderCollection_VersionIsNeverAutoCreated(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.Headers().Remove(HeaderVersion))

	_, err := doc.Headers().getOrCreate(HeaderVersion)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHeaderCollection_RemoveAndOrder(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.SetName("a"))
	require.NoError(t, doc.SetDescription("b"))

	var types []HeaderType
	for _, h := range doc.Headers().Fields() {
		types = append(types, h.Type())
	}
	assert.Equal(t, []HeaderType{HeaderVersion, HeaderUUID, HeaderDatabaseName, HeaderDatabaseDescription}, types)

	require.NoError(t, doc.Headers().Remove(HeaderDatabaseName))
	assert.False(t, doc.Headers().Contains(HeaderDatabaseName))
	assert.Equal(t, 3, doc.Headers().Len())
}

func TestHeaderCollection_DuplicateAddRejected(t *testing.T) {
	doc := newTestDocument(t)
	err := doc.Headers().Add(NewHeader(HeaderUUID, make([]byte, 16)))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHeaderCollection_ReadOnly(t *testing.T) {
	doc := newTestDocument(t)
	doc.SetReadOnly(true)

	assert.ErrorIs(t, doc.SetName("x"), ErrReadOnly)
	assert.ErrorIs(t, doc.Headers().Remove(HeaderUUID), ErrReadOnly)
	assert.ErrorIs(t, doc.Headers().Add(NewHeader(HeaderDatabaseName, nil)), ErrReadOnly)
	assert.False(t, doc.HasChanged())
}

func TestRecordCollection_TypedAccess(t *testing.T) {
	e := NewEntry()
	rc := e.Records()

	assert.True(t, rc.Contains(RecordUUID))
	assert.True(t, rc.Contains(RecordTitle))
	assert.True(t, rc.Contains(RecordPassword))

	require.NoError(t, rc.SetText(RecordNotes, "line"))
	assert.Equal(t, "line", rc.Text(RecordNotes))

	when := time.Unix(1700000000, 0).UTC()
	require.NoError(t, rc.SetTime(RecordCreationTime, when))
	assert.Equal(t, when, rc.Time(RecordCreationTime))

	assert.Equal(t, "", rc.Text(RecordUrl))
	assert.True(t, rc.Time(RecordPasswordExpiryTime).IsZero())
}

func TestRecordCollection_RemoveWipes(t *testing.T) {
	e := NewEntry()
	require.NoError(t, e.SetPassword("hunter2"))
	r, ok := e.Records().Get(RecordPassword)
	require.True(t, ok)
	raw := r.raw

	require.NoError(t, e.Records().Remove(RecordPassword))
	assert.False(t, e.Records().Contains(RecordPassword))
	for i, b := range raw {
		if b != 0 {
			t.Fatalf("expected removed password byte %d to be wiped, got %d", i, b)
		}
	}
}

func TestRecordCollection_MutationMarksDocumentChanged(t *testing.T) {
	doc := newTestDocument(t)
	e := NewEntry()
	require.NoError(t, doc.Entries().Add(e))
	doc.hasChanged = false

	require.NoError(t, e.SetUserName("alice"))
	assert.True(t, doc.HasChanged())
}

func TestRecordCollection_ReadOnlyThroughDocument(t *testing.T) {
	doc := newTestDocument(t)
	e := NewEntry()
	require.NoError(t, doc.Entries().Add(e))
	doc.SetReadOnly(true)

	assert.ErrorIs(t, e.SetPassword("x"), ErrReadOnly)
	assert.ErrorIs(t, e.Records().Remove(RecordTitle), ErrReadOnly)

	// a detached entry is not bound by the document
	free := NewEntry()
	assert.NoError(t, free.SetPassword("x"))
}
