package pwsafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNew_NilPassphraseRejected(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNew_EmptyPassphraseAllowed(t *testing.T) {
	doc, err := New([]byte{})
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestDocument_Defaults(t *testing.T) {
	doc := newTestDocument(t)

	assert.False(t, doc.ReadOnly())
	assert.True(t, doc.TrackAccess())
	assert.True(t, doc.TrackModify())
	assert.False(t, doc.HasChanged())
	assert.Equal(t, uint32(2048), doc.Iterations())
}

func TestDocument_IterationsClamp(t *testing.T) {
	doc := newTestDocument(t)

	require.NoError(t, doc.SetIterations(100))
	assert.Equal(t, uint32(2048), doc.Iterations())

	require.NoError(t, doc.SetIterations(50000))
	assert.Equal(t, uint32(50000), doc.Iterations())
}

func TestDocument_SetIterationsReadOnly(t *testing.T) {
	doc := newTestDocument(t)
	doc.SetReadOnly(true)
	assert.ErrorIs(t, doc.SetIterations(4096), ErrReadOnly)
}

func TestDocument_SetPassphrase(t *testing.T) {
	doc := newTestDocument(t)

	assert.ErrorIs(t, doc.SetPassphrase(nil), ErrInvalidArgument)

	require.NoError(t, doc.SetPassphrase([]byte("new")))
	assert.True(t, doc.HasChanged())
	assert.Equal(t, []byte("new"), doc.pass.reveal())

	doc.SetReadOnly(true)
	assert.ErrorIs(t, doc.SetPassphrase([]byte("x")), ErrReadOnly)
}

func TestDocument_PassphraseCallerKeepsOwnership(t *testing.T) {
	// The library copies the passphrase; the caller's buffer is untouched.
	buf := []byte("hunter2")
	doc, err := New(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), buf)
	assert.Equal(t, []byte("hunter2"), doc.pass.reveal())
}

func TestDocument_Close(t *testing.T) {
	doc := newTestDocument(t)
	doc.Close()
	assert.Nil(t, doc.pass)

	var nilSink discard
	assert.ErrorIs(t, doc.Save(nilSink), ErrInvalidArgument)

	// Close is idempotent
	doc.Close()
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestDocument_SetCollation(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.Entries().Add(NewTitledEntry("Straße")))

	doc.SetCollation(language.German)
	assert.True(t, doc.Entries().Contains("straße"))
}

func TestDocument_SetLoggerNilSafe(t *testing.T) {
	doc := newTestDocument(t)
	doc.SetLogger(nil)
	assert.NotNil(t, doc.log)
}
