package pwsafe

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldBlockSize(t *testing.T) {
	// The type byte counts as a fifth length byte and the block is always
	// padded into the next boundary, never ending exactly on one.
	cases := []struct{ valueLen, want int }{
		{0, 16},
		{1, 16},
		{10, 16},
		{11, 32}, // 5+11 fills a block exactly, so a whole pad block follows
		{12, 32},
		{26, 32},
		{27, 48},
		{100, 112},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, fieldBlockSize(c.valueLen), "valueLen=%d", c.valueLen)
	}
}

func saveToBytes(t *testing.T, doc *Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))
	return buf.Bytes()
}

func TestSave_EmptyDocumentLayout(t *testing.T) {
	doc := newTestDocument(t)
	b := saveToBytes(t, doc)

	assert.GreaterOrEqual(t, len(b), 200)
	assert.Equal(t, []byte{0x50, 0x57, 0x53, 0x33}, b[0:4], "leading tag")
	assert.Equal(t, []byte{0x2D, 0x45, 0x4F, 0x46}, b[len(b)-36:len(b)-32], "trailing tag word")
	assert.Equal(t, uint32(2048), binary.LittleEndian.Uint32(b[36:40]), "persisted iterations")
	assert.False(t, doc.HasChanged(), "changed flag cleared after clean save")

	loaded, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	require.NoError(t, err)

	assert.Equal(t, uint16(0x030D), loaded.Version())
	assert.Zero(t, loaded.Entries().Len())
	assert.False(t, loaded.HasChanged())

	// version, uuid, and the four save stamps
	hdr := loaded.Headers()
	assert.Equal(t, 6, hdr.Len())
	assert.True(t, hdr.Contains(HeaderTimestampOfLastSave))
	assert.True(t, hdr.Contains(HeaderWhatPerformedLastSave))
	assert.True(t, hdr.Contains(HeaderLastSavedByUser))
	assert.True(t, hdr.Contains(HeaderLastSavedOnHost))
	assert.Equal(t, "pwvault V"+Version, loaded.LastSaveApplication())
	assert.Equal(t, doc.UUID(), loaded.UUID())
}

func TestSave_ReadOnlySkipsStamps(t *testing.T) {
	doc := newTestDocument(t)
	doc.SetReadOnly(true)
	b := saveToBytes(t, doc)

	loaded, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Headers().Len(), "only version and uuid")
}

func TestRoundTrip_SingleEntry(t *testing.T) {
	doc := newTestDocument(t)
	e := NewTitledEntry("gmail")
	require.NoError(t, e.SetUserName("a@b"))
	require.NoError(t, e.SetPassword("p!"))
	require.NoError(t, doc.Entries().Add(e))

	b := saveToBytes(t, doc)
	loaded, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	require.NoError(t, err)

	require.Equal(t, 1, loaded.Entries().Len())
	got, err := loaded.Entries().At(0)
	require.NoError(t, err)
	assert.Equal(t, "gmail", got.Title())
	assert.Equal(t, "a@b", got.UserName())
	assert.Equal(t, "p!", got.Password())
	assert.Equal(t, e.UUID(), got.UUID())
}

// assertEqualDocuments compares header and record fields, order and raw
// values, without going through the stamping accessors.
func assertEqualDocuments(t *testing.T, want, got *Document) {
	t.Helper()
	require.Equal(t, len(want.headers.items), len(got.headers.items), "header count")
	for i := range want.headers.items {
		assert.Equal(t, want.headers.items[i].typ, got.headers.items[i].typ, "header %d type", i)
		assert.Equal(t, want.headers.items[i].raw, got.headers.items[i].raw, "header %d payload", i)
	}
	require.Equal(t, len(want.entries.items), len(got.entries.items), "entry count")
	for i := range want.entries.items {
		wr := want.entries.items[i].records.items
		gr := got.entries.items[i].records.items
		require.Equal(t, len(wr), len(gr), "entry %d record count", i)
		for j := range wr {
			assert.Equal(t, wr[j].typ, gr[j].typ, "entry %d record %d type", i, j)
			assert.Equal(t, wr[j].raw, gr[j].raw, "entry %d record %d payload", i, j)
		}
	}
}

func TestRoundTrip_PreservesAllFields(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.SetName("vault"))
	require.NoError(t, doc.SetDescription("family accounts"))

	e1 := NewTitledEntry("bank")
	require.NoError(t, e1.SetGroup("finance"))
	require.NoError(t, e1.SetPassword("s3cr3t"))
	require.NoError(t, e1.SetNotes("multi\nline\nnotes"))
	e2 := NewTitledEntry("email")
	require.NoError(t, e2.SetEmail("me@example.com"))
	require.NoError(t, doc.Entries().AddRange(e1, e2))

	// unknown field types survive a round trip untouched
	require.NoError(t, doc.Headers().Add(NewHeader(HeaderType(0x77), []byte{9, 8, 7})))
	require.NoError(t, e1.Records().Add(NewRecord(RecordType(0x66), []byte{1, 2, 3, 4, 5})))

	b := saveToBytes(t, doc)
	loaded, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	require.NoError(t, err)

	assertEqualDocuments(t, doc, loaded)
	assert.Equal(t, "vault", loaded.Name())
	assert.Equal(t, "family accounts", loaded.Description())
}

func TestRoundTrip_SecondGeneration(t *testing.T) {
	doc := newTestDocument(t)
	e := NewTitledEntry("svc")
	require.NoError(t, e.SetPassword("pw"))
	require.NoError(t, doc.Entries().Add(e))

	b1 := saveToBytes(t, doc)
	gen1, err := Load(bytes.NewReader(b1), []byte("test-passphrase"))
	require.NoError(t, err)

	b2 := saveToBytes(t, gen1)
	gen2, err := Load(bytes.NewReader(b2), []byte("test-passphrase"))
	require.NoError(t, err)

	assertEqualDocuments(t, gen1, gen2)
}

func TestSave_FreshRandomnessPerSave(t *testing.T) {
	doc := newTestDocument(t)
	b1 := saveToBytes(t, doc)
	b2 := saveToBytes(t, doc)

	assert.NotEqual(t, b1[4:36], b2[4:36], "salt must be fresh")
	assert.NotEqual(t, b1[136:152], b2[136:152], "IV must be fresh")
	assert.NotEqual(t, b1[72:136], b2[72:136], "wrapped keys must be fresh")
}

func TestSave_IterationsPreservedAcrossLoad(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.SetIterations(3000))

	b := saveToBytes(t, doc)
	assert.Equal(t, uint32(3000), binary.LittleEndian.Uint32(b[36:40]))

	loaded, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	require.NoError(t, err)
	assert.Equal(t, uint32(3000), loaded.Iterations())
}

func TestLoad_WrongPassphrase(t *testing.T) {
	doc := newTestDocument(t)
	b := saveToBytes(t, doc)

	_, err := Load(bytes.NewReader(b), []byte("wrong"))
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestLoad_NilPassphrase(t *testing.T) {
	_, err := Load(bytes.NewReader(nil), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLoad_Truncated(t *testing.T) {
	doc := newTestDocument(t)
	b := saveToBytes(t, doc)

	_, err := Load(bytes.NewReader(b[:len(b)-1]), []byte("test-passphrase"))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)

	_, err = Load(bytes.NewReader(b[:100]), []byte("test-passphrase"))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestLoad_BadLeadingTag(t *testing.T) {
	doc := newTestDocument(t)
	b := saveToBytes(t, doc)
	b[0] ^= 0xFF

	_, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestLoad_TamperedBody(t *testing.T) {
	doc := newTestDocument(t)
	e := NewTitledEntry("svc")
	// a large notes payload keeps the flipped block (and its CBC
	// successor) inside value bytes, so framing survives and only the
	// MAC check can catch it
	require.NoError(t, e.SetNotes(strings.Repeat("n", 8192)))
	require.NoError(t, doc.Entries().Add(e))

	b := saveToBytes(t, doc)
	b[len(b)/2] ^= 0x01

	_, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	assert.ErrorIs(t, err, ErrAuthenticationMismatch)
}

func TestLoad_WrongPassphraseBeatsTampering(t *testing.T) {
	doc := newTestDocument(t)
	b := saveToBytes(t, doc)
	b[160] ^= 0x01

	_, err := Load(bytes.NewReader(b), []byte("wrong"))
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestSaveAs_ReKeys(t *testing.T) {
	doc := newTestDocument(t)
	var buf bytes.Buffer
	require.NoError(t, doc.SaveAs(&buf, []byte("rotated")))

	_, err := Load(bytes.NewReader(buf.Bytes()), []byte("test-passphrase"))
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	loaded, err := Load(bytes.NewReader(buf.Bytes()), []byte("rotated"))
	require.NoError(t, err)

	// the new passphrase is retained for subsequent saves
	b2 := saveToBytes(t, loaded)
	_, err = Load(bytes.NewReader(b2), []byte("rotated"))
	assert.NoError(t, err)
}

func TestLoadWithProgress_ReportsRange(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.SetIterations(200000))
	b := saveToBytes(t, doc)

	var reports []float64
	_, err := LoadWithProgress(bytes.NewReader(b), []byte("test-passphrase"),
		1, func(f float64) { reports = append(reports, f) })
	require.NoError(t, err)
	for _, f := range reports {
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 100.0)
	}
}

func TestSaveFileLoadFile(t *testing.T) {
	doc := newTestDocument(t)
	e := NewTitledEntry("disk")
	require.NoError(t, e.SetPassword("pw"))
	require.NoError(t, doc.Entries().Add(e))

	path := filepath.Join(t.TempDir(), "vault.psafe3")
	require.NoError(t, doc.SaveFile(path))

	loaded, err := LoadFile(path, []byte("test-passphrase"))
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Entries().Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.psafe3"), []byte("x"))
	assert.Error(t, err)
}

func TestSave_EmptyEntryGroupsSurvive(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.Entries().Add(NewEntry()))
	require.NoError(t, doc.Entries().Add(NewEntry()))

	b := saveToBytes(t, doc)
	loaded, err := Load(bytes.NewReader(b), []byte("test-passphrase"))
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Entries().Len())
}
