package pwsafe

import (
	"context"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/dmitrijs2005/pwvault/internal/secret"
	"golang.org/x/crypto/twofish"
)

// V3 container framing. Both tag words are read and written as
// little-endian 32-bit values.
const (
	tagWord uint32 = 0x33535750 // "PWS3"
	eofWord uint32 = 0x464F452D // "-EOF"

	// preambleLength covers tag, salt, iterations, verifier, wrapped keys
	// and the CBC IV; trailerLength covers the four EOF tag words and the
	// HMAC.
	preambleLength = 4 + 32 + 4 + 32 + 32 + 32 + 16
	trailerLength  = 16 + 32

	minContainerLength = 200
)

// fieldBlockSize returns the encoded size of a field block carrying
// valueLen value bytes. The type byte counts as a fifth length-header byte
// and the block is always padded into the next 16-byte boundary, so a block
// never ends exactly on one.
func fieldBlockSize(valueLen int) int {
	return ((valueLen+5)/twofish.BlockSize + 1) * twofish.BlockSize
}

// Loader reads V3 containers. The zero value is ready to use; the optional
// fields add diagnostics and progress reporting for slow key stretches.
type Loader struct {
	// Logger receives debug diagnostics such as unknown field types.
	Logger Logger

	// ProgressInterval and ProgressFunc mirror the key-stretch progress
	// callback: when both are set, ProgressFunc is invoked with a value in
	// [0,100] every ProgressInterval while deriving the key.
	ProgressInterval time.Duration
	ProgressFunc     func(float64)
}

// Load reads an entire V3 container from r and returns the decrypted
// document. The passphrase is captured (obfuscated) for subsequent saves;
// the caller keeps ownership of its own buffer.
func Load(r io.Reader, passphrase []byte) (*Document, error) {
	return (&Loader{}).Load(r, passphrase)
}

// LoadWithProgress behaves like Load with a periodic key-stretch progress
// callback.
func LoadWithProgress(r io.Reader, passphrase []byte, every time.Duration, progress func(float64)) (*Document, error) {
	return (&Loader{ProgressInterval: every, ProgressFunc: progress}).Load(r, passphrase)
}

// LoadFile reads the container at path.
func LoadFile(path string, passphrase []byte) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}
	defer f.Close()
	return Load(f, passphrase)
}

// Load reads an entire V3 container from r using the loader's hooks.
func (l *Loader) Load(r io.Reader, passphrase []byte) (*Document, error) {
	if passphrase == nil {
		return nil, fmt.Errorf("nil passphrase: %w", ErrInvalidArgument)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading container: %w", err)
	}
	return l.decode(raw, passphrase)
}

func (l *Loader) decode(raw, passphrase []byte) (*Document, error) {
	log := l.Logger
	if log == nil {
		log = NopLogger()
	}
	le := binary.LittleEndian

	n := len(raw)
	if n < minContainerLength {
		return nil, fmt.Errorf("container is %d bytes: %w", n, ErrUnrecognizedFormat)
	}
	if le.Uint32(raw[0:4]) != tagWord ||
		le.Uint32(raw[n-48:n-44]) != tagWord ||
		le.Uint32(raw[n-44:n-40]) != eofWord ||
		le.Uint32(raw[n-40:n-36]) != tagWord ||
		le.Uint32(raw[n-36:n-32]) != eofWord {
		return nil, fmt.Errorf("missing container tags: %w", ErrUnrecognizedFormat)
	}

	salt := raw[4:36]
	iter := le.Uint32(raw[36:40])

	stretched := stretchKey(passphrase, salt, iter, l.ProgressInterval, l.ProgressFunc)
	defer secret.Wipe(stretched)
	if subtle.ConstantTimeCompare(makeVerifier(stretched), raw[40:72]) != 1 {
		return nil, ErrPasswordMismatch
	}

	kek, err := twofish.NewCipher(stretched)
	if err != nil {
		return nil, fmt.Errorf("initializing key-wrap cipher: %w", err)
	}
	keyK := make([]byte, 32)
	keyL := make([]byte, 32)
	defer secret.WipeAll(keyK, keyL)
	kek.Decrypt(keyK[:16], raw[72:88])
	kek.Decrypt(keyK[16:], raw[88:104])
	kek.Decrypt(keyL[:16], raw[104:120])
	kek.Decrypt(keyL[16:], raw[120:136])
	iv := raw[136:152]

	body := raw[preambleLength : n-trailerLength]
	if len(body)%twofish.BlockSize != 0 {
		return nil, fmt.Errorf("body is %d bytes: %w", len(body), ErrUnrecognizedFormat)
	}
	bodyCipher, err := twofish.NewCipher(keyK)
	if err != nil {
		return nil, fmt.Errorf("initializing body cipher: %w", err)
	}
	plain := make([]byte, len(body))
	defer secret.Wipe(plain)
	cipher.NewCBCDecrypter(bodyCipher, iv).CryptBlocks(plain, body)

	// The HMAC covers only the value bytes of each field, never length,
	// type, or padding.
	mac := hmac.New(sha256.New, keyL)

	doc := newEmptyDocument()
	doc.log = log
	doc.iterations = iter

	off := 0
	first := true
	for {
		typ, value, next, err := decodeFieldAt(plain, off)
		if err != nil {
			return nil, err
		}
		off = next
		mac.Write(value)

		if first {
			if HeaderType(typ) != HeaderVersion {
				return nil, fmt.Errorf("first header is %#02x, not version: %w", typ, ErrUnsupportedVersion)
			}
			if len(value) != 2 {
				return nil, fmt.Errorf("version payload is %d bytes: %w", len(value), ErrBadFieldWidth)
			}
			if v := le.Uint16(value); v < 0x0300 {
				return nil, fmt.Errorf("format version %#04x: %w", v, ErrUnsupportedVersion)
			}
			first = false
		}

		ht := HeaderType(typ)
		if ht == HeaderEndOfEntry {
			break
		}
		if !knownHeaderType(ht) {
			log.Debug(context.Background(), "unknown header field", "type", fmt.Sprintf("%#02x", typ), "len", len(value))
		}
		h := &Header{typ: ht}
		h.owner = doc.headers
		h.raw = append([]byte(nil), value...)
		doc.headers.items = append(doc.headers.items, h)
	}

	var current []*Record
	for off < len(plain) {
		typ, value, next, err := decodeFieldAt(plain, off)
		if err != nil {
			return nil, err
		}
		off = next
		mac.Write(value)

		rt := RecordType(typ)
		if rt == RecordEndOfEntry {
			doc.appendParsedEntry(current)
			current = nil
			continue
		}
		if !knownRecordType(rt) {
			log.Debug(context.Background(), "unknown record field", "type", fmt.Sprintf("%#02x", typ), "len", len(value))
		}
		current = append(current, NewRecord(rt, value))
	}
	if len(current) > 0 {
		doc.appendParsedEntry(current)
	}

	if !hmac.Equal(mac.Sum(nil), raw[n-32:]) {
		return nil, ErrAuthenticationMismatch
	}

	pass, err := newObfuscatedSecret(passphrase)
	if err != nil {
		return nil, fmt.Errorf("protecting passphrase: %w", err)
	}
	doc.pass = pass
	doc.hasChanged = false
	return doc, nil
}

func (d *Document) appendParsedEntry(records []*Record) {
	e := newEntryFromRecords(records)
	e.owner = d.entries
	d.entries.items = append(d.entries.items, e)
}

// decodeFieldAt reads one field block from plain at off. The returned value
// aliases plain; callers copy what they retain.
func decodeFieldAt(plain []byte, off int) (typ uint8, value []byte, next int, err error) {
	if off+5 > len(plain) {
		return 0, nil, 0, fmt.Errorf("truncated field header: %w", ErrUnrecognizedFormat)
	}
	length := binary.LittleEndian.Uint32(plain[off : off+4])
	typ = plain[off+4]
	if uint64(length) > uint64(len(plain)-off-5) {
		return 0, nil, 0, fmt.Errorf("truncated field value: %w", ErrUnrecognizedFormat)
	}
	value = plain[off+5 : off+5+int(length)]
	next = off + fieldBlockSize(int(length))
	if next > len(plain) {
		return 0, nil, 0, fmt.Errorf("truncated field padding: %w", ErrUnrecognizedFormat)
	}
	return typ, value, next, nil
}

// Save encrypts the document to w under the passphrase captured at
// construction or load. The changed flag is cleared only after a clean
// save; on error the writer may hold partial bytes.
func (d *Document) Save(w io.Writer) error {
	if d.pass == nil {
		return fmt.Errorf("document is closed: %w", ErrInvalidArgument)
	}
	pass := d.pass.reveal()
	defer secret.Wipe(pass)
	return d.save(w, pass)
}

// SaveAs re-keys the document to the given passphrase, then saves. The
// passphrase is retained for later saves.
func (d *Document) SaveAs(w io.Writer, passphrase []byte) error {
	if err := d.SetPassphrase(passphrase); err != nil {
		return err
	}
	return d.Save(w)
}

// SaveFile writes the container to path.
func (d *Document) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}
	if err := d.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Document) save(w io.Writer, pass []byte) error {
	if !d.readOnly && d.trackModify {
		d.headers.setTimeQuiet(HeaderTimestampOfLastSave, d.now())
		d.headers.setTextQuiet(HeaderWhatPerformedLastSave, fmt.Sprintf("%s V%s", libraryName, Version))
		d.headers.setTextQuiet(HeaderLastSavedByUser, os.Getenv("USER"))
		d.headers.setTextQuiet(HeaderLastSavedOnHost, saveHostname())
	}

	le := binary.LittleEndian
	out := &stickyWriter{w: w}

	salt, err := secret.RandBytes(32)
	if err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}
	iter := d.iterations
	if iter < minIterations {
		iter = minIterations
	}

	var word [4]byte
	le.PutUint32(word[:], tagWord)
	out.Write(word[:])
	out.Write(salt)
	var iterBuf [4]byte
	le.PutUint32(iterBuf[:], iter)
	out.Write(iterBuf[:])

	stretched := stretchKey(pass, salt, iter, 0, nil)
	defer secret.Wipe(stretched)
	out.Write(makeVerifier(stretched))

	kek, err := twofish.NewCipher(stretched)
	if err != nil {
		return fmt.Errorf("initializing key-wrap cipher: %w", err)
	}
	keyK, err := secret.RandBytes(32)
	if err != nil {
		return fmt.Errorf("generating encryption key: %w", err)
	}
	defer secret.Wipe(keyK)
	keyL, err := secret.RandBytes(32)
	if err != nil {
		return fmt.Errorf("generating authentication key: %w", err)
	}
	defer secret.Wipe(keyL)

	wrapped := make([]byte, 32)
	kek.Encrypt(wrapped[:16], keyK[:16])
	kek.Encrypt(wrapped[16:], keyK[16:])
	out.Write(wrapped)
	kek.Encrypt(wrapped[:16], keyL[:16])
	kek.Encrypt(wrapped[16:], keyL[16:])
	out.Write(wrapped)

	iv, err := secret.RandBytes(twofish.BlockSize)
	if err != nil {
		return fmt.Errorf("generating IV: %w", err)
	}
	out.Write(iv)

	bodyCipher, err := twofish.NewCipher(keyK)
	if err != nil {
		return fmt.Errorf("initializing body cipher: %w", err)
	}
	enc := cipher.NewCBCEncrypter(bodyCipher, iv)
	mac := hmac.New(sha256.New, keyL)

	for _, h := range d.headers.items {
		if err := emitField(out, enc, mac, uint8(h.typ), h.raw); err != nil {
			return err
		}
	}
	if err := emitField(out, enc, mac, uint8(HeaderEndOfEntry), nil); err != nil {
		return err
	}
	for _, e := range d.entries.items {
		for _, r := range e.records.items {
			if err := emitField(out, enc, mac, uint8(r.typ), r.raw); err != nil {
				return err
			}
		}
		if err := emitField(out, enc, mac, uint8(RecordEndOfEntry), nil); err != nil {
			return err
		}
	}

	for _, wv := range [4]uint32{tagWord, eofWord, tagWord, eofWord} {
		le.PutUint32(word[:], wv)
		out.Write(word[:])
	}
	out.Write(mac.Sum(nil))

	if out.err != nil {
		return fmt.Errorf("writing container: %w", out.err)
	}
	d.hasChanged = false
	return nil
}

// emitField writes one encrypted field block: length, type, value, random
// padding into the next 16-byte boundary. Only the value bytes feed the
// HMAC. The plaintext block is wiped before returning.
func emitField(out *stickyWriter, enc cipher.BlockMode, mac io.Writer, typ uint8, value []byte) error {
	if uint64(len(value)) > math.MaxUint32 {
		return fmt.Errorf("field value is %d bytes: %w", len(value), ErrInvalidArgument)
	}
	size := fieldBlockSize(len(value))
	block := make([]byte, size)
	defer secret.Wipe(block)
	binary.LittleEndian.PutUint32(block[0:4], uint32(len(value)))
	block[4] = typ
	copy(block[5:], value)
	pad, err := secret.RandBytes(size - 5 - len(value))
	if err != nil {
		return fmt.Errorf("generating padding: %w", err)
	}
	copy(block[5+len(value):], pad)

	mac.Write(value)
	enc.CryptBlocks(block, block)
	out.Write(block)
	return nil
}

func saveHostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return os.Getenv("HOSTNAME")
}

// stickyWriter swallows writes after the first failure so the emit path
// can stay linear.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (sw *stickyWriter) Write(p []byte) {
	if sw.err == nil {
		_, sw.err = sw.w.Write(p)
	}
}
