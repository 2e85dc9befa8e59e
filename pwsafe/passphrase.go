package pwsafe

import (
	"fmt"

	"github.com/dmitrijs2005/pwvault/internal/secret"
)

// obfuscatedSecret keeps the document passphrase masked at rest. This port
// targets platforms without a per-user key-protection facility, so the
// passphrase is XOR-masked with fresh random entropy per set. The weaker
// threat model covers accidental exposure (logs, swapped-out heap dumps)
// only; an attacker who can read both buffers recovers the passphrase.
type obfuscatedSecret struct {
	masked []byte
	mask   []byte
}

// newObfuscatedSecret captures a copy of plain under a fresh mask. The
// caller keeps ownership of plain.
func newObfuscatedSecret(plain []byte) (*obfuscatedSecret, error) {
	mask, err := secret.RandBytes(len(plain))
	if err != nil {
		return nil, fmt.Errorf("generating mask: %w", err)
	}
	masked := make([]byte, len(plain))
	for i := range plain {
		masked[i] = plain[i] ^ mask[i]
	}
	return &obfuscatedSecret{masked: masked, mask: mask}, nil
}

// reveal returns the passphrase in a fresh buffer. The caller must wipe it.
func (s *obfuscatedSecret) reveal() []byte {
	plain := make([]byte, len(s.masked))
	for i := range s.masked {
		plain[i] = s.masked[i] ^ s.mask[i]
	}
	return plain
}

// wipe destroys both stored buffers.
func (s *obfuscatedSecret) wipe() {
	secret.WipeAll(s.masked, s.mask)
	s.masked = nil
	s.mask = nil
}
