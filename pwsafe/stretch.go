package pwsafe

import (
	"crypto/sha256"
	"time"

	"github.com/dmitrijs2005/pwvault/internal/secret"
)

// minIterations is the smallest key-stretch iteration count ever written.
// Containers carrying a lower value are still honored on read.
const minIterations = 2048

// stretchKey derives the stretched key: SHA-256 of passphrase||salt, then
// iterations further SHA-256 rounds. This is the scheme the V3 format
// prescribes, not PBKDF2.
//
// Databases with high iteration counts can take a while; if every > 0 and
// progress != nil, progress is invoked with a value in [0,100] at that
// interval. The returned 32-byte buffer must be wiped by the caller.
func stretchKey(passphrase, salt []byte, iterations uint32, every time.Duration, progress func(float64)) []byte {
	seed := make([]byte, 0, len(passphrase)+len(salt))
	seed = append(seed, passphrase...)
	seed = append(seed, salt...)
	sum := sha256.Sum256(seed)
	secret.Wipe(seed)

	var ticks <-chan time.Time
	if every > 0 && progress != nil {
		t := time.NewTicker(every)
		defer t.Stop()
		ticks = t.C
	}

	for i := uint32(0); i < iterations; {
		select {
		case <-ticks:
			progress(float64(i) * 100 / float64(iterations))
		default:
			sum = sha256.Sum256(sum[:])
			i++
		}
	}

	out := make([]byte, sha256.Size)
	copy(out, sum[:])
	secret.Wipe(sum[:])
	return out
}

// makeVerifier returns the passphrase verifier stored in the container:
// the SHA-256 of the stretched key.
func makeVerifier(stretched []byte) []byte {
	sum := sha256.Sum256(stretched)
	return sum[:]
}
