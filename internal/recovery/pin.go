package recovery

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"math/big"
	"time"

	"github.com/arkadym/sealbox/internal/common"
)

// PINLength is the number of characters in a reset PIN.
const PINLength = 5

// pinAlphabet avoids visually ambiguous characters (0/O, 1/I/l).
const pinAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GeneratePIN returns a fresh reset PIN from a wide alphabet.
func GeneratePIN() (string, error) {
	max := big.NewInt(int64(len(pinAlphabet)))
	buf := make([]byte, PINLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = pinAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// HashPIN returns the stored form of a PIN. The PIN's entropy is too low for
// a plain hash to resist offline guessing, but the stored hash only gates an
// online, rate-limited, expiring check.
func HashPIN(pin string) []byte {
	sum := sha256.Sum256([]byte(pin))
	return sum[:]
}

// CheckPIN validates a candidate against the stored hash and expiry.
// An expired-but-correct PIN fails with ErrPINExpired; a wrong PIN with
// ErrAuthentication. The match is checked before expiry so the two cases
// stay distinguishable to the caller, as the UX needs.
func CheckPIN(storedHash []byte, expiresAt time.Time, candidate string, now time.Time) error {
	if subtle.ConstantTimeCompare(storedHash, HashPIN(candidate)) != 1 {
		return common.ErrAuthentication
	}
	if !now.Before(expiresAt) {
		return common.ErrPINExpired
	}
	return nil
}
