// Package recovery implements the mnemonic-based account recovery
// primitives: wrapping-key derivation from a 10-word phrase, authenticated
// field encryption for vault-held private material, the Argon2id password
// verifier, and the short-lived reset PIN.
package recovery

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// MnemonicWords is the number of words in a recovery phrase.
const MnemonicWords = 10

// WrappingKeySize is the derived key length.
const WrappingKeySize = 32

// pbkdf2Iterations matches the derivation cost used by existing clients;
// changing it invalidates every stored recovery blob.
const pbkdf2Iterations = 100_000

// legacySalt is the fixed salt records created before per-user salts used.
// New derivations must always pass the user's own salt.
var legacySalt = []byte("sealbox-recovery-v1")

// wordlist is intentionally small and unambiguous; 10 draws from 512 words
// give 90 bits of phrase entropy before key stretching.
var wordlist = strings.Fields(wordlistRaw)

// GenerateMnemonic returns a fresh phrase, never persisted anywhere.
func GenerateMnemonic() ([]string, error) {
	words := make([]string, MnemonicWords)
	max := big.NewInt(int64(len(wordlist)))
	for i := range words {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, err
		}
		words[i] = wordlist[n.Int64()]
	}
	return words, nil
}

// DeriveWrappingKey stretches a mnemonic into a 32-byte wrapping key with
// PBKDF2-SHA256 and the user's recovery salt. Deterministic for a given
// phrase and salt.
func DeriveWrappingKey(words []string, salt []byte) []byte {
	if len(salt) == 0 {
		salt = legacySalt
	}
	phrase := strings.Join(words, " ")
	return pbkdf2.Key([]byte(phrase), salt, pbkdf2Iterations, WrappingKeySize, sha256.New)
}
