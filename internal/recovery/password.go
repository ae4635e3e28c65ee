package recovery

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/arkadym/sealbox/internal/common"
)

// Argon2id parameters. Password verification is a gate on key-recovery
// operations, so a fast hash is not acceptable here.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashPassword returns the password hash in the standard encoded form:
// $argon2id$v=19$m=...,t=...,p=...$salt$hash
func HashPassword(password string) (string, error) {
	salt := common.GenerateRandByteArray(argonSaltLen)
	sum := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum)), nil
}

// VerifyPassword checks a candidate against an encoded hash in constant
// time. Any failure, malformed hash included, is common.ErrAuthentication.
func VerifyPassword(encoded, candidate string) error {
	var version int
	var memory, timeCost uint32
	var threads uint8

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return common.ErrAuthentication
	}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return common.ErrAuthentication
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return common.ErrAuthentication
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return common.ErrAuthentication
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return common.ErrAuthentication
	}

	got := argon2.IDKey([]byte(candidate), salt, timeCost, memory, threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return common.ErrAuthentication
	}
	return nil
}
