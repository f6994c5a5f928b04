package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// argon2Params are the memory-hard KDF parameters baked into every newly
// hashed password. They are also encoded into the stored hash string so a
// future parameter change doesn't invalidate existing credentials.
type argon2Params struct {
	memoryKiB  uint32
	iterations uint32
	threads    uint8
	saltLen    uint32
	keyLen     uint32
}

var defaultParams = argon2Params{
	memoryKiB:  64 * 1024,
	iterations: 3,
	threads:    2,
	saltLen:    16,
	keyLen:     32,
}

// hashPassword derives an Argon2id hash of password under a fresh random
// salt, encoded as "$argon2id$v=19$m=...,t=...,p=...$salt$hash".
func hashPassword(password string) (string, error) {
	salt := make([]byte, defaultParams.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Internal("failed to generate salt", err)
	}
	key := argon2.IDKey([]byte(password), salt, defaultParams.iterations, defaultParams.memoryKiB, defaultParams.threads, defaultParams.keyLen)
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, defaultParams.memoryKiB, defaultParams.iterations, defaultParams.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
	return encoded, nil
}

// verifyPassword reports whether password matches the given encoded hash,
// comparing derived keys in constant time.
func verifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt, params.iterations, params.memoryKiB, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

// dummyHash is a fixed, validly-encoded hash used to pay the same KDF cost
// for unknown usernames as for wrong passwords, so the two are
// indistinguishable by response timing (§4.1 edge case).
var dummyHash string

func init() {
	h, err := hashPassword("dummy-password-for-timing-parity")
	if err != nil {
		panic(err)
	}
	dummyHash = h
}

func decodeHash(encoded string) (argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argon2Params{}, nil, nil, errors.Internal("malformed credential hash", nil)
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Params{}, nil, nil, errors.Internal("malformed credential hash version", err)
	}
	var params argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memoryKiB, &params.iterations, &params.threads); err != nil {
		return argon2Params{}, nil, nil, errors.Internal("malformed credential hash params", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Params{}, nil, nil, errors.Internal("malformed credential hash salt", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Params{}, nil, nil, errors.Internal("malformed credential hash key", err)
	}
	return params, salt, key, nil
}
