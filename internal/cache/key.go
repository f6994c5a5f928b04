package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// canonicalize serializes params with lexicographically sorted keys and
// string-coerced values, so semantically equal calls produce byte-equal
// keys (§3 CacheEntry).
func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// keyHash hashes the canonical (interface, params) pair into the filename
// stem used on disk.
func keyHash(interfaceName string, params map[string]string) string {
	canon := interfaceName + "\x00" + canonicalize(params)
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])
}
