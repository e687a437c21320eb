package printing

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
)

// CacheKey identifies a rendered artifact: what was rendered, and how.
type CacheKey string

// String returns the hex form
func (k CacheKey) String() string { return string(k) }

// DeriveCacheKey hashes the fingerprint together with the canonical form of
// opts. Option order never affects the key. opts is not validated here.
func DeriveCacheKey(fp Fingerprint, opts RenderOptions) CacheKey {
	h := sha256.New()
	h.Write(canonicalOptions(fp, opts))
	return CacheKey(hex.EncodeToString(h.Sum(nil)))
}

// canonicalOptions serializes names in sorted order. Every field is length
// prefixed so that no two distinct inputs share a byte sequence.
func canonicalOptions(fp Fingerprint, opts RenderOptions) []byte {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := make([]byte, 0, 64+len(opts)*24)
	buf = appendField(buf, string(fp))
	for _, name := range names {
		buf = appendField(buf, name)
		buf = appendField(buf, opts[name])
	}
	return buf
}

func appendField(buf []byte, s string) []byte {
	buf = strconv.AppendInt(buf, int64(len(s)), 10)
	buf = append(buf, ':')
	return append(buf, s...)
}
