package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"net/url"
)

// HashString creates a SHA256 hash of s.
// This is useful for creating consistent, safe keys for Redis.
func HashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Fingerprint hashes an ordered list of parts into one key. Each part is
// length-prefixed, so ("ab", "c") and ("a", "bc") never share a fingerprint.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}
