// Package identity replaces raw individual identifiers with keyed hashes and
// links partners to the civil-servant roster before that replacement happens.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	dErrors "radar/pkg/domain-errors"
)

// HashIdentity returns HMAC-SHA256(salt, raw) as 64 lowercase hex characters.
// It is deterministic for a fixed (raw, salt) pair and cannot be reversed
// without brute-forcing the key. Callers must reject an empty salt before
// calling; see NewAnonymizer.
func HashIdentity(raw, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Anonymizer hashes raw identifiers with a fixed salt, once per distinct value.
type Anonymizer struct {
	salt string

	mu   sync.Mutex
	memo map[string]string
}

// NewAnonymizer fails closed: an empty or blank salt is a configuration error,
// never a silent unkeyed hash.
func NewAnonymizer(salt string) (*Anonymizer, error) {
	if strings.TrimSpace(salt) == "" {
		return nil, dErrors.New(dErrors.CodeConfig, "identity salt is required")
	}
	return &Anonymizer{salt: salt, memo: make(map[string]string)}, nil
}

// Hash returns the keyed hash of raw. An empty raw value stays empty so
// missing identifiers never collapse onto one shared hash.
func (a *Anonymizer) Hash(raw string) string {
	if raw == "" {
		return ""
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.memo[raw]; ok {
		return h
	}
	h := HashIdentity(raw, a.salt)
	a.memo[raw] = h
	return h
}

// Distinct reports how many distinct raw values were hashed.
func (a *Anonymizer) Distinct() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.memo)
}
