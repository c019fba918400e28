package utils

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyHashPrefix marks hashes stored by the old app as a hex-escaped bytea
// literal ("\x2432622431..." for "$2b$1...").
const legacyHashPrefix = `\x`

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain password against a stored bcrypt hash in
// either the current or the legacy hex-escaped format.
func CheckPassword(password, storedHash string) bool {
	hash, ok := NormalizePasswordHash(storedHash)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsLegacyPasswordHash reports whether the stored hash is hex-escaped.
func IsLegacyPasswordHash(storedHash string) bool {
	return strings.HasPrefix(storedHash, legacyHashPrefix)
}

// NormalizePasswordHash turns a legacy hex-escaped hash into the plain bcrypt
// string. Current hashes are returned unchanged.
func NormalizePasswordHash(storedHash string) (string, bool) {
	if !IsLegacyPasswordHash(storedHash) {
		return storedHash, storedHash != ""
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(storedHash, legacyHashPrefix))
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}
