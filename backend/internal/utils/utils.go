package utils

import (
	"os"
	"strconv"

	"github.com/gofrs/uuid"
)

// ParseID parses a positive integer identifier taken from a path or query.
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, strconv.ErrRange
	}
	return uint(id), nil
}

// IsValidCPF reports whether s is exactly eleven ASCII digits. Check digits
// are not verified.
func IsValidCPF(s string) bool {
	if len(s) != 11 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func IsValidUUID(s string) bool {
	_, err := uuid.FromString(s)
	return err == nil
}

func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}
