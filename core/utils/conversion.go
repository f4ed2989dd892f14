package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInt parses s as a base-10 integer. Blank input yields fallback.
func ParseInt(s string, fallback int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return i, nil
}

// ParseBool accepts 1/0, true/false, yes/no and on/off in any case. Blank input yields fallback.
func ParseBool(s string, fallback bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return fallback, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// Redact masks a secret, keeping only whether it is set.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
