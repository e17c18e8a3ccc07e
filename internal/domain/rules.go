package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// namePattern allows ASCII letters, digits and CJK unified ideographs, 1 to 10 runes.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9\x{4e00}-\x{9fa5}]{1,10}$`)

// NormalizeName trims and NFC-normalizes a player name, then validates it.
func NormalizeName(raw string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(raw))
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, raw)
	}
	return name, nil
}

// TimeLimitSeconds is the per-question budget for a level: 40s at level 1,
// two seconds less per level, never below 10s. It is advisory only.
func TimeLimitSeconds(level int) int {
	limit := 40 - (level-1)*2
	if limit < 10 {
		return 10
	}
	return limit
}

// TimeLimit is TimeLimitSeconds as a duration.
func TimeLimit(level int) time.Duration {
	return time.Duration(TimeLimitSeconds(level)) * time.Second
}
