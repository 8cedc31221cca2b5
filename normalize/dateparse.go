package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Bare ISO dates are read as UTC midnight like Date.parse does, whatever the
// normalizer's location.
var utcLayouts = []string{
	"2006-01-02",
	"2006-01",
}

// parseDate reads the common textual date forms. Strings without a zone are
// read in loc. A trailing parenthesized zone name, as printed by
// JavaScript's Date.toString, is ignored when it gets in the way.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range utcLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return t, true
	}
	if i := strings.LastIndexByte(s, '('); i > 0 && strings.HasSuffix(s, ")") {
		if t, err := dateparse.ParseIn(strings.TrimSpace(s[:i]), loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
