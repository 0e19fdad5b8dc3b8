package vertrans

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// fingerprintLen is the maximum length of the base-36 hash part.
const fingerprintLen = 12

// timestampLayout is the normalized modified-timestamp format.
const timestampLayout = "20060102150405"

// modifiedLayouts are the timestamp formats recognized in string input.
var modifiedLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	timestampLayout,
}

// RollingHash computes the 32-bit multiplicative rolling hash used for
// version fingerprints: h = h*31 + c over the UTF-16 code units of s, with
// signed 32-bit wraparound. The browser widget computes the same value with
// ((h << 5) - h + s.charCodeAt(i)) | 0; both sides must stay in lockstep.
func RollingHash(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(unit)
	}
	return h
}

// HashBase36 returns the absolute value of the rolling hash of s in
// lower-case base 36, truncated to 12 characters.
func HashBase36(s string) string {
	h := int64(RollingHash(s))
	if h < 0 {
		h = -h
	}
	encoded := strconv.FormatInt(h, 36)
	if len(encoded) > fingerprintLen {
		encoded = encoded[:fingerprintLen]
	}
	return encoded
}

// NormalizeTimestamp renders a modified timestamp as YYYYMMDDHHMMSS when it
// parses as a known layout, and returns the trimmed input otherwise.
// Fractional seconds are dropped and no time zone conversion is applied.
func NormalizeTimestamp(modified string) string {
	trimmed := strings.TrimSpace(modified)
	for _, layout := range modifiedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(timestampLayout)
		}
	}
	return trimmed
}

// VersionID derives the version fingerprint of a record from its type, id
// and modified timestamp. The result is "<recordID>_<hash>".
func VersionID(recordType, recordID, modified string) (string, error) {
	if strings.TrimSpace(recordType) == "" {
		return "", &ValidationError{Field: "record_type", Message: "cannot be blank"}
	}
	if strings.TrimSpace(recordID) == "" {
		return "", &ValidationError{Field: "record_id", Message: "cannot be blank"}
	}
	ts := NormalizeTimestamp(modified)
	if ts == "" {
		return "", &ValidationError{Field: "modified", Message: "cannot be blank"}
	}
	return versionID(recordType, recordID, ts), nil
}

// VersionIDFromTime is VersionID for a structured timestamp.
func VersionIDFromTime(recordType, recordID string, modified time.Time) (string, error) {
	if modified.IsZero() {
		return "", &ValidationError{Field: "modified", Message: "cannot be zero"}
	}
	return VersionID(recordType, recordID, modified.Format(timestampLayout))
}

func versionID(recordType, recordID, normalized string) string {
	return recordID + "_" + HashBase36(recordType+"_"+recordID+"_"+normalized)
}
