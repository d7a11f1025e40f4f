package problemgen

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

var (
	jsonFenceOpen = regexp.MustCompile("```json\\s*")
	fenceAny      = regexp.MustCompile("```\\s*")
)

// ParseRecords extracts a JSON array of records from model output.
// It never fails: fences are stripped, one repair pass doubles stray
// backslashes, and anything still unparseable yields an empty slice.
// A top-level value that is not an array also yields an empty slice.
func ParseRecords(text string) []json.RawMessage {
	return parseRecords(text, slog.Default())
}

func parseRecords(text string, logger *slog.Logger) []json.RawMessage {
	cleaned := stripJSONFences(text)

	raw, err := decodeTop(cleaned)
	if err != nil {
		repaired := repairEscapes(cleaned)
		raw, err = decodeTop(repaired)
		if err != nil {
			logger.Warn("response is not valid JSON after repair",
				"error", err,
				"original", text,
				"repaired", repaired)
			return []json.RawMessage{}
		}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return []json.RawMessage{}
	}
	if records == nil {
		return []json.RawMessage{}
	}
	return records
}

func stripJSONFences(text string) string {
	s := jsonFenceOpen.ReplaceAllString(text, "")
	s = fenceAny.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func decodeTop(s string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// repairEscapes doubles every backslash that does not begin a valid JSON
// escape. Valid escapes are consumed as a pair so an existing "\\" is
// left alone.
func repairEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
				i++
				continue
			case 'u':
				if i+5 < len(s) && isHex4(s[i+2:i+6]) {
					b.WriteString(s[i : i+6])
					i += 5
					continue
				}
			}
		}
		b.WriteString(`\\`)
	}
	return b.String()
}

func isHex4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
