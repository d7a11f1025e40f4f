package problemgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/mathsheet/internal/worksheet"
)

// flexID accepts a string, a number or null.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// flexText accepts a string, a number, a boolean or null. Models emit
// numeric answers like "solution": 2 unquoted.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexText(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*f = flexText(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("text must be a string or number: %w", err)
		}
		*f = flexText(n.String())
	}
	return nil
}

// flexBool accepts a boolean, a quoted boolean, a number or null. Strings
// it cannot read as a boolean count as false.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = false
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, _ := strconv.ParseBool(strings.TrimSpace(s))
		*f = flexBool(v)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*f = flexBool(data[0] == 't')
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("flag must be a boolean: %w", err)
		}
		*f = n != 0
	}
	return nil
}

type topicRecord struct {
	ID          flexID `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type partRecord struct {
	ID         flexID   `json:"id"`
	Label      flexText `json:"label"`
	Content    flexText `json:"content"`
	HasImage   flexBool `json:"hasImage"`
	PythonCode string   `json:"pythonCode"`
	Solution   flexText `json:"solution"`
}

// questionRecord keeps its parts raw; each one is validated and decoded
// on its own.
type questionRecord struct {
	ID         flexID            `json:"id"`
	TopicID    flexID            `json:"topicId"`
	Content    flexText          `json:"content"`
	Difficulty string            `json:"difficulty"`
	HasImage   flexBool          `json:"hasImage"`
	PythonCode string            `json:"pythonCode"`
	Solution   flexText          `json:"solution"`
	Parts      []json.RawMessage `json:"parts"`
}

// idSet hands out ids that are unique within one batch. Missing or
// repeated ids (models often echo the placeholder) get a fresh uuid.
type idSet map[string]bool

func (s idSet) claim(id flexID) string {
	v := string(id)
	if v == "" || s[v] {
		v = uuid.NewString()
	}
	s[v] = true
	return v
}

func toTopic(r topicRecord, ids idSet) worksheet.Topic {
	return worksheet.Topic{
		ID:          ids.claim(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Selected:    true,
		Counts:      worksheet.SeedCounts(),
	}
}

func toQuestion(r questionRecord, parts []partRecord, ids idSet) worksheet.Question {
	return worksheet.Question{
		ID:         ids.claim(r.ID),
		TopicID:    string(r.TopicID),
		Content:    string(r.Content),
		Difficulty: normalizeDifficulty(r.Difficulty),
		HasImage:   bool(r.HasImage),
		PythonCode: SanitizeCode(r.PythonCode),
		Solution:   string(r.Solution),
		Parts:      toParts(parts),
	}
}

// normalizeDifficulty maps known labels and keys onto the fixed levels and
// keeps anything else verbatim.
func normalizeDifficulty(s string) worksheet.Difficulty {
	if d, err := worksheet.ParseDifficulty(s); err == nil {
		return d
	}
	return worksheet.Difficulty(strings.TrimSpace(s))
}

// toParts returns nil for an empty list. Labels are rewritten a), b), ...
// when any label is missing or repeated.
func toParts(records []partRecord) []worksheet.SubQuestion {
	if len(records) == 0 {
		return nil
	}

	ids := idSet{}
	labels := make(map[string]bool, len(records))
	relabel := false

	parts := make([]worksheet.SubQuestion, len(records))
	for i, r := range records {
		label := strings.TrimSpace(string(r.Label))
		if label == "" || labels[label] {
			relabel = true
		}
		labels[label] = true

		parts[i] = worksheet.SubQuestion{
			ID:         ids.claim(r.ID),
			Label:      label,
			Content:    string(r.Content),
			Solution:   string(r.Solution),
			HasImage:   bool(r.HasImage),
			PythonCode: SanitizeCode(r.PythonCode),
		}
	}

	if relabel {
		for i := range parts {
			parts[i].Label = partLabel(i)
		}
	}
	return parts
}

func partLabel(i int) string {
	if i < 26 {
		return string(rune('a'+i)) + ")"
	}
	return fmt.Sprintf("%d)", i+1)
}
