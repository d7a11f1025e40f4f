package worksheet

import (
	"fmt"
	"strings"
)

// Difficulty is one of the four fixed worksheet levels. The value is the
// display label used in prompts and exported documents.
type Difficulty string

const (
	Easy   Difficulty = "Dễ"
	Medium Difficulty = "Trung bình"
	Hard   Difficulty = "Khá"
	Expert Difficulty = "Khó"
)

// Difficulties returns all levels in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard, Expert}
}

// Key returns the English identifier of the level, used in API payloads
// and config files.
func (d Difficulty) Key() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	case Expert:
		return "expert"
	default:
		return string(d)
	}
}

// ParseDifficulty accepts either the display label or the English key.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	for _, d := range Difficulties() {
		if strings.EqualFold(s, string(d)) || strings.EqualFold(s, d.Key()) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Counts holds the requested number of questions per level.
type Counts map[Difficulty]int

// SeedCounts returns the counts assigned to a freshly analyzed topic.
func SeedCounts() Counts {
	return Counts{Easy: 1, Medium: 2, Hard: 1, Expert: 1}
}

// Set stores n for d, clamped to zero.
func (c Counts) Set(d Difficulty, n int) {
	c[d] = max(0, n)
}

// Total returns the sum over all levels.
func (c Counts) Total() int {
	total := 0
	for _, d := range Difficulties() {
		total += c[d]
	}
	return total
}

// Clone returns an independent copy.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	for d, n := range c {
		out[d] = n
	}
	return out
}

// Topic is a curriculum unit proposed by analysis.
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Selected    bool   `json:"selected"`
	Counts      Counts `json:"difficultyCounts"`
}

// Question is one generated worksheet item.
type Question struct {
	ID         string        `json:"id"`
	TopicID    string        `json:"topicId"`
	Content    string        `json:"content"`
	Difficulty Difficulty    `json:"difficulty"`
	HasImage   bool          `json:"hasImage"`
	PythonCode string        `json:"pythonCode,omitempty"`
	ImageData  string        `json:"imageData,omitempty"`
	Solution   string        `json:"solution,omitempty"`
	Parts      []SubQuestion `json:"parts,omitempty"`
}

// Pending reports whether a diagram is expected but not rendered.
func (q *Question) Pending() bool {
	return q.HasImage && q.ImageData == ""
}

// Part returns the part with the given id, or nil.
func (q *Question) Part(id string) *SubQuestion {
	for i := range q.Parts {
		if q.Parts[i].ID == id {
			return &q.Parts[i]
		}
	}
	return nil
}

// SubQuestion is a lettered part of a Question.
type SubQuestion struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Content    string `json:"content"`
	Solution   string `json:"solution,omitempty"`
	HasImage   bool   `json:"hasImage"`
	PythonCode string `json:"pythonCode,omitempty"`
	ImageData  string `json:"imageData,omitempty"`
}

// Pending reports whether a diagram is expected but not rendered.
func (p *SubQuestion) Pending() bool {
	return p.HasImage && p.ImageData == ""
}

// Category classifies an uploaded document.
type Category string

const (
	CategoryDistribution Category = "distribution"
	CategoryBank         Category = "bank"
)

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryDistribution:
		return CategoryDistribution, nil
	case CategoryBank:
		return CategoryBank, nil
	}
	return "", fmt.Errorf("unknown file category %q", s)
}

// FileData is an uploaded document. Immutable once created.
type FileData struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
}

// JoinContent concatenates the content of all files in the category,
// one per line.
func JoinContent(files []FileData, cat Category) string {
	var parts []string
	for _, f := range files {
		if f.Category == cat {
			parts = append(parts, f.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// ReferenceContext joins distribution files then bank files, one per line.
func ReferenceContext(files []FileData) string {
	var parts []string
	for _, cat := range []Category{CategoryDistribution, CategoryBank} {
		for _, f := range files {
			if f.Category == cat {
				parts = append(parts, f.Content)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// CloneTopics returns a deep copy of topics.
func CloneTopics(topics []Topic) []Topic {
	if topics == nil {
		return nil
	}
	out := make([]Topic, len(topics))
	for i, t := range topics {
		t.Counts = t.Counts.Clone()
		out[i] = t
	}
	return out
}

// CloneQuestions returns a deep copy of questions.
func CloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	out := make([]Question, len(questions))
	for i, q := range questions {
		if q.Parts != nil {
			q.Parts = append([]SubQuestion(nil), q.Parts...)
		}
		out[i] = q
	}
	return out
}
