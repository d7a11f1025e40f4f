package session

// Summary counts what the session currently holds.
type Summary struct {
	Files          int `json:"files"`
	Topics         int `json:"topics"`
	SelectedTopics int `json:"selectedTopics"`
	Requested      int `json:"requested"`
	Questions      int `json:"questions"`
	Diagrams       int `json:"diagrams"`
	Pending        int `json:"pending"`
}

// Summary returns current counts. Requested sums the counts of selected
// topics; Pending counts diagrams that are expected but not rendered.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Files:     len(s.files),
		Topics:    len(s.topics),
		Questions: len(s.questions),
	}
	for _, t := range s.topics {
		if t.Selected {
			sum.SelectedTopics++
			sum.Requested += t.Counts.Total()
		}
	}
	for i := range s.questions {
		q := &s.questions[i]
		if q.HasImage {
			sum.Diagrams++
			if q.Pending() {
				sum.Pending++
			}
		}
		for j := range q.Parts {
			if q.Parts[j].HasImage {
				sum.Diagrams++
				if q.Parts[j].Pending() {
					sum.Pending++
				}
			}
		}
	}
	return sum
}
