package session

import (
	"context"

	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

// Analyze proposes topics from the uploaded documents and the manual
// topic. The topic list is replaced with the result, which is empty when
// analysis fails.
func (s *Session) Analyze(ctx context.Context) ([]worksheet.Topic, error) {
	s.mu.Lock()
	gen, err := s.generatorLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	in := problemgen.TopicPromptInput{
		Distribution: worksheet.JoinContent(s.files, worksheet.CategoryDistribution),
		Bank:         worksheet.JoinContent(s.files, worksheet.CategoryBank),
		ManualTopic:  s.manualTopic,
	}
	s.mu.Unlock()

	topics, err := gen.Analyze(ctx, in)
	if err != nil {
		s.logger.Warn("topic analysis failed", "error", err)
	}

	s.mu.Lock()
	s.topics = topics
	out := worksheet.CloneTopics(topics)
	s.mu.Unlock()

	s.events.emit(Event{Kind: EventTopicsUpdated})
	return out, err
}

// Topics returns a copy of the topic list.
func (s *Session) Topics() []worksheet.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return worksheet.CloneTopics(s.topics)
}

// SetSelected includes or excludes a topic from generation.
func (s *Session) SetSelected(id string, selected bool) error {
	return s.updateTopic(id, func(t *worksheet.Topic) {
		t.Selected = selected
	})
}

// ToggleTopic flips a topic's selection.
func (s *Session) ToggleTopic(id string) error {
	return s.updateTopic(id, func(t *worksheet.Topic) {
		t.Selected = !t.Selected
	})
}

// SetCount sets the number of questions requested for one level. Negative
// values are stored as zero.
func (s *Session) SetCount(id string, d worksheet.Difficulty, n int) error {
	return s.updateTopic(id, func(t *worksheet.Topic) {
		if t.Counts == nil {
			t.Counts = worksheet.Counts{}
		}
		t.Counts.Set(d, n)
	})
}

func (s *Session) updateTopic(id string, fn func(*worksheet.Topic)) error {
	s.mu.Lock()
	var found bool
	for i := range s.topics {
		if s.topics[i].ID == id {
			fn(&s.topics[i])
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return ErrNotFound
	}
	s.events.emit(Event{Kind: EventTopicsUpdated})
	return nil
}
