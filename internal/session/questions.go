package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

// Generate replaces the question list with a new set for the selected
// topics and the manual topic. The list is cleared before the call and
// stored as soon as the model answers; diagrams are filled in as their
// renders settle and Generate returns once all have.
func (s *Session) Generate(ctx context.Context) ([]worksheet.Question, error) {
	s.mu.Lock()
	gen, err := s.generatorLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.questions = nil
	s.generation++
	s.redraws = nil
	round := s.generation
	in := problemgen.QuestionPromptInput{
		Topics:      worksheet.CloneTopics(s.topics),
		ManualTopic: s.manualTopic,
		Context:     worksheet.ReferenceContext(s.files),
	}
	s.mu.Unlock()
	s.events.emit(Event{Kind: EventQuestionsUpdated})

	drafted, err := gen.Draft(ctx, in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generation == round {
		s.questions = worksheet.CloneQuestions(drafted)
	}
	s.mu.Unlock()
	s.events.emit(Event{Kind: EventQuestionsUpdated})

	gen.Observe(func(ev problemgen.RenderEvent) {
		s.applyRender(round, ev)
	}).RenderAll(ctx, drafted)

	return drafted, nil
}

func (s *Session) applyRender(round int, ev problemgen.RenderEvent) {
	s.mu.Lock()
	current := s.generation == round && s.redraws[itemKey{ev.QuestionID, ev.PartID}] == 0
	if current && ev.OK {
		s.setImageLocked(ev.QuestionID, ev.PartID, ev.ImageData)
	}
	s.mu.Unlock()

	if current {
		s.events.emit(Event{
			Kind:       EventImageRendered,
			QuestionID: ev.QuestionID,
			PartID:     ev.PartID,
			ImageData:  ev.ImageData,
		})
	}
}

// Questions returns a copy of the question list.
func (s *Session) Questions() []worksheet.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return worksheet.CloneQuestions(s.questions)
}

// Redraw revises one diagram following a free-form instruction. partID
// selects a part of the question; empty means the question's own diagram.
// An item without plotting code or a blank instruction is left alone and
// Redraw reports false. On failure the previous code and image are put
// back.
func (s *Session) Redraw(ctx context.Context, questionID, partID, instruction string) (bool, error) {
	s.mu.Lock()
	item, err := s.itemLocked(questionID, partID)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if item.code == "" || strings.TrimSpace(instruction) == "" {
		s.mu.Unlock()
		return false, nil
	}
	gen, err := s.generatorLocked()
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	prev := item
	key := itemKey{questionID, partID}
	if s.redraws == nil {
		s.redraws = make(map[itemKey]int)
	}
	s.redraws[key]++
	turn := redrawTurn{round: s.generation, key: key, seq: s.redraws[key]}
	s.setImageLocked(questionID, partID, "")
	s.mu.Unlock()
	s.events.emit(Event{Kind: EventImageCleared, QuestionID: questionID, PartID: partID})

	code, err := gen.FixImage(ctx, problemgen.ImageFixInput{
		Code:        prev.code,
		Content:     prev.content,
		Instruction: instruction,
	})
	if err != nil {
		s.settle(turn, prev.code, prev.image)
		return false, err
	}

	img, ok := gen.Render(ctx, code)
	if !ok {
		s.settle(turn, prev.code, prev.image)
		return false, ErrRenderFailed
	}

	s.settle(turn, code, img)
	return true, nil
}

// itemKey names a question's own diagram (empty part) or one part's.
type itemKey struct {
	question string
	part     string
}

// redrawTurn identifies one Redraw call on one item.
type redrawTurn struct {
	round int
	key   itemKey
	seq   int
}

// settle stores the outcome of a redraw, either the new code and image
// or the ones it replaced. It is a no-op if the list was regenerated or
// a newer redraw of the same item started meanwhile.
func (s *Session) settle(turn redrawTurn, code, img string) {
	s.mu.Lock()
	current := s.generation == turn.round && s.redraws[turn.key] == turn.seq
	if current {
		s.setCodeLocked(turn.key.question, turn.key.part, code)
		s.setImageLocked(turn.key.question, turn.key.part, img)
	}
	s.mu.Unlock()

	if current {
		s.events.emit(Event{Kind: EventImageRendered, QuestionID: turn.key.question, PartID: turn.key.part, ImageData: img})
	}
}

// drawable is the redraw-relevant view of a question or part.
type drawable struct {
	code    string
	content string
	image   string
}

func (s *Session) itemLocked(questionID, partID string) (drawable, error) {
	q := s.questionLocked(questionID)
	if q == nil {
		return drawable{}, fmt.Errorf("question %s: %w", questionID, ErrNotFound)
	}
	if partID == "" {
		return drawable{code: q.PythonCode, content: q.Content, image: q.ImageData}, nil
	}
	p := q.Part(partID)
	if p == nil {
		return drawable{}, fmt.Errorf("part %s of question %s: %w", partID, questionID, ErrNotFound)
	}
	return drawable{code: p.PythonCode, content: p.Content, image: p.ImageData}, nil
}

func (s *Session) questionLocked(id string) *worksheet.Question {
	for i := range s.questions {
		if s.questions[i].ID == id {
			return &s.questions[i]
		}
	}
	return nil
}

func (s *Session) setImageLocked(questionID, partID, img string) bool {
	q := s.questionLocked(questionID)
	if q == nil {
		return false
	}
	if partID == "" {
		q.ImageData = img
		return true
	}
	if p := q.Part(partID); p != nil {
		p.ImageData = img
		return true
	}
	return false
}

func (s *Session) setCodeLocked(questionID, partID, code string) {
	q := s.questionLocked(questionID)
	if q == nil {
		return
	}
	if partID == "" {
		q.PythonCode = code
		return
	}
	if p := q.Part(partID); p != nil {
		p.PythonCode = code
	}
}
