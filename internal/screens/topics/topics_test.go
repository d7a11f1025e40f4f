package topics

import (
	"context"
	"encoding/json"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/screen"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

func analyzed(t *testing.T) *session.Session {
	t.Helper()
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`[{"id": "t1", "name": "Hàm số", "description": "Khảo sát hàm số"}, {"id": "t2", "name": "Logarit"}]`),
	})
	sess := session.New(problemgen.New(mock, nil, problemgen.DefaultConfig()))
	_, err := sess.Analyze(context.Background())
	require.NoError(t, err)
	return sess
}

func press(s *TopicsScreen, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyPressMsg
		switch k {
		case "down":
			msg = tea.KeyPressMsg{Code: tea.KeyDown}
		case "up":
			msg = tea.KeyPressMsg{Code: tea.KeyUp}
		case "right":
			msg = tea.KeyPressMsg{Code: tea.KeyRight}
		case "left":
			msg = tea.KeyPressMsg{Code: tea.KeyLeft}
		default:
			r := []rune(k)[0]
			msg = tea.KeyPressMsg{Code: r, Text: k}
		}
		s.Update(msg)
	}
}

func TestToggleSelection(t *testing.T) {
	sess := analyzed(t)
	s := New(sess)

	press(s, "down", "x")
	topics := sess.Topics()
	assert.True(t, topics[0].Selected)
	assert.False(t, topics[1].Selected)

	press(s, "x")
	assert.True(t, sess.Topics()[1].Selected)
}

func TestAdjustCounts(t *testing.T) {
	sess := analyzed(t)
	s := New(sess)

	press(s, "right", "right", "+", "+")
	assert.Equal(t, 3, sess.Topics()[0].Counts[worksheet.Hard])

	press(s, "left", "left", "-", "-", "-")
	assert.Equal(t, 0, sess.Topics()[0].Counts[worksheet.Easy])
}

func TestCursorStaysInRange(t *testing.T) {
	sess := analyzed(t)
	s := New(sess)

	press(s, "up", "down", "down", "down")
	assert.Equal(t, 1, s.cursor)

	press(s, "left", "right", "right", "right", "right", "right")
	assert.Equal(t, len(worksheet.Difficulties())-1, s.level)
}

func TestRefreshOnTopicsEvent(t *testing.T) {
	sess := session.New(problemgen.New(llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`[{"id": "t1", "name": "Hình học"}]`),
	}), nil, problemgen.DefaultConfig()))
	s := New(sess)
	assert.Contains(t, s.View(100, 20), "No topics yet")

	_, err := sess.Analyze(context.Background())
	require.NoError(t, err)
	s.Update(screen.SessionEventMsg{Event: session.Event{Kind: session.EventTopicsUpdated}})

	view := s.View(100, 20)
	assert.Contains(t, view, "Hình học")
	assert.Contains(t, view, "5 questions requested")
}
