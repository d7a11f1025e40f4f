package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// vendorStub answers every request with one canned JSON reply and keeps the
// last request it decoded.
type vendorStub struct {
	URL string

	mu   sync.Mutex
	sent map[string]any
	hdr  http.Header
	path string
}

func newVendorStub(t *testing.T, status int, reply any) *vendorStub {
	t.Helper()
	stub := &vendorStub{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		stub.mu.Lock()
		stub.sent, stub.hdr, stub.path = body, r.Header.Clone(), r.URL.Path
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	stub.URL = srv.URL
	return stub
}

func (s *vendorStub) lastBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func (s *vendorStub) lastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *vendorStub) lastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hdr
}

// chatCompletion is an OpenAI-style reply with a single choice.
func chatCompletion(model, content, finish string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-stub",
		"object": "chat.completion",
		"model":  model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

// claudeMessage is a Messages API reply with one text block.
func claudeMessage(model, text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_stub",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       model,
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}
