package problemgen

import (
	"strings"
	"testing"

	"github.com/abhisek/mathsheet/internal/worksheet"
)

func TestBuildTopicPrompt_Sections(t *testing.T) {
	msg := BuildTopicPrompt(TopicPromptInput{
		Distribution: "Tuần 1: Hàm số",
		Bank:         "Câu 1: Tính đạo hàm",
	}, DefaultConfig())

	if !strings.Contains(msg, "PHÂN PHỐI CHƯƠNG TRÌNH (Phạm vi kiến thức cần dạy):\nTuần 1: Hàm số") {
		t.Error("missing distribution section")
	}
	if !strings.Contains(msg, "NGÂN HÀNG CÂU HỎI / ĐỀ CƯƠNG (Mẫu bài tập):\nCâu 1: Tính đạo hàm") {
		t.Error("missing bank section")
	}
	if strings.Contains(msg, "YÊU CẦU THỦ CÔNG CỦA GIÁO VIÊN") {
		t.Error("manual section present without a manual topic")
	}
	if !strings.Contains(msg, `"description": "Mô tả ngắn gọn phạm vi kiến thức"`) {
		t.Error("missing output schema")
	}
}

func TestBuildTopicPrompt_ManualTopic(t *testing.T) {
	msg := BuildTopicPrompt(TopicPromptInput{ManualTopic: `Hình học \ không gian`}, DefaultConfig())

	if !strings.Contains(msg, `DỮ LIỆU 3: YÊU CẦU THỦ CÔNG CỦA GIÁO VIÊN: "Hình học \ không gian"`) {
		t.Errorf("manual topic not quoted verbatim:\n%s", msg)
	}
}

func TestBuildTopicPrompt_TruncatesSections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSectionChars = 5

	msg := BuildTopicPrompt(TopicPromptInput{
		Distribution: "ĐạoHàmTíchPhân",
		Bank:         "0123456789",
	}, cfg)

	if !strings.Contains(msg, "dạy):\nĐạoHà\n") {
		t.Error("distribution not truncated to 5 runes")
	}
	if !strings.Contains(msg, "bài tập):\n01234\n") {
		t.Error("bank not truncated to 5 runes")
	}
}

func TestBuildQuestionPrompt_SelectedTopicsOnly(t *testing.T) {
	topics := []worksheet.Topic{
		{ID: "t1", Name: "Hàm số", Selected: true, Counts: worksheet.Counts{worksheet.Easy: 3, worksheet.Medium: 2}},
		{ID: "t2", Name: "Logarit", Selected: false, Counts: worksheet.SeedCounts()},
	}

	msg := BuildQuestionPrompt(QuestionPromptInput{
		Topics:  topics,
		Context: "mẫu",
	}, DefaultConfig())

	if !strings.Contains(msg, "- Hàm số: 3 câu Dễ, 2 câu Trung bình, 0 câu Khá, 0 câu Khó.\n") {
		t.Errorf("missing request line for selected topic:\n%s", msg)
	}
	if strings.Contains(msg, "Logarit") {
		t.Error("unselected topic listed")
	}
	if strings.Contains(msg, "Bổ sung thêm chuyên đề") {
		t.Error("manual line present without a manual topic")
	}
	if !strings.Contains(msg, "THAY SỐ/DỮ LIỆU):\nmẫu\n") {
		t.Error("missing context")
	}
}

func TestBuildQuestionPrompt_ManualTopic(t *testing.T) {
	msg := BuildQuestionPrompt(QuestionPromptInput{ManualTopic: "Xác suất"}, DefaultConfig())

	want := "Bổ sung thêm chuyên đề ngoài theo yêu cầu thủ công: Xác suất (Tự phân phối mức độ hợp lý)"
	if !strings.Contains(msg, want) {
		t.Errorf("missing manual line:\n%s", msg)
	}
}

func TestBuildQuestionPrompt_TruncatesContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxContextChars = 3

	msg := BuildQuestionPrompt(QuestionPromptInput{Context: "abcdef"}, cfg)
	if !strings.Contains(msg, "DỮ LIỆU):\nabc\n") {
		t.Error("context not truncated")
	}
}

func TestBuildImageFixPrompt(t *testing.T) {
	msg := BuildImageFixPrompt(ImageFixInput{
		Code:        "plt.plot([0, 1])",
		Content:     "Vẽ đồ thị $y = x$",
		Instruction: "thêm lưới",
	})

	for _, want := range []string{
		"\"Vẽ đồ thị $y = x$\"",
		"```python\nplt.plot([0, 1])\n```",
		"YÊU CẦU VẼ LẠI TỪ NGƯỜI DÙNG: \"thêm lưới\"",
		"Chỉ trả về code Python",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 2, "he"},
		{"đường", 3, "đườ"},
		{"anything", 0, "anything"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
