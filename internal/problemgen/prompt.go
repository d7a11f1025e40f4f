package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/mathsheet/internal/worksheet"
)

// TopicPromptInput is the material for topic analysis.
type TopicPromptInput struct {
	Distribution string
	Bank         string
	ManualTopic  string
}

// QuestionPromptInput is the material for question generation. Only
// selected topics are listed in the prompt.
type QuestionPromptInput struct {
	Topics      []worksheet.Topic
	ManualTopic string
	Context     string
}

// ImageFixInput is the material for a diagram revision.
type ImageFixInput struct {
	Code        string
	Content     string
	Instruction string
}

// BuildTopicPrompt builds the analysis prompt asking for a JSON array of
// {id, name, description} topic records.
func BuildTopicPrompt(in TopicPromptInput, cfg Config) string {
	var b strings.Builder

	b.WriteString("Phân tích dữ liệu đầu vào sau đây để lên kế hoạch ra bài tập toán học.\n\n")

	b.WriteString("DỮ LIỆU 1: PHÂN PHỐI CHƯƠNG TRÌNH (Phạm vi kiến thức cần dạy):\n")
	b.WriteString(truncateRunes(in.Distribution, cfg.MaxSectionChars))
	b.WriteString("\n\n")

	b.WriteString("DỮ LIỆU 2: NGÂN HÀNG CÂU HỎI / ĐỀ CƯƠNG (Mẫu bài tập):\n")
	b.WriteString(truncateRunes(in.Bank, cfg.MaxSectionChars))
	b.WriteString("\n\n")

	if in.ManualTopic != "" {
		fmt.Fprintf(&b, "DỮ LIỆU 3: YÊU CẦU THỦ CÔNG CỦA GIÁO VIÊN: \"%s\"\n\n", in.ManualTopic)
	}

	b.WriteString(topicInstructions)
	return b.String()
}

const topicInstructions = `LƯU Ý: Kết hợp kiến thức từ các file input và kiến thức toán học của bạn để đưa ra danh sách chuyên đề đầy đủ nhất.
Nếu có "Yêu cầu thủ công", hãy ưu tiên phân tích kỹ nội dung đó.

Nhiệm vụ: Trích xuất và phân loại các CHUYÊN ĐỀ (Topics) toán học chính phù hợp để ra bài kiểm tra/bài tập.

Trả về định dạng JSON thuần túy (không markdown).
Schema:
[
  {
    "id": "unique_string_id",
    "name": "Tên chuyên đề (Ví dụ: Hàm số lũy thừa)",
    "description": "Mô tả ngắn gọn phạm vi kiến thức"
  }
]
`

// BuildQuestionPrompt builds the generation prompt with one request line
// per selected topic and an optional free-form topic.
func BuildQuestionPrompt(in QuestionPromptInput, cfg Config) string {
	var b strings.Builder

	b.WriteString("Bạn là chuyên gia giáo dục và lập trình viên Python Toán học.\n")
	b.WriteString("Hãy tạo bộ câu hỏi toán học dựa trên yêu cầu dưới đây.\n\n")

	b.WriteString("DỮ LIỆU THAM KHẢO (ĐỂ CLONE DẠNG BÀI, NHƯNG THAY SỐ/DỮ LIỆU):\n")
	b.WriteString(truncateRunes(in.Context, cfg.MaxContextChars))
	b.WriteString("\n\n")

	b.WriteString("DANH SÁCH CHUYÊN ĐỀ CẦN RA VÀ SỐ LƯỢNG CHI TIẾT:\n")
	for _, t := range in.Topics {
		if !t.Selected {
			continue
		}
		b.WriteString(topicRequestLine(t))
		b.WriteByte('\n')
	}
	if in.ManualTopic != "" {
		fmt.Fprintf(&b, "Bổ sung thêm chuyên đề ngoài theo yêu cầu thủ công: %s (Tự phân phối mức độ hợp lý)\n", in.ManualTopic)
	}
	b.WriteByte('\n')

	b.WriteString(questionRules)
	return b.String()
}

func topicRequestLine(t worksheet.Topic) string {
	c := t.Counts
	return fmt.Sprintf("- %s: %d câu %s, %d câu %s, %d câu %s, %d câu %s.",
		t.Name,
		c[worksheet.Easy], worksheet.Easy,
		c[worksheet.Medium], worksheet.Medium,
		c[worksheet.Hard], worksheet.Hard,
		c[worksheet.Expert], worksheet.Expert,
	)
}

const questionRules = `YÊU CẦU QUAN TRỌNG VỀ CẤU TRÚC:
1. GỘP CÂU HỎI: Nếu có các bài toán ngắn có CÙNG YÊU CẦU (Ví dụ: cùng là "Giải phương trình", "Phân tích đa thức", "Tính"), hãy tạo thành 1 Câu hỏi lớn có các ý nhỏ a), b), c)... thay vì tách rời.
   Ví dụ:
   Câu 1: Giải các phương trình sau:
   a) $x^2 - 1 = 0$
   b) $x^2 + 2x = 0$
2. Tuân thủ số lượng câu hỏi.
3. Thay đổi số liệu so với bài mẫu.

QUY TẮC HIỂN THỊ TOÁN HỌC (QUAN TRỌNG):
1. Mọi công thức toán, biểu thức, biến số (x, y, z...) PHẢI ĐƯỢC BAO QUANH bởi dấu đô la ($).
   - SAI: Giải phương trình x^2 + 2x = 0
   - ĐÚNG: Giải phương trình $x^2 + 2x = 0$
   - SAI: Cho tam giác ABC vuông tại A
   - ĐÚNG: Cho tam giác $ABC$ vuông tại $A$
2. Trong JSON String, dấu backslash (\) phải được nhân đôi (\\).
   - Ví dụ: "$\\frac{1}{2}$", "$\\sqrt{x}$", "$\\in$", "$\\widehat{ABC}$".
3. Dùng môi trường 'align' nếu cần căn lề nhiều dòng.
4. TUYỆT ĐỐI KHÔNG dùng TikZ.

QUY TẮC PYTHON VẼ HÌNH (Matplotlib):
1. KHÔNG ngắt dòng trong chuỗi.
2. Hình 3D: projection='3d', ax.view_init().

Trả về định dạng JSON List (Mảng).
Schema:
[
  {
    "id": "uuid",
    "topicId": "topic_id_ref",
    "content": "Nội dung/Yêu cầu chính (Ví dụ: 'Phân tích các đa thức sau thành nhân tử:')",
    "difficulty": "Dễ" | "Trung bình" | "Khá" | "Khó",
    "hasImage": true/false (cho câu chính),
    "pythonCode": "Code python (nếu có)",
    "solution": "Lời giải chung (hoặc để trống nếu giải chi tiết ở phần parts)",
    "parts": [
      {
        "id": "uuid_part",
        "label": "a)",
        "content": "Nội dung ý nhỏ (Ví dụ: '$x^3 - 8$')",
        "hasImage": true/false,
        "pythonCode": "Code python riêng (nếu có)",
        "solution": "Đáp án/Lời giải chi tiết cho ý này"
      }
    ] (Có thể null hoặc rỗng nếu là câu hỏi đơn)
  }
]
`

// BuildImageFixPrompt builds the prompt asking for revised plotting code.
func BuildImageFixPrompt(in ImageFixInput) string {
	var b strings.Builder

	b.WriteString("Tôi có đoạn code Python Matplotlib vẽ hình cho bài toán này:\n")
	fmt.Fprintf(&b, "\"%s\"\n\n", in.Content)

	b.WriteString("Code hiện tại:\n```python\n")
	b.WriteString(in.Code)
	b.WriteString("\n```\n\n")

	fmt.Fprintf(&b, "YÊU CẦU VẼ LẠI TỪ NGƯỜI DÙNG: \"%s\"\n\n", in.Instruction)

	b.WriteString("Hãy viết lại đoạn code Python.\n\n")
	b.WriteString("CHỈ DẪN KỸ THUẬT:\n")
	b.WriteString("1. Xử lý hình 3D: Chỉnh ax.view_init(elev=..., azim=...) nếu cần xoay.\n")
	b.WriteString("2. CẤM NGẮT DÒNG TRONG CHUỖI.\n")
	b.WriteString("3. Giữ nguyên style Matplotlib.\n")
	b.WriteString("4. Chỉ trả về code Python, không giải thích.\n")
	return b.String()
}

// truncateRunes keeps at most n runes of s. n <= 0 disables truncation.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
