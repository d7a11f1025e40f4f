package docx

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathsheet/internal/worksheet"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nimage")

func pngURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func sampleQuestions() []worksheet.Question {
	return []worksheet.Question{
		{
			ID:         "q1",
			Content:    "Vẽ đồ thị $y = x^2$ & nhận xét <tính chất>",
			Difficulty: worksheet.Easy,
			HasImage:   true,
			ImageData:  pngURI(),
			Solution:   "Parabol\nđỉnh $O$",
		},
		{
			ID:         "q2",
			Content:    "Giải các phương trình sau:",
			Difficulty: worksheet.Medium,
			Parts: []worksheet.SubQuestion{
				{ID: "a", Label: "a)", Content: "$x^2 = 1$", Solution: "$x = \\pm 1$", HasImage: true, ImageData: pngURI()},
				{ID: "b", Label: "b)", Content: "$x = 2$"},
			},
		},
		{
			ID:         "q3",
			Content:    "Câu không lời giải",
			Difficulty: worksheet.Expert,
			HasImage:   true,
		},
	}
}

func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(b)
	}
	return files
}

func TestExport_Package(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleQuestions(), "Bài tập chuyên đề"))

	files := unzip(t, buf.Bytes())
	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/footer1.xml",
		"word/_rels/document.xml.rels",
		"word/media/image1.png",
		"word/media/image2.png",
	} {
		assert.Contains(t, files, name)
	}
	assert.NotContains(t, files, "word/media/image3.png")
	assert.Equal(t, string(pngBytes), files["word/media/image1.png"])

	rels := files["word/_rels/document.xml.rels"]
	assert.Contains(t, rels, `Id="rIdImage1"`)
	assert.Contains(t, rels, `Id="rIdImage2"`)
	assert.Contains(t, rels, `Target="footer1.xml"`)
}

func TestExport_DocumentOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleQuestions(), "Bài tập chuyên đề"))
	doc := unzip(t, buf.Bytes())["word/document.xml"]

	order := []string{
		"BÀI TẬP CHUYÊN ĐỀ",
		"Câu 1 (Dễ): ",
		"Vẽ đồ thị $y = x^2$ &amp; nhận xét &lt;tính chất&gt;",
		`r:embed="rIdImage1"`,
		"Câu 2 (Trung bình): ",
		"a) ",
		"$x^2 = 1$",
		`r:embed="rIdImage2"`,
		"b) ",
		"Câu 3 (Khó): ",
		`<w:br w:type="page"/>`,
		"HƯỚNG DẪN GIẢI &amp; ĐÁP ÁN",
		"Câu 1: ",
		`Parabol</w:t><w:br/><w:t xml:space="preserve">đỉnh $O$`,
		"Câu 2: ",
		`$x = \pm 1$`,
		"(Chưa cập nhật)",
		"Câu 3: ",
		"(Không có lời giải chi tiết)",
	}
	pos := 0
	for _, want := range order {
		i := strings.Index(doc[pos:], want)
		require.GreaterOrEqual(t, i, 0, "missing %q after offset %d", want, pos)
		pos += i + len(want)
	}

	// Question 2 has parts, so its empty solution gets no placeholder.
	assert.Equal(t, 1, strings.Count(doc, "(Không có lời giải chi tiết)"))
}

func TestExport_Formatting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleQuestions()[:2], ""))
	files := unzip(t, buf.Bytes())
	doc := files["word/document.xml"]

	assert.Contains(t, doc, DefaultTitle)
	assert.Contains(t, doc, `w:ascii="Times New Roman"`)
	assert.Contains(t, doc, `<w:sz w:val="32"/>`)
	assert.Contains(t, doc, `<w:sz w:val="26"/>`)
	assert.Contains(t, doc, `<w:ind w:left="720"/>`)
	assert.Contains(t, doc, `<w:ind w:left="1440"/>`)
	// 300 px and 200 px at 9525 EMU per pixel.
	assert.Contains(t, doc, `cx="2857500" cy="2857500"`)
	assert.Contains(t, doc, `cx="1905000" cy="1905000"`)

	footer := files["word/footer1.xml"]
	assert.Contains(t, footer, DefaultFooter)
	assert.Contains(t, footer, `<w:color w:val="808080"/>`)
	assert.Contains(t, footer, `<w:sz w:val="22"/>`)
	assert.Contains(t, footer, `<w:jc w:val="center"/>`)
}

func TestExport_CustomFooter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil, "x", WithFooter("Trường THPT A")))
	footer := unzip(t, buf.Bytes())["word/footer1.xml"]
	assert.Contains(t, footer, "Trường THPT A")
	assert.NotContains(t, footer, DefaultFooter)
}

func TestExport_EmptyWorksheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil, "Đề trống"))
	doc := unzip(t, buf.Bytes())["word/document.xml"]

	assert.Contains(t, doc, "ĐỀ TRỐNG")
	assert.Contains(t, doc, "HƯỚNG DẪN GIẢI")
	assert.NotContains(t, doc, "Câu 1")
}

func TestDecodePicture(t *testing.T) {
	pic := decodePicture(pngURI(), 300)
	require.NotNil(t, pic)
	assert.Equal(t, pngBytes, pic.Data)
	assert.Equal(t, 300, pic.Width)

	bare := decodePicture(base64.StdEncoding.EncodeToString(pngBytes), 200)
	require.NotNil(t, bare)
	assert.Equal(t, 200, bare.Height)

	assert.Nil(t, decodePicture("", 300))
	assert.Nil(t, decodePicture("data:image/png;base64,!!!not-base64", 300))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"BÀI TẬP CHUYÊN ĐỀ", "Bai_Tap_Chuyen_De.docx"},
		{"bài tập chuyên đề", "Bai_Tap_Chuyen_De.docx"},
		{"Đề kiểm tra 15 phút - lớp 12", "De_Kiem_Tra_15_Phut_Lop_12.docx"},
		{"", "Bai_Tap_Chuyen_De.docx"},
		{"!!!", "Bai_Tap_Chuyen_De.docx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.title), "title %q", tt.title)
	}
}
