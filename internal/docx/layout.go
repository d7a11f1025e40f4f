package docx

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/abhisek/mathsheet/internal/worksheet"
)

// Sizes are in half-points, indents and spacing in twips.
const (
	titleSize = 32
	bodySize  = 26
	footSize  = 22

	partIndent      = 720
	partImageIndent = 1440

	mainImagePx = 300
	partImagePx = 200

	footerColor = "808080"
)

const (
	answersHeading = "HƯỚNG DẪN GIẢI & ĐÁP ÁN"
	noSolution     = "(Không có lời giải chi tiết)"
	partNoSolution = "(Chưa cập nhật)"
	alignCenter    = "center"
	alignLeft      = "left"
)

type run struct {
	Text  string
	Bold  bool
	Size  int
	Color string
}

type picture struct {
	Data   []byte
	Width  int // px
	Height int // px
}

type paragraph struct {
	Align  string
	Indent int
	Before int
	After  int

	Runs      []run
	Picture   *picture
	PageBreak bool
}

// layout turns questions into the paragraph sequence of the document:
// title, questions with their pictures and parts, a page break, then the
// answer key in the same order.
func layout(questions []worksheet.Question, title string) []paragraph {
	var doc []paragraph

	doc = append(doc, paragraph{
		Align: alignCenter,
		After: 400,
		Runs:  []run{{Text: strings.ToUpper(title), Bold: true, Size: titleSize}},
	})

	for i, q := range questions {
		doc = append(doc, paragraph{
			Before: 200,
			After:  100,
			Runs: []run{
				{Text: fmt.Sprintf("Câu %d (%s): ", i+1, q.Difficulty), Bold: true, Size: bodySize},
				{Text: q.Content, Size: bodySize},
			},
		})
		if pic := decodePicture(q.ImageData, mainImagePx); pic != nil {
			doc = append(doc, paragraph{Align: alignCenter, After: 200, Picture: pic})
		}

		for _, p := range q.Parts {
			doc = append(doc, paragraph{
				Indent: partIndent,
				After:  100,
				Runs: []run{
					{Text: p.Label + " ", Bold: true, Size: bodySize},
					{Text: p.Content, Size: bodySize},
				},
			})
			if pic := decodePicture(p.ImageData, partImagePx); pic != nil {
				doc = append(doc, paragraph{Align: alignLeft, Indent: partImageIndent, After: 100, Picture: pic})
			}
		}
	}

	doc = append(doc, paragraph{PageBreak: true})
	doc = append(doc, paragraph{
		Align:  alignCenter,
		Before: 200,
		After:  400,
		Runs:   []run{{Text: answersHeading, Bold: true, Size: titleSize}},
	})

	for i, q := range questions {
		solution := q.Solution
		if solution == "" && len(q.Parts) == 0 {
			solution = noSolution
		}
		doc = append(doc, paragraph{
			Before: 100,
			After:  50,
			Runs: []run{
				{Text: fmt.Sprintf("Câu %d: ", i+1), Bold: true, Size: bodySize},
				{Text: solution, Size: bodySize},
			},
		})

		for _, p := range q.Parts {
			sol := p.Solution
			if sol == "" {
				sol = partNoSolution
			}
			doc = append(doc, paragraph{
				Indent: partIndent,
				Runs: []run{
					{Text: p.Label + " ", Bold: true, Size: bodySize},
					{Text: sol, Size: bodySize},
				},
			})
		}
	}

	return doc
}

func footerParagraph(text string) paragraph {
	return paragraph{
		Align: alignCenter,
		Runs:  []run{{Text: text, Size: footSize, Color: footerColor}},
	}
}

// decodePicture accepts a data URI or bare base64. Undecodable data is
// dropped.
func decodePicture(data string, px int) *picture {
	if data == "" {
		return nil
	}
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil || len(raw) == 0 {
		return nil
	}
	return &picture{Data: raw, Width: px, Height: px}
}
