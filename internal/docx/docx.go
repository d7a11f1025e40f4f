// Package docx writes a worksheet and its answer key as a Word document.
package docx

import (
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/abhisek/mathsheet/internal/worksheet"
)

const (
	// DefaultTitle is used when no title is given.
	DefaultTitle = "BÀI TẬP CHUYÊN ĐỀ"

	// DefaultFooter is printed at the bottom of every page.
	DefaultFooter = "Create by Hoà Hiệp AI - 0983.676.470"

	// ContentType is the media type of the exported document.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type options struct {
	footer string
}

// Option configures an export.
type Option func(*options)

// WithFooter replaces the footer line. An empty text keeps the default.
func WithFooter(text string) Option {
	return func(o *options) {
		if strings.TrimSpace(text) != "" {
			o.footer = text
		}
	}
}

// Export writes questions and their answer key to w. Images are taken
// from ImageData; items without one are exported as text only.
func Export(w io.Writer, questions []worksheet.Question, title string, opts ...Option) error {
	o := options{footer: DefaultFooter}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	var dw writer
	return dw.write(w, layout(questions, title), []paragraph{footerParagraph(o.footer)})
}

// FileName derives a download name from title, for example
// "BÀI TẬP CHUYÊN ĐỀ" becomes "Bai_Tap_Chuyen_De.docx".
func FileName(title string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}
	folded = strings.NewReplacer("đ", "d", "Đ", "D").Replace(folded)
	folded = cases.Title(language.Und).String(strings.ToLower(folded))

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})
	if len(words) == 0 {
		return FileName(DefaultTitle)
	}
	return strings.Join(words, "_") + ".docx"
}
