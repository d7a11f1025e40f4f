package session

import (
	"io"

	"github.com/abhisek/mathsheet/internal/docx"
)

// Export writes the current questions and answer key as a Word document.
func (s *Session) Export(w io.Writer, title string, opts ...docx.Option) error {
	questions := s.Questions()
	return docx.Export(w, questions, title, opts...)
}
