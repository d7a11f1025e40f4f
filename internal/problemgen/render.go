package problemgen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mathsheet/internal/worksheet"
)

// RenderEvent reports one settled diagram render. PartID is empty for a
// question's main diagram.
type RenderEvent struct {
	QuestionID string `json:"questionId"`
	PartID     string `json:"partId,omitempty"`
	OK         bool   `json:"ok"`

	// ImageData is the rendered data URI, empty when OK is false.
	ImageData string `json:"-"`
}

// RenderAll renders every main and part diagram that has code, all at
// once, and returns when every render has settled. Failed renders leave
// the image empty. Results are written into questions in place.
func (g *Generator) RenderAll(ctx context.Context, questions []worksheet.Question) {
	if g.renderer == nil {
		return
	}

	var eg errgroup.Group
	for i := range questions {
		q := &questions[i]
		if q.HasImage && q.PythonCode != "" {
			eg.Go(func() error {
				ev := RenderEvent{QuestionID: q.ID}
				if img, ok := g.renderer.Render(ctx, q.PythonCode); ok {
					q.ImageData = img
					ev.OK, ev.ImageData = true, img
				}
				g.notify(ev)
				return nil
			})
		}
		for j := range q.Parts {
			p := &q.Parts[j]
			if !p.HasImage || p.PythonCode == "" {
				continue
			}
			eg.Go(func() error {
				ev := RenderEvent{QuestionID: q.ID, PartID: p.ID}
				if img, ok := g.renderer.Render(ctx, p.PythonCode); ok {
					p.ImageData = img
					ev.OK, ev.ImageData = true, img
				}
				g.notify(ev)
				return nil
			})
		}
	}
	_ = eg.Wait()
}

func (g *Generator) notify(ev RenderEvent) {
	if g.onRender != nil {
		g.onRender(ev)
	}
}
