package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	bodyFont = "Times New Roman"

	// English metric units per pixel at 96 dpi.
	emuPerPx = 9525

	relFooter = "rIdFooter1"
)

const nsDecl = ` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
	` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>
</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// writer assembles the package. Pictures are numbered in document order.
type writer struct {
	media []media
}

type zipPart struct {
	name string
	data []byte
}

type media struct {
	relID string
	name  string
	data  []byte
}

func (w *writer) write(out io.Writer, body, footer []paragraph) error {
	zw := zip.NewWriter(out)

	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document` + nsDecl + `><w:body>`)
	for _, p := range body {
		w.paragraph(&doc, p)
	}
	doc.WriteString(`<w:sectPr>`)
	doc.WriteString(`<w:footerReference w:type="default" r:id="` + relFooter + `"/>`)
	doc.WriteString(`<w:pgSz w:w="11906" w:h="16838"/>`)
	doc.WriteString(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>`)
	doc.WriteString(`</w:sectPr></w:body></w:document>`)

	var ftr strings.Builder
	ftr.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	ftr.WriteString(`<w:ftr` + nsDecl + `>`)
	for _, p := range footer {
		w.paragraph(&ftr, p)
	}
	ftr.WriteString(`</w:ftr>`)

	parts := []zipPart{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/document.xml", []byte(doc.String())},
		{"word/footer1.xml", []byte(ftr.String())},
		{"word/_rels/document.xml.rels", []byte(w.documentRels())},
	}
	for _, m := range w.media {
		parts = append(parts, zipPart{"word/media/" + m.name, m.data})
	}

	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := f.Write(part.data); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish document: %w", err)
	}
	return nil
}

func (w *writer) documentRels() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="` + relFooter + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>`)
	for _, m := range w.media {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`, m.relID, m.name)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func (w *writer) paragraph(b *strings.Builder, p paragraph) {
	b.WriteString(`<w:p>`)

	var ppr strings.Builder
	if p.Before > 0 || p.After > 0 {
		fmt.Fprintf(&ppr, `<w:spacing w:before="%d" w:after="%d"/>`, p.Before, p.After)
	}
	if p.Indent > 0 {
		fmt.Fprintf(&ppr, `<w:ind w:left="%d"/>`, p.Indent)
	}
	if p.Align != "" {
		fmt.Fprintf(&ppr, `<w:jc w:val="%s"/>`, p.Align)
	}
	if ppr.Len() > 0 {
		b.WriteString(`<w:pPr>` + ppr.String() + `</w:pPr>`)
	}

	if p.PageBreak {
		b.WriteString(`<w:r><w:br w:type="page"/></w:r>`)
	}
	for _, r := range p.Runs {
		writeRun(b, r)
	}
	if p.Picture != nil {
		w.picture(b, p.Picture)
	}

	b.WriteString(`</w:p>`)
}

func writeRun(b *strings.Builder, r run) {
	b.WriteString(`<w:r><w:rPr>`)
	fmt.Fprintf(b, `<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:eastAsia="%[1]s" w:cs="%[1]s"/>`, bodyFont)
	if r.Bold {
		b.WriteString(`<w:b/><w:bCs/>`)
	}
	if r.Color != "" {
		fmt.Fprintf(b, `<w:color w:val="%s"/>`, r.Color)
	}
	if r.Size > 0 {
		fmt.Fprintf(b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, r.Size, r.Size)
	}
	b.WriteString(`</w:rPr>`)

	lines := strings.Split(strings.ReplaceAll(r.Text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(escape(line))
		b.WriteString(`</w:t>`)
	}
	b.WriteString(`</w:r>`)
}

func (w *writer) picture(b *strings.Builder, pic *picture) {
	n := len(w.media) + 1
	m := media{
		relID: fmt.Sprintf("rIdImage%d", n),
		name:  fmt.Sprintf("image%d.png", n),
		data:  pic.Data,
	}
	w.media = append(w.media, m)

	cx, cy := pic.Width*emuPerPx, pic.Height*emuPerPx
	fmt.Fprintf(b, `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%[1]d" cy="%[2]d"/>`+
		`<wp:docPr id="%[3]d" name="Picture %[3]d"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="%[3]d" name="%[4]s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%[5]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic>`+
		`</a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		cx, cy, n, m.name, m.relID)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
