package render

import (
	"bytes"
	"fmt"

	"github.com/gomutex/godocx"
)

const documentTitle = "The Observer Report"

// Docx renders a narrative report into a Word document and returns
// the serialized bytes, ready for download or attachment. It never
// fails on content: every line shape maps to a paragraph style, so the
// only error paths are document assembly itself.
func Docx(report string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if _, err := doc.AddHeading(documentTitle, 0); err != nil {
		return nil, fmt.Errorf("add title: %w", err)
	}

	for _, line := range Lines(report) {
		switch line.Kind {
		case KindMetadata:
			p := doc.AddEmptyParagraph()
			p.AddText(line.Text).Bold(true)
		case KindHeading:
			if _, err := doc.AddHeading(line.Text, 1); err != nil {
				return nil, fmt.Errorf("add heading: %w", err)
			}
		case KindLabelValue:
			p := doc.AddEmptyParagraph()
			p.AddText(line.Label + ": ").Bold(true)
			p.AddText(line.Value)
		case KindBullet:
			doc.AddParagraph(line.Text).Style("ListBullet")
		default:
			doc.AddParagraph(line.Text)
		}
	}

	buf := &bytes.Buffer{}
	if _, err := doc.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}

	return buf.Bytes(), nil
}
