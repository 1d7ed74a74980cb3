package workspace

import (
	"context"
	"strings"

	"google.golang.org/api/docs/v1"
)

// DocumentText returns the full plain text of a Google Doc, concatenating
// every paragraph run and recursing into table cells.
func (s *Services) DocumentText(ctx context.Context, documentID string) (string, error) {
	doc, err := s.docs.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return "", accessError("document "+documentID, err)
	}
	var b strings.Builder
	if doc.Body != nil {
		flattenElements(&b, doc.Body.Content)
	}
	return b.String(), nil
}

func flattenElements(b *strings.Builder, elements []*docs.StructuralElement) {
	for _, element := range elements {
		switch {
		case element.Paragraph != nil:
			for _, pe := range element.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case element.Table != nil:
			for _, row := range element.Table.TableRows {
				for _, cell := range row.TableCells {
					flattenElements(b, cell.Content)
				}
			}
		}
	}
}
