package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

// ErrNotDocx is returned when the input bytes are not a DOCX container.
var ErrNotDocx = errors.New("input is not a docx document")

const documentPart = "word/document.xml"

// DocxConverter converts WordprocessingML to minimal semantic HTML. It keeps
// exactly what the extractor needs: body paragraphs as <p>, tables as
// <table>/<tr>/<td>, and vertically merged cells folded into rowspan
// attributes the way a browser-facing converter would render them.
type DocxConverter struct{}

func (DocxConverter) Convert(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotDocx, err)
	}
	part, err := openPart(zr, documentPart)
	if err != nil {
		return "", err
	}
	defer part.Close()

	blocks, err := parseBody(part)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", documentPart, err)
	}
	return renderHTML(blocks), nil
}

func openPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", name, err)
			}
			return rc, nil
		}
	}
	return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, name)
}

// block is either a paragraph or a table, in body order.
type block struct {
	para  string
	table wmlTable
}

type wmlTable []wmlRow

type wmlRow []wmlCell

// wmlCell holds the cell text and its vertical-merge marker: "" for a plain
// cell, "restart" for the first cell of a merge, "continue" for the cells it
// spans over.
type wmlCell struct {
	text   string
	vMerge string
}

// parseBody walks the WordprocessingML token stream and collects top-level
// paragraphs and tables. Anything else (section properties, bookmarks) is
// skipped.
func parseBody(r io.Reader) ([]block, error) {
	dec := xml.NewDecoder(r)
	var blocks []block
	depth := 0 // nesting depth below w:body
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "body":
				inBody = true
			case inBody && depth == 0 && t.Name.Local == "p":
				text, err := collectText(dec, t)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, block{para: text})
			case inBody && depth == 0 && t.Name.Local == "tbl":
				tbl, err := parseTable(dec, t)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, block{table: tbl})
			case inBody:
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				inBody = false
			} else if inBody && depth > 0 {
				depth--
			}
		}
	}
	return blocks, nil
}

// parseTable consumes tokens until the table's end element, building rows of
// cells with their merge markers.
func parseTable(dec *xml.Decoder, start xml.StartElement) (wmlTable, error) {
	var tbl wmlTable
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tr" {
				row, err := parseRow(dec, t)
				if err != nil {
					return nil, err
				}
				tbl = append(tbl, row)
			} else if err := dec.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return tbl, nil
			}
		}
	}
}

func parseRow(dec *xml.Decoder, start xml.StartElement) (wmlRow, error) {
	var row wmlRow
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tc" {
				cell, err := parseCell(dec, t)
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			} else if err := dec.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return row, nil
			}
		}
	}
}

func parseCell(dec *xml.Decoder, start xml.StartElement) (wmlCell, error) {
	var cell wmlCell
	var parts []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return cell, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "vMerge":
				// A vMerge without w:val continues the merge above it.
				cell.vMerge = "continue"
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						cell.vMerge = a.Value
					}
				}
				if err := dec.Skip(); err != nil {
					return cell, err
				}
			case "p":
				text, err := collectText(dec, t)
				if err != nil {
					return cell, err
				}
				if text != "" {
					parts = append(parts, text)
				}
			case "tbl":
				// Nested tables never occur in the registry document; skip
				// them wholesale so their cells cannot truncate this one.
				if err := dec.Skip(); err != nil {
					return cell, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				cell.text = strings.Join(parts, " ")
				return cell, nil
			}
		}
	}
}

// collectText gathers all w:t runs under the element, joined with spaces
// collapsed the way rendered text would read.
func collectText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var b strings.Builder
	depth := 1
	inT := false
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			inT = t.Name.Local == "t"
		case xml.EndElement:
			depth--
			inT = false
		case xml.CharData:
			if inT {
				b.Write(t)
			}
		}
	}
	return strings.Join(strings.Fields(b.String()), " "), nil
}

// renderHTML emits the collected blocks as minimal semantic HTML. Merged
// cells become one <td> with a rowspan covering the continuation cells
// beneath it; the continuation cells themselves are dropped, matching how
// the merge renders visually.
func renderHTML(blocks []block) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, blk := range blocks {
		if blk.table == nil {
			if blk.para != "" {
				b.WriteString("<p>")
				b.WriteString(html.EscapeString(blk.para))
				b.WriteString("</p>")
			}
			continue
		}
		renderTable(&b, blk.table)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func renderTable(b *strings.Builder, tbl wmlTable) {
	b.WriteString("<table>")
	for i, row := range tbl {
		b.WriteString("<tr>")
		for j, cell := range row {
			if cell.vMerge == "continue" {
				continue
			}
			b.WriteString("<td")
			if cell.vMerge == "restart" {
				if span := mergeSpan(tbl, i, j); span > 1 {
					b.WriteString(` rowspan="` + strconv.Itoa(span) + `"`)
				}
			}
			b.WriteString(">")
			b.WriteString(html.EscapeString(cell.text))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
}

// mergeSpan counts how many rows the merge starting at (row, col) covers.
func mergeSpan(tbl wmlTable, row, col int) int {
	span := 1
	for i := row + 1; i < len(tbl); i++ {
		if col >= len(tbl[i]) || tbl[i][col].vMerge != "continue" {
			break
		}
		span++
	}
	return span
}
