package extract

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Entry is one operator assignment. MCC and MNC stay raw text tokens so that
// leading zeros survive (codes like "062 01" are not numbers).
type Entry struct {
	Name string `json:"name"`
	MCC  string `json:"mcc"`
	MNC  string `json:"mnc"`
}

// Result is the extracted table. Areas is keyed by the lower-cased area name;
// AreaNames preserves the original casing and document order. The two are
// populated together by a single fold and are never partially filled.
type Result struct {
	Areas     map[string][]Entry
	AreaNames []string
}

// ErrNoDataTable is returned when the converted document does not contain the
// expected table layout (a title table followed by the data table).
var ErrNoDataTable = errors.New("data table not found in converted document")

// ParseError reports a row that violates the expected grouping or column
// layout of the data table.
type ParseError struct {
	Row    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse table row %q: %s", e.Row, e.Reason)
}

// Extract walks the converted markup and folds the data table into a Result.
// The data table is the second table in document order; the first holds the
// document title and legend. That positional assumption mirrors the published
// document's layout and is intentionally not replaced with detection
// heuristics, so a layout change upstream fails loudly here.
func Extract(markup string) (*Result, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	tables := findAll(root, "table")
	if len(tables) < 2 {
		return nil, ErrNoDataTable
	}

	acc := accumulator{areas: make(map[string][]Entry)}
	for _, row := range findAll(tables[1], "tr") {
		acc, err = foldRow(acc, row)
		if err != nil {
			return nil, err
		}
	}
	return &Result{Areas: acc.areas, AreaNames: acc.names}, nil
}

// accumulator is the explicit fold state threaded through the row walk:
// the table built so far plus the area key active for detail rows.
type accumulator struct {
	areas       map[string][]Entry
	names       []string
	currentArea string
}

// foldRow classifies one table row and returns the updated accumulator.
//
// A first cell carrying a rowspan attribute marks an area-header row: the
// cell text names the area that groups the detail rows spanned below it.
// Every other row is a detail row under the current area, with the operator
// name in the first cell and the "MCC MNC" pair in the second.
func foldRow(acc accumulator, row *html.Node) (accumulator, error) {
	cells := findAll(row, "td")
	if len(cells) == 0 {
		// Converter artifacts such as empty spacing rows carry no cells.
		return acc, nil
	}

	if _, ok := attrVal(cells[0], "rowspan"); ok {
		name := nodeText(cells[0])
		key := strings.ToLower(name)
		acc.names = append(acc.names, name)
		acc.areas[key] = []Entry{}
		acc.currentArea = key
		return acc, nil
	}

	if acc.currentArea == "" {
		return acc, &ParseError{Row: nodeText(row), Reason: "detail row before any area header"}
	}
	if len(cells) < 2 {
		return acc, &ParseError{Row: nodeText(row), Reason: "detail row has fewer than two cells"}
	}

	codes := strings.Fields(nodeText(cells[1]))
	if len(codes) != 2 {
		return acc, &ParseError{
			Row:    nodeText(row),
			Reason: fmt.Sprintf("code cell has %d tokens, want 2 (MCC and MNC)", len(codes)),
		}
	}

	entry := Entry{Name: nodeText(cells[0]), MCC: codes[0], MNC: codes[1]}
	acc.areas[acc.currentArea] = append(acc.areas[acc.currentArea], entry)
	return acc, nil
}

// findAll collects elements with the given tag in depth-first document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			out = append(out, cur)
			// Do not descend into a matched element; the registry document
			// never nests tables or rows, and skipping keeps order obvious.
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return out
}

// attrVal returns the named attribute and whether it is present.
func attrVal(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// nodeText concatenates all text beneath the node, collapsing whitespace
// runs to single spaces and trimming the ends.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
			b.WriteString(" ")
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
