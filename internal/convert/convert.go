// Package convert turns the fetched binary registry document into semantic
// HTML that the table extractor can walk. The rest of the pipeline depends
// only on the Converter seam, so the office-format handling stays swappable.
package convert

import "context"

// Converter converts a binary office document into semantic HTML markup.
type Converter interface {
	Convert(ctx context.Context, data []byte) (string, error)
}
