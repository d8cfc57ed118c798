package app

import (
	"encoding/json"
	"time"

	"github.com/hyperifyio/mccmnc/internal/extract"
	"github.com/hyperifyio/mccmnc/internal/fetch"
)

// reportMetadata records where and when the table snapshot came from. The
// etag is the opaque revision tag of the fetched document; it may be empty.
type reportMetadata struct {
	Generated string `json:"generated"`
	Source    string `json:"source"`
	ETag      string `json:"etag"`
}

// report is the persisted output document. Areas keys are the lower-cased
// area names; AreaNames keeps the original casing in document order.
type report struct {
	Metadata  reportMetadata             `json:"metadata"`
	Areas     map[string][]extract.Entry `json:"areas"`
	AreaNames []string                   `json:"areaNames"`
}

// buildReport merges the extraction result with the run metadata.
func buildReport(res *extract.Result, doc fetch.Document, now time.Time) report {
	return report{
		Metadata: reportMetadata{
			Generated: now.UTC().Format(time.RFC3339),
			Source:    doc.URL,
			ETag:      doc.ETag,
		},
		Areas:     res.Areas,
		AreaNames: res.AreaNames,
	}
}

func marshalReport(r report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
