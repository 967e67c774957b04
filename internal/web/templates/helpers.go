// Package templates holds the templ components rendered by the web server.
// Edit the .templ sources and run `templ generate` to refresh the *_templ.go files.
package templates

import (
	"fmt"

	"github.com/JonMunkholm/csv2json/internal/core"
)

// previewRecords returns at most limit records. A non-positive limit means all.
func previewRecords(doc *core.Document, limit int) []core.Record {
	if limit > 0 && len(doc.Records) > limit {
		return doc.Records[:limit]
	}
	return doc.Records
}

func previewSummary(doc *core.Document, limit int) string {
	return fmt.Sprintf("%d records, %d columns. Showing %d.",
		doc.Len(), len(doc.Keys()), len(previewRecords(doc, limit)))
}
