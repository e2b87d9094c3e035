package knowledge

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// noDocumentsMessage is returned when the result list exists but is empty.
const noDocumentsMessage = "No matching documents were found."

// listFields are the payload fields that may hold the result list, in
// priority order. The first field whose value is an array wins, even when it
// is empty; later fields are never inspected after that.
var listFields = [...]string{"items", "data", "documents", "results"}

// Normalize converts a dataset API payload into human-readable text. The
// payload shape is not schema-guaranteed, so unrecognized shapes fall back to
// the pretty-printed raw payload rather than an error.
func Normalize(payload []byte) string {
	root := gjson.ParseBytes(payload)
	for _, field := range listFields {
		value := root.Get(field)
		if !value.IsArray() {
			continue
		}
		items := value.Array()
		if len(items) == 0 {
			return noDocumentsMessage
		}
		if formatted := formatDocuments(items); strings.TrimSpace(formatted) != "" {
			return formatted
		}
		break
	}
	return string(pretty.Pretty(payload))
}

// formatDocuments renders result items as 1-based numbered blocks separated
// by blank lines.
func formatDocuments(items []gjson.Result) string {
	parts := make([]string, 0, len(items))
	for i, item := range items {
		index := i + 1
		if !item.IsObject() {
			parts = append(parts, fmt.Sprintf("%d. %s", index, item.String()))
			continue
		}

		content := displayContent(item)
		lines := make([]string, 0, 3)
		if content == "" {
			lines = append(lines, fmt.Sprintf("%d. (no content)", index))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s", index, content))
		}

		if score := item.Get("score"); score.Exists() && score.Type != gjson.Null {
			lines = append(lines, fmt.Sprintf("   score: %s", score.String()))
		}
		if metadata := item.Get("metadata"); len(metadata.Map()) > 0 {
			lines = append(lines, fmt.Sprintf("   metadata: %s", pretty.Ugly([]byte(metadata.Raw))))
		}

		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// displayContent picks the first non-empty display field of a result item.
func displayContent(item gjson.Result) string {
	for _, field := range [...]string{"content", "answer", "text"} {
		if value := item.Get(field).String(); value != "" {
			return value
		}
	}
	return ""
}
