package pipeline

import (
	"strings"

	"github.com/iitdbuddy/buddy/internal/vector"
)

// missingScalar is the placeholder rendered for absent scalar fields.
const missingScalar = "N/A"

// Field selects one payload field for projection into the context block.
type Field struct {
	// Key is the payload field name.
	Key string
	// Label is the line prefix, e.g. "Description".
	Label string
	// List marks a list-valued field, rendered comma-joined in stored
	// order. Absent lists join to the empty string, not "N/A".
	List bool
}

// FieldTemplate enumerates, per advisory domain, which payload fields are
// projected into the model context and how the heading line is composed.
type FieldTemplate struct {
	// HeadingLabel prefixes the first line of every block, e.g. "Course".
	HeadingLabel string
	// HeadingKey is the payload field for the heading, e.g. "course_code".
	HeadingKey string
	// TitleKey optionally extends the heading as " - <title>".
	TitleKey string
	// Fields are the remaining labelled lines, in render order.
	Fields []Field
}

// Format renders ranked documents into a single context block. It is pure:
// same documents in, same string out, with rank order preserved. An empty
// document slice yields the empty string, which callers treat as "no
// context available".
func (t FieldTemplate) Format(docs []vector.Document) string {
	if len(docs) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		var b strings.Builder

		b.WriteString(t.HeadingLabel)
		b.WriteString(": ")
		b.WriteString(doc.Payload.GetString(t.HeadingKey, missingScalar))
		if t.TitleKey != "" {
			b.WriteString(" - ")
			b.WriteString(doc.Payload.GetString(t.TitleKey, missingScalar))
		}

		for _, f := range t.Fields {
			b.WriteString("\n")
			b.WriteString(f.Label)
			b.WriteString(": ")
			if f.List {
				b.WriteString(strings.Join(doc.Payload.GetStringList(f.Key), ", "))
			} else {
				b.WriteString(doc.Payload.GetString(f.Key, missingScalar))
			}
		}

		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, "\n\n")
}
