package metadata

import (
	"sort"
	"strings"
)

// Record is the set of metadata fields extracted from one file at one point
// in time, keyed by field name.
type Record map[string]string

// IsEmpty reports whether the record carries no fields.
func (r Record) IsEmpty() bool {
	return len(r) == 0
}

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r))
	for field := range r {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	clone := make(Record, len(r))
	for field, value := range r {
		clone[field] = value
	}
	return clone
}

// Summary renders the record as "field: value" lines in field order, truncated
// to maxChars runes. A zero or negative maxChars disables truncation.
func (r Record) Summary(maxChars int) string {
	if len(r) == 0 {
		return "(no metadata)"
	}

	var builder strings.Builder
	for i, field := range r.Fields() {
		if i > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(field)
		builder.WriteString(": ")
		builder.WriteString(r[field])
	}

	summary := builder.String()
	if maxChars > 0 {
		runes := []rune(summary)
		if len(runes) > maxChars {
			summary = string(runes[:maxChars]) + "... [truncated]"
		}
	}
	return summary
}
