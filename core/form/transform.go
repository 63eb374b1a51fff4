package form

import (
	"strings"
	"time"
)

// dateFormat is the fixed representation calendar values are normalized to.
const dateFormat = "2006-01-02"

// GroupedPayload is the request-body shape the backend expects: group
// name -> field id -> transformed value. It is derived read-only output,
// recomputed on every submission.
//
// Fields without a declared group are omitted from the output. This
// mirrors the backend's configuration contract as it stands today; see
// the pinning test before relying on (or changing) it.
type GroupedPayload map[string]map[string]string

// Transform post-processes form state into the submission payload:
// dropdown selections are unwrapped to their code, currency values are
// stripped back to raw digits, and calendar values are normalized to
// YYYY-MM-DD, each placed under the field's declared group.
func Transform(st State, fields []Field) GroupedPayload {
	grouped := make(GroupedPayload)
	for _, fld := range fields {
		val, ok := st[fld.ID]
		if !ok || fld.Group == "" {
			continue
		}
		if grouped[fld.Group] == nil {
			grouped[fld.Group] = make(map[string]string)
		}
		grouped[fld.Group][fld.ID] = transformValue(fld, val)
	}
	return grouped
}

// Concat joins the values of concat-flagged fields, in schema order,
// with "_". Calendar values are date-normalized first. The result is
// used as a composite business identifier (e.g. a certificate key).
func Concat(st State, fields []Field) string {
	var parts []string
	for _, fld := range fields {
		if !fld.Concat {
			continue
		}
		val, ok := st[fld.ID]
		if !ok {
			continue
		}
		parts = append(parts, transformValue(fld, val))
	}
	return strings.Join(parts, "_")
}

func transformValue(fld Field, val Value) string {
	switch v := val.(type) {
	case Choice:
		return v.Code
	case Date:
		return time.Time(v).Format(dateFormat)
	case Text:
		s := string(v)
		if fld.Validation == RuleCurrency {
			return StripCurrency(s)
		}
		if fld.Kind == KindCalendar {
			if t, ok := parseDate(s); ok {
				return t.Format(dateFormat)
			}
		}
		return s
	}
	return ""
}
