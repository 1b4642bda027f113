package sync

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

// FieldDocRow represents a single row in the field mapping documentation.
type FieldDocRow struct {
	PersonField string // Outbound person field (e.g. "given_name", "email_addresses[].address")
	SourceField string // Pipeline record field it maps from
	FieldType   string
	Notes       string // Mapping notes (replacement behaviour, normalization, defaults)
}

// FieldDocumentation contains the record-to-person field documentation for
// the connector.
type FieldDocumentation struct {
	Rows []FieldDocRow
}

// GenerateFieldDocumentation describes how contact record fields map onto
// the person payload, for operators wiring up an extraction pipeline.
func GenerateFieldDocumentation(config Config) FieldDocumentation {
	phoneNotes := "Outbound key is \"number\""
	if config.DefaultPhoneRegion != "" {
		phoneNotes = phoneNotes + " | Normalized to E.164 (region " + config.DefaultPhoneRegion + ")"
	}
	doc := FieldDocumentation{
		Rows: []FieldDocRow{
			{PersonField: "given_name", SourceField: "first_name", FieldType: "Text"},
			{PersonField: "family_name", SourceField: "last_name", FieldType: "Text"},
			{PersonField: "email_addresses[].address", SourceField: "email", FieldType: "Text", Notes: "Marked primary | Replaced entirely by additional_emails when present"},
			{PersonField: "email_addresses[].address", SourceField: "additional_emails", FieldType: "List", Notes: "Non-primary | Replaces the primary email rather than appending"},
			{PersonField: "email_addresses[].status", SourceField: "subscribe_status", FieldType: "Text", Notes: "Recognised statuses only, falls back to unsubscribed flag"},
			{PersonField: "phone_numbers[].number", SourceField: "phone_numbers[].number", FieldType: "Phone", Notes: phoneNotes},
			{PersonField: "phone_numbers[].type", SourceField: "phone_numbers[].type", FieldType: "Text"},
			{PersonField: "postal_addresses[].address_lines", SourceField: "addresses[].line1/line2/line3", FieldType: "List", Notes: "Empty lines skipped, 1-2-3 order preserved"},
			{PersonField: "postal_addresses[].locality", SourceField: "addresses[].city", FieldType: "Text"},
			{PersonField: "postal_addresses[].postal_code", SourceField: "addresses[].postal_code", FieldType: "Text"},
			{PersonField: "postal_addresses[].country", SourceField: "addresses[].country", FieldType: "Text", Notes: "Normalized to ISO 3166-1 alpha-2 when recognised"},
			{PersonField: "postal_addresses[].region", SourceField: "addresses[].state", FieldType: "Text"},
			{PersonField: "custom_fields", SourceField: "custom_fields[].name/value", FieldType: "Map", Notes: "First occurrence wins on a repeated name"},
			{PersonField: "add_tags", SourceField: "tags", FieldType: "List"},
		},
	}

	sort.SliceStable(doc.Rows, func(i, j int) bool {
		return doc.Rows[i].PersonField < doc.Rows[j].PersonField
	})

	return doc
}

// DisplayName renders a person field id as a human readable label,
// e.g. "given_name" -> "Given Name".
func (r FieldDocRow) DisplayName() string {
	field := r.PersonField
	if index := strings.Index(field, "["); index != -1 {
		field = field[:index]
	}
	parts := strings.Split(field, "_")
	for i, part := range parts {
		parts[i] = strcase.ToCamel(part)
	}
	return strings.Join(parts, " ")
}

// FormatCSV formats the field documentation as CSV.
func (d FieldDocumentation) FormatCSV() (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Person Field", "Display Name", "Field Type", "Record Source Field", "Mapping Notes"}
	if err := writer.Write(headers); err != nil {
		return "", err
	}

	for _, row := range d.Rows {
		record := []string{row.PersonField, row.DisplayName(), row.FieldType, row.SourceField, row.Notes}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
