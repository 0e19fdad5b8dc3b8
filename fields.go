package vertrans

import (
	"context"
	"strings"
)

// SchemaSource reports the field layout of a record type.
// Implementations return a NotFoundError for unknown record types.
type SchemaSource interface {
	Schema(ctx context.Context, recordType string) ([]FieldSchema, error)
}

// TranslatableTypes contains the field types whose values can be translated.
var TranslatableTypes = map[string]bool{
	"Data":            true,
	"Small Text":      true,
	"Text":            true,
	"Long Text":       true,
	"Text Editor":     true,
	"HTML Editor":     true,
	"Markdown Editor": true,
	"HTML":            true,
}

// SystemFields contains field names maintained by the document store itself.
var SystemFields = map[string]bool{
	"name":        true,
	"owner":       true,
	"creation":    true,
	"modified":    true,
	"modified_by": true,
	"docstatus":   true,
	"idx":         true,
	"parent":      true,
	"parenttype":  true,
	"parentfield": true,
}

// ResolveFields returns the translatable fields of recordType in schema order.
func ResolveFields(ctx context.Context, schemas SchemaSource, recordType string) ([]FieldDescriptor, error) {
	if strings.TrimSpace(recordType) == "" {
		return nil, &ValidationError{Field: "record_type", Message: "cannot be blank"}
	}

	fields, err := schemas.Schema(ctx, recordType)
	if err != nil {
		return nil, err
	}

	out := make([]FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		if !IsTranslatableField(f) {
			continue
		}
		label := f.Label
		if label == "" {
			label = f.Name
		}
		out = append(out, FieldDescriptor{
			FieldName:  f.Name,
			FieldLabel: label,
			FieldType:  f.Type,
		})
	}
	return out, nil
}

// IsTranslatableField reports whether a schema field is eligible for translation.
// Read-only Data fields are usually system generated and are skipped.
func IsTranslatableField(f FieldSchema) bool {
	if f.Name == "" || !TranslatableTypes[f.Type] || SystemFields[f.Name] {
		return false
	}
	return !(f.ReadOnly && f.Type == "Data")
}

// SyncFields merges resolved fields into the map. Existing mappings keep
// their Translate flag, new fields are added untranslated, and mappings for
// fields no longer present are dropped. Order follows descriptors.
func (m *TranslationMap) SyncFields(descriptors []FieldDescriptor) {
	existing := make(map[string]FieldMapping, len(m.FieldMappings))
	for _, fm := range m.FieldMappings {
		existing[fm.FieldName] = fm
	}

	mappings := make([]FieldMapping, 0, len(descriptors))
	for _, d := range descriptors {
		mappings = append(mappings, FieldMapping{
			FieldName:  d.FieldName,
			FieldLabel: d.FieldLabel,
			FieldType:  d.FieldType,
			Translate:  existing[d.FieldName].Translate,
		})
	}
	m.FieldMappings = mappings
}
