package vertrans

import "sort"

// DiffResult represents the difference between two snapshots of a record's fields.
type DiffResult struct {
	// Added contains fields present only in the new snapshot.
	Added []string

	// Removed contains fields present only in the previous snapshot.
	Removed []string

	// Modified contains fields present in both snapshots with different text.
	Modified []string

	// Unchanged contains fields whose text is identical in both snapshots.
	Unchanged []string
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the fields whose new text must be translated:
// added and modified fields, sorted by name.
func (d *DiffResult) NeedsTranslation() []string {
	result := make([]string, 0, len(d.Added)+len(d.Modified))
	result = append(result, d.Added...)
	result = append(result, d.Modified...)
	sort.Strings(result)
	return result
}

// DiffFields compares the translatable text of the mapped fields in two
// snapshots. Only mappings with Translate set are considered; values are
// compared after FieldText conversion, so a nil and an empty string are equal.
func DiffFields(mappings []FieldMapping, previous, current map[string]any) *DiffResult {
	result := &DiffResult{}

	for _, fm := range mappings {
		if !fm.Translate {
			continue
		}
		oldText := FieldText(fm.FieldType, previous[fm.FieldName])
		newText := FieldText(fm.FieldType, current[fm.FieldName])

		switch {
		case oldText == newText:
			result.Unchanged = append(result.Unchanged, fm.FieldName)
		case oldText == "":
			result.Added = append(result.Added, fm.FieldName)
		case newText == "":
			result.Removed = append(result.Removed, fm.FieldName)
		default:
			result.Modified = append(result.Modified, fm.FieldName)
		}
	}

	return result
}

// RelevantChange reports whether an update touched a translated field.
// Clearing a field counts: the save produces a new version whose remaining
// fields still need translations. Without a previous snapshot every
// non-empty translated field counts as changed.
func RelevantChange(m TranslationMap, evt UpdateEvent) bool {
	if evt.Previous == nil {
		for _, fm := range m.TranslatedFields() {
			if FieldText(fm.FieldType, evt.Current[fm.FieldName]) != "" {
				return true
			}
		}
		return false
	}
	return DiffFields(m.FieldMappings, evt.Previous, evt.Current).HasChanges()
}
