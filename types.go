package vertrans

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldSchema describes a single field as reported by the document store.
type FieldSchema struct {
	Name     string
	Label    string
	Type     string
	ReadOnly bool
}

// FieldDescriptor is a field eligible for translation.
type FieldDescriptor struct {
	FieldName  string `json:"field_name"`
	FieldLabel string `json:"field_label"`
	FieldType  string `json:"field_type"`
}

// FieldMapping marks a field of a record type as translatable or not.
type FieldMapping struct {
	FieldName  string `json:"field_name"`
	FieldLabel string `json:"field_label"`
	FieldType  string `json:"field_type"`
	Translate  bool   `json:"translate"`
}

// TranslationMap declares which fields of a record type are translated.
// Several maps may exist for one record type but at most one is active.
// Name identifies the map and defaults to the record type.
type TranslationMap struct {
	Name          string         `json:"name"`
	RecordType    string         `json:"record_type"`
	IsActive      bool           `json:"is_active"`
	FieldMappings []FieldMapping `json:"field_mappings"`
}

// Validate checks the map for structural errors.
func (m TranslationMap) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.RecordType, validation.Required),
	)
	if err != nil {
		return toValidationError(err)
	}
	seen := make(map[string]bool, len(m.FieldMappings))
	for _, fm := range m.FieldMappings {
		if strings.TrimSpace(fm.FieldName) == "" {
			return &ValidationError{Field: "field_mappings", Message: "field name cannot be blank"}
		}
		if seen[fm.FieldName] {
			return &ValidationError{Field: "field_mappings", Message: "duplicate field " + fm.FieldName}
		}
		seen[fm.FieldName] = true
	}
	return nil
}

// TranslatedFields returns the mappings with Translate set, in map order.
func (m TranslationMap) TranslatedFields() []FieldMapping {
	var out []FieldMapping
	for _, fm := range m.FieldMappings {
		if fm.Translate {
			out = append(out, fm)
		}
	}
	return out
}

// Settings is the singleton translation configuration.
type Settings struct {
	APIKey                string `json:"api_key"`
	APIURL                string `json:"api_url,omitempty"`
	EnableAutoTranslation bool   `json:"enable_auto_translation"`
	AutoTranslateOnUpdate bool   `json:"auto_translate_on_update"`
	SourceLanguage        string `json:"default_source_language"`
	TargetLanguages       string `json:"default_target_languages"`
}

// DefaultSourceLanguage is used when Settings.SourceLanguage is empty.
const DefaultSourceLanguage = "de"

// Validate checks the settings for malformed values.
func (s Settings) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.SourceLanguage, validation.Length(0, 10)),
		validation.Field(&s.APIURL, validation.By(func(value any) error {
			u, _ := value.(string)
			if u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return validation.NewError("validation_url", "must be an http(s) URL")
			}
			return nil
		})),
	)
	return toValidationError(err)
}

// Source returns the configured source language or the default.
func (s Settings) Source() string {
	if strings.TrimSpace(s.SourceLanguage) == "" {
		return DefaultSourceLanguage
	}
	return strings.TrimSpace(s.SourceLanguage)
}

// Targets returns the configured target languages, upper-cased and de-duplicated.
func (s Settings) Targets() []string {
	return ParseLanguages(s.TargetLanguages)
}

// Record is a snapshot of a document as stored by the document store.
type Record struct {
	Type     string
	ID       string
	Modified string
	Fields   map[string]any
}

// UpdateEvent is delivered by the document store after a record update.
// Previous may be nil when the store does not report the prior state.
type UpdateEvent struct {
	RecordType string         `json:"record_type"`
	RecordID   string         `json:"record_id"`
	Current    map[string]any `json:"current"`
	Previous   map[string]any `json:"previous,omitempty"`
}

// StoreKey identifies one stored translation of one record version.
type StoreKey struct {
	RecordType string `json:"record_type"`
	RecordID   string `json:"record_id"`
	Version    string `json:"version_id"`
	Language   string `json:"language"`
}

// Normalize returns the key with the language in its stored lower-case form.
func (k StoreKey) Normalize() StoreKey {
	k.Language = StoreLang(k.Language)
	return k
}

// Validate reports a ValidationError when any component of the key is blank.
func (k StoreKey) Validate() error {
	err := validation.ValidateStruct(&k,
		validation.Field(&k.RecordType, validation.Required),
		validation.Field(&k.RecordID, validation.Required),
		validation.Field(&k.Version, validation.Required),
		validation.Field(&k.Language, validation.Required),
	)
	return toValidationError(err)
}

// String renders the key as a colon separated path.
func (k StoreKey) String() string {
	return k.RecordType + ":" + k.RecordID + ":" + k.Version + ":" + k.Language
}

// TranslationStatus is the outcome of translating one record version into one language.
type TranslationStatus string

const (
	StatusCompleted TranslationStatus = "Completed"
	StatusFailed    TranslationStatus = "Failed"
)

// Entry is a single stored field translation.
type Entry struct {
	Key       StoreKey  `json:"key"`
	FieldName string    `json:"field_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Job is a unit of background translation work.
type Job struct {
	RecordType string `json:"record_type"`
	RecordID   string `json:"record_id"`
}

// Result summarizes a TranslateRecord run.
type Result struct {
	RecordType string           `json:"record_type"`
	RecordID   string           `json:"record_id"`
	Version    string           `json:"version_id"`
	Languages  []LanguageResult `json:"languages"`
}

// LanguageResult holds per-language translation counts.
type LanguageResult struct {
	Language   string            `json:"language"`
	Translated int               `json:"translated"`
	Failed     int               `json:"failed"`
	Status     TranslationStatus `json:"status"`
}

// Translated returns the total number of fields translated across languages.
func (r *Result) Translated() int {
	n := 0
	for _, l := range r.Languages {
		n += l.Translated
	}
	return n
}
