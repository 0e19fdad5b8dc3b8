package vertrans

import (
	"context"
	"errors"
	"sync"
)

// ViewState is the display state of a ToggleView.
type ViewState string

const (
	StateOriginal   ViewState = "original"
	StateTranslated ViewState = "translated"
)

var (
	// ErrUnsavedDocument is returned when a translation is requested for a
	// document that has never been saved.
	ErrUnsavedDocument = errors.New("document must be saved before showing a translation")

	// ErrNoTranslation is returned when the store has nothing for the
	// current version and language. The UI shows "no translation available".
	ErrNoTranslation = errors.New("no translation available")

	// ErrLookupInFlight is returned when a lookup is already running.
	ErrLookupInFlight = errors.New("translation lookup already in progress")

	// ErrLookupSuperseded is returned when the view changed while a lookup
	// was running and its result was discarded.
	ErrLookupSuperseded = errors.New("translation lookup superseded")

	// ErrOverlayReadOnly is returned when editing a field while translated
	// values are displayed.
	ErrOverlayReadOnly = errors.New("fields are read-only while a translation is displayed")
)

// Document identifies the record an open form is showing.
type Document struct {
	RecordType string
	RecordID   string
	Modified   string
	IsNew      bool
}

// ToggleView is the display overlay of one open form. It swaps the values
// shown for a record between the original text and a stored translation
// without ever changing what gets saved. Each form owns its own view.
type ToggleView struct {
	mu         sync.Mutex
	reader     TranslationReader
	doc        Document
	fields     map[string]string
	originals  map[string]string
	state      ViewState
	language   string
	dirty      bool
	generation uint64
	inFlight   bool
}

// NewToggleView creates a view over the given field values.
func NewToggleView(doc Document, fields map[string]string, reader TranslationReader) *ToggleView {
	return &ToggleView{
		reader: reader,
		doc:    doc,
		fields: copyFields(fields),
		state:  StateOriginal,
	}
}

// State returns the current display state.
func (v *ToggleView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Language returns the displayed translation language, or "" in original state.
func (v *ToggleView) Language() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.language
}

// Dirty reports whether the user edited a field since the last save.
// Toggling never sets it.
func (v *ToggleView) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

// Fields returns a copy of the currently displayed values.
func (v *ToggleView) Fields() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyFields(v.fields)
}

// SetField records a user edit. Edits are rejected while translated values
// are shown. An edit made while a lookup is running supersedes the lookup,
// so its result can never replace the edited values.
func (v *ToggleView) SetField(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateTranslated {
		return ErrOverlayReadOnly
	}
	if v.fields[name] != value {
		v.fields[name] = value
		v.dirty = true
		if v.inFlight {
			v.generation++
			v.inFlight = false
		}
	}
	return nil
}

// ShowTranslation overlays the stored translation for language. The
// displayed values are snapshotted before the store is queried. When the
// store has nothing, ErrNoTranslation is returned and the view stays as it was.
func (v *ToggleView) ShowTranslation(ctx context.Context, language string) error {
	v.mu.Lock()
	if v.doc.IsNew {
		v.mu.Unlock()
		return ErrUnsavedDocument
	}
	if v.inFlight {
		v.mu.Unlock()
		return ErrLookupInFlight
	}
	lang := StoreLang(language)
	if v.state == StateTranslated && v.language == lang {
		v.mu.Unlock()
		return nil
	}

	version, err := VersionID(v.doc.RecordType, v.doc.RecordID, v.doc.Modified)
	if err != nil {
		v.mu.Unlock()
		return err
	}

	if v.state == StateOriginal {
		v.originals = copyFields(v.fields)
	}
	v.inFlight = true
	v.generation++
	gen := v.generation
	key := StoreKey{
		RecordType: v.doc.RecordType,
		RecordID:   v.doc.RecordID,
		Version:    version,
		Language:   lang,
	}
	v.mu.Unlock()

	translated, err := Lookup(ctx, v.reader, key)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation == gen {
		v.inFlight = false
	}
	if err != nil {
		return err
	}
	if v.generation != gen {
		return ErrLookupSuperseded
	}
	if len(translated) == 0 {
		return ErrNoTranslation
	}

	display := copyFields(v.originals)
	for name, text := range translated {
		if _, ok := display[name]; ok {
			display[name] = text
		}
	}
	v.fields = display
	v.state = StateTranslated
	v.language = lang
	return nil
}

// ShowOriginal restores the snapshotted original values. A lookup still in
// flight is discarded when it returns.
func (v *ToggleView) ShowOriginal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.restoreLocked()
}

// BeforeSave must be called right before the form is saved. It restores the
// original values if a translation is shown and returns the values to persist.
func (v *ToggleView) BeforeSave() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.restoreLocked()
	return copyFields(v.fields)
}

// Saved records a completed save with the record's new modified timestamp.
func (v *ToggleView) Saved(modified string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.doc.Modified = modified
	v.doc.IsNew = false
	v.dirty = false
}

func (v *ToggleView) restoreLocked() {
	v.generation++
	v.inFlight = false
	if v.state == StateTranslated {
		v.fields = copyFields(v.originals)
	}
	v.state = StateOriginal
	v.language = ""
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, val := range in {
		out[k] = val
	}
	return out
}
