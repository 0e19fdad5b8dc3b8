package vertrans

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Provider is the interface for remote translation backends.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// ProviderFactory builds a Provider from the current settings, so that
// credentials changed by an administrator take effect on the next run.
type ProviderFactory func(settings Settings) (Provider, error)

// TranslateRequest contains the parameters for translating one field value.
type TranslateRequest struct {
	Text       string
	SourceLang string // provider form, e.g. "DE"
	TargetLang string // provider form, e.g. "EN-GB"
	FieldName  string
	RichText   bool // Text is HTML markup
}

// TranslationReader is the read side of a TranslationStore.
type TranslationReader interface {
	// Get returns all stored fields for key. A missing key yields an empty map.
	Get(ctx context.Context, key StoreKey) (map[string]string, error)
}

// TranslationStore is the versioned key-value store of field translations.
type TranslationStore interface {
	TranslationReader

	// Upsert stores text for one field, replacing any previous value.
	Upsert(ctx context.Context, key StoreKey, fieldName, text string) error
}

// StatusRecorder is implemented by stores that track per-language outcomes.
type StatusRecorder interface {
	SetStatus(ctx context.Context, key StoreKey, status TranslationStatus) error
	Status(ctx context.Context, key StoreKey) (TranslationStatus, error)
}

// ConfigSource provides the translation settings and maps.
type ConfigSource interface {
	Settings(ctx context.Context) (Settings, error)
	// ActiveMap returns a NotFoundError when recordType has no active map.
	ActiveMap(ctx context.Context, recordType string) (TranslationMap, error)
}

// DocumentStore is the external store owning the source records.
type DocumentStore interface {
	SchemaSource
	Record(ctx context.Context, recordType, recordID string) (Record, error)
}

// Orchestrator reacts to record updates and fills the translation store.
type Orchestrator struct {
	docs        DocumentStore
	config      ConfigSource
	store       TranslationStore
	provider    Provider
	factory     ProviderFactory
	dispatcher  Dispatcher
	logger      *zap.SugaredLogger
	concurrency int
	jobTimeout  time.Duration
}

// OrchestratorOption is a functional option for configuring the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDispatcher sets where update jobs are sent. The default runs each job
// in its own goroutine.
func WithDispatcher(d Dispatcher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.dispatcher = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConcurrency limits how many target languages are translated at once.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithProviderFactory builds the provider from settings on every run
// instead of using a fixed provider.
func WithProviderFactory(f ProviderFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		o.factory = f
	}
}

// WithJobTimeout bounds a single background translation run.
func WithJobTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.jobTimeout = d
		}
	}
}

// NewOrchestrator creates an Orchestrator. provider may be nil when
// WithProviderFactory is given.
func NewOrchestrator(docs DocumentStore, config ConfigSource, store TranslationStore, provider Provider, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		docs:        docs,
		config:      config,
		store:       store,
		provider:    provider,
		logger:      zap.NewNop().Sugar(),
		concurrency: 4,
		jobTimeout:  10 * time.Minute,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.dispatcher == nil {
		o.dispatcher = NewInlineDispatcher(o.HandleJob, o.logger, o.jobTimeout)
	}

	return o
}

// Dispatcher returns the dispatcher jobs are sent to.
func (o *Orchestrator) Dispatcher() Dispatcher {
	return o.dispatcher
}

// OnUpdate is the record-update hook. It decides whether the update is
// relevant and, if so, dispatches a background job and returns without
// waiting for translation. Untracked record types are a silent no-op.
//
// Only a malformed event is reported to the caller. Failing to load the
// configuration or to dispatch the job is logged and never fails the save.
func (o *Orchestrator) OnUpdate(ctx context.Context, evt UpdateEvent) error {
	if evt.RecordType == "" || evt.RecordID == "" {
		return &ValidationError{Field: "record", Message: "record type and id are required"}
	}

	settings, err := o.config.Settings(ctx)
	if err != nil {
		if !IsNotFound(err) {
			o.logger.Errorw("loading settings failed",
				"recordType", evt.RecordType, "recordID", evt.RecordID, "error", err)
		}
		return nil
	}
	if !settings.EnableAutoTranslation || !settings.AutoTranslateOnUpdate {
		return nil
	}

	m, err := o.config.ActiveMap(ctx, evt.RecordType)
	if err != nil {
		if !IsNotFound(err) {
			o.logger.Errorw("loading translation map failed",
				"recordType", evt.RecordType, "recordID", evt.RecordID, "error", err)
		}
		return nil
	}
	if len(m.TranslatedFields()) == 0 || !RelevantChange(m, evt) {
		o.logger.Debugw("update not relevant for translation",
			"recordType", evt.RecordType, "recordID", evt.RecordID)
		return nil
	}

	job := Job{RecordType: evt.RecordType, RecordID: evt.RecordID}
	if err := o.dispatcher.Dispatch(ctx, job); err != nil {
		o.logger.Errorw("dispatching translation job failed",
			"recordType", job.RecordType, "recordID", job.RecordID, "error", err)
		return nil
	}
	o.logger.Infow("translation job dispatched", "recordType", job.RecordType, "recordID", job.RecordID)
	return nil
}

// HandleJob runs a dispatched job. Configuration problems are logged and
// swallowed; other failures are returned for the caller to log.
func (o *Orchestrator) HandleJob(ctx context.Context, job Job) error {
	result, err := o.TranslateRecord(ctx, job.RecordType, job.RecordID)
	if err != nil {
		if IsConfiguration(err) {
			o.logger.Warnw("translation skipped", "recordType", job.RecordType, "recordID", job.RecordID, "reason", err)
			return nil
		}
		return err
	}
	o.logger.Infow("translation job finished",
		"recordType", job.RecordType, "recordID", job.RecordID,
		"version", result.Version, "translated", result.Translated())
	return nil
}

// TranslateRecord translates the mapped fields of the current version of a
// record into every configured target language. Per-field provider failures
// are logged and skipped; the run only fails on configuration or lookup errors.
func (o *Orchestrator) TranslateRecord(ctx context.Context, recordType, recordID string) (*Result, error) {
	settings, err := o.config.Settings(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, &ConfigurationError{Message: "translation settings not configured"}
		}
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	provider, err := o.providerFor(settings)
	if err != nil {
		return nil, err
	}

	targets := settings.Targets()
	if len(targets) == 0 {
		return nil, &ConfigurationError{Message: "no target languages configured"}
	}

	m, err := o.config.ActiveMap(ctx, recordType)
	if err != nil {
		if IsNotFound(err) {
			return nil, &ConfigurationError{Message: "no active translation map for " + recordType}
		}
		return nil, fmt.Errorf("loading translation map: %w", err)
	}

	record, err := o.docs.Record(ctx, recordType, recordID)
	if err != nil {
		return nil, fmt.Errorf("loading record: %w", err)
	}

	version, err := VersionID(recordType, recordID, record.Modified)
	if err != nil {
		return nil, err
	}

	result := &Result{RecordType: recordType, RecordID: recordID, Version: version}

	fields := collectFields(m, record)
	if len(fields) == 0 {
		o.logger.Infow("no fields to translate", "recordType", recordType, "recordID", recordID)
		return result, nil
	}

	source := ProviderLang(settings.Source())
	var languages []string
	for _, target := range targets {
		if SameLanguage(source, target) {
			o.logger.Debugw("skipping source language", "language", target)
			continue
		}
		languages = append(languages, target)
	}

	results := make([]LanguageResult, len(languages))
	forEachParallel(ctx, len(languages), o.concurrency, func(ctx context.Context, i int) {
		key := StoreKey{
			RecordType: recordType,
			RecordID:   recordID,
			Version:    version,
			Language:   StoreLang(languages[i]),
		}
		results[i] = o.translateLanguage(ctx, provider, key, source, languages[i], fields)
	})
	result.Languages = results

	return result, nil
}

// fieldValue is a mapped field with its non-empty source text.
type fieldValue struct {
	mapping FieldMapping
	text    string
}

func collectFields(m TranslationMap, record Record) []fieldValue {
	var out []fieldValue
	for _, fm := range m.TranslatedFields() {
		text := FieldText(fm.FieldType, record.Fields[fm.FieldName])
		if text == "" {
			continue
		}
		out = append(out, fieldValue{mapping: fm, text: text})
	}
	return out
}

func (o *Orchestrator) translateLanguage(ctx context.Context, provider Provider, key StoreKey, source, target string, fields []fieldValue) LanguageResult {
	lr := LanguageResult{Language: key.Language}

	for _, f := range fields {
		if ctx.Err() != nil {
			lr.Failed++
			continue
		}

		translated, err := provider.Translate(ctx, TranslateRequest{
			Text:       f.text,
			SourceLang: source,
			TargetLang: target,
			FieldName:  f.mapping.FieldName,
			RichText:   IsRichText(f.mapping.FieldType),
		})
		if err != nil {
			lr.Failed++
			o.logger.Warnw("field translation failed",
				"key", key.String(), "field", f.mapping.FieldName, "error", err)
			continue
		}
		if translated == "" {
			lr.Failed++
			o.logger.Warnw("provider returned empty translation", "key", key.String(), "field", f.mapping.FieldName)
			continue
		}

		if err := o.store.Upsert(ctx, key, f.mapping.FieldName, translated); err != nil {
			lr.Failed++
			o.logger.Errorw("storing translation failed",
				"key", key.String(), "field", f.mapping.FieldName, "error", err)
			continue
		}
		lr.Translated++
	}

	lr.Status = StatusCompleted
	if lr.Translated == 0 {
		lr.Status = StatusFailed
	}
	if recorder, ok := o.store.(StatusRecorder); ok {
		if err := recorder.SetStatus(ctx, key, lr.Status); err != nil {
			o.logger.Errorw("recording translation status failed", "key", key.String(), "error", err)
		}
	}
	return lr
}

func (o *Orchestrator) providerFor(settings Settings) (Provider, error) {
	if o.factory != nil {
		p, err := o.factory(settings)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	if o.provider == nil {
		return nil, &ConfigurationError{Message: "translation API key not configured"}
	}
	return o.provider, nil
}

// OriginalLanguage returns the language a loaded record of recordType is
// written in: sessionLang (or the default source language) when the type has
// an active map, "" otherwise.
func (o *Orchestrator) OriginalLanguage(ctx context.Context, recordType, sessionLang string) (string, error) {
	if _, err := o.config.ActiveMap(ctx, recordType); err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	if sessionLang != "" {
		return StoreLang(sessionLang), nil
	}
	return DefaultSourceLanguage, nil
}
