package vertrans_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"github.com/ZaguanLabs/vertrans/docstore"
	"github.com/ZaguanLabs/vertrans/provider"
	"github.com/ZaguanLabs/vertrans/queue"
	"github.com/ZaguanLabs/vertrans/settings"
	"github.com/ZaguanLabs/vertrans/store"
)

// Integration tests using all real components

type system struct {
	docs     *docstore.Memory
	repo     *settings.MemoryRepository
	store    *store.Memory
	provider *provider.MockProvider
}

func newSystem(t *testing.T, targets string) *system {
	t.Helper()
	ctx := context.Background()

	docs := docstore.NewMemory()
	docs.PutSchema("Article", []vertrans.FieldSchema{
		{Name: "title", Label: "Title", Type: "Data"},
		{Name: "body", Label: "Body", Type: "Text Editor"},
		{Name: "views", Label: "Views", Type: "Int"},
	})
	docs.PutRecord(vertrans.Record{
		Type:     "Article",
		ID:       "ART-001",
		Modified: "2025-01-01 10:00:00",
		Fields:   map[string]any{"title": "Hallo Welt", "body": "<p>Willkommen</p>", "views": 1},
	})

	repo := settings.NewMemoryRepository()
	if _, err := repo.UpsertSettings(ctx, vertrans.Settings{
		APIKey:                "key",
		EnableAutoTranslation: true,
		AutoTranslateOnUpdate: true,
		SourceLanguage:        "de",
		TargetLanguages:       targets,
	}); err != nil {
		t.Fatal(err)
	}

	m := vertrans.TranslationMap{RecordType: "Article", IsActive: true}
	fields, err := vertrans.ResolveFields(ctx, docs, "Article")
	if err != nil {
		t.Fatal(err)
	}
	m.SyncFields(fields)
	for i := range m.FieldMappings {
		m.FieldMappings[i].Translate = true
	}
	if _, err := repo.SaveMap(ctx, m); err != nil {
		t.Fatal(err)
	}

	p := provider.NewMockProvider()
	p.Translations["<p>Willkommen</p>"] = "<p>Welcome</p>"
	p.Translations["Hallo Erde"] = "Hello Earth"

	return &system{docs: docs, repo: repo, store: store.NewMemory(), provider: p}
}

func (s *system) form(t *testing.T) *vertrans.ToggleView {
	t.Helper()
	rec, err := s.docs.Record(context.Background(), "Article", "ART-001")
	if err != nil {
		t.Fatal(err)
	}
	values := map[string]string{}
	for name, v := range rec.Fields {
		values[name] = vertrans.FieldText("Data", v)
	}
	doc := vertrans.Document{RecordType: rec.Type, RecordID: rec.ID, Modified: rec.Modified}
	return vertrans.NewToggleView(doc, values, s.store)
}

func TestIntegration_UpdateThenToggle(t *testing.T) {
	s := newSystem(t, "EN,FR")
	ctx := context.Background()

	o := vertrans.NewOrchestrator(s.docs, s.repo, s.store, s.provider)
	err := o.OnUpdate(ctx, vertrans.UpdateEvent{
		RecordType: "Article",
		RecordID:   "ART-001",
		Current:    map[string]any{"title": "Hallo Welt"},
	})
	if err != nil {
		t.Fatalf("OnUpdate failed: %v", err)
	}
	o.Dispatcher().(*vertrans.InlineDispatcher).Wait()

	// title and body in two languages
	if s.store.Len() != 4 {
		t.Errorf("stored entries = %d, want 4", s.store.Len())
	}

	view := s.form(t)
	if err := view.ShowTranslation(ctx, "EN"); err != nil {
		t.Fatalf("ShowTranslation failed: %v", err)
	}
	fields := view.Fields()
	if fields["title"] != "Hello World" || fields["body"] != "<p>Welcome</p>" {
		t.Errorf("EN fields = %v", fields)
	}

	view.ShowOriginal()
	if err := view.ShowTranslation(ctx, "fr"); err != nil {
		t.Fatalf("ShowTranslation fr failed: %v", err)
	}
	if got := view.Fields()["title"]; got != "[FR] Hello World" {
		t.Errorf("FR title = %q", got)
	}

	saved := view.BeforeSave()
	if saved["title"] != "Hallo Welt" {
		t.Errorf("saved title = %q, want original", saved["title"])
	}

	version, _ := vertrans.VersionID("Article", "ART-001", "2025-01-01 10:00:00")
	status, err := s.store.Status(ctx, vertrans.StoreKey{RecordType: "Article", RecordID: "ART-001", Version: version, Language: "en"})
	if err != nil || status != vertrans.StatusCompleted {
		t.Errorf("status = %q, %v", status, err)
	}
}

func TestIntegration_NewVersion(t *testing.T) {
	s := newSystem(t, "EN")
	ctx := context.Background()
	o := vertrans.NewOrchestrator(s.docs, s.repo, s.store, s.provider)

	first, err := o.TranslateRecord(ctx, "Article", "ART-001")
	if err != nil {
		t.Fatal(err)
	}

	s.docs.PutRecord(vertrans.Record{
		Type:     "Article",
		ID:       "ART-001",
		Modified: "2025-01-02 09:15:00",
		Fields:   map[string]any{"title": "Hallo Erde", "body": "<p>Willkommen</p>"},
	})

	// Before the new version is translated, the form has nothing to show
	view := s.form(t)
	if err := view.ShowTranslation(ctx, "en"); !errors.Is(err, vertrans.ErrNoTranslation) {
		t.Fatalf("expected ErrNoTranslation, got %v", err)
	}

	second, err := o.TranslateRecord(ctx, "Article", "ART-001")
	if err != nil {
		t.Fatal(err)
	}
	if first.Version == second.Version {
		t.Fatal("a new modified timestamp must give a new version")
	}

	old, err := vertrans.Lookup(ctx, s.store, vertrans.StoreKey{RecordType: "Article", RecordID: "ART-001", Version: first.Version, Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if old["title"] != "Hello World" {
		t.Errorf("old version title = %q, old translations must stay readable", old["title"])
	}

	if err := view.ShowTranslation(ctx, "en"); err != nil {
		t.Fatalf("ShowTranslation failed: %v", err)
	}
	if got := view.Fields()["title"]; got != "Hello Earth" {
		t.Errorf("title = %q, want Hello Earth", got)
	}
}

func TestIntegration_Idempotent(t *testing.T) {
	s := newSystem(t, "EN")
	ctx := context.Background()
	o := vertrans.NewOrchestrator(s.docs, s.repo, s.store, s.provider)

	for i := 0; i < 2; i++ {
		if _, err := o.TranslateRecord(ctx, "Article", "ART-001"); err != nil {
			t.Fatal(err)
		}
	}
	if s.store.Len() != 2 {
		t.Errorf("stored entries = %d after re-run, want 2", s.store.Len())
	}
}

func TestIntegration_SourceLanguageSkipped(t *testing.T) {
	s := newSystem(t, "DE,EN")
	o := vertrans.NewOrchestrator(s.docs, s.repo, s.store, s.provider)

	result, err := o.TranslateRecord(context.Background(), "Article", "ART-001")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Languages) != 1 || result.Languages[0].Language != "en" {
		t.Errorf("languages = %+v, want only en", result.Languages)
	}
}

func TestIntegration_QueueWorker(t *testing.T) {
	s := newSystem(t, "EN")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := queue.NewChannel(10)
	o := vertrans.NewOrchestrator(s.docs, s.repo, s.store, s.provider, vertrans.WithDispatcher(jobs))

	if err := o.OnUpdate(ctx, vertrans.UpdateEvent{RecordType: "Article", RecordID: "ART-001", Current: map[string]any{"title": "Hallo Welt"}}); err != nil {
		t.Fatal(err)
	}
	if jobs.Len() != 1 {
		t.Fatalf("queued jobs = %d, want 1", jobs.Len())
	}

	w := queue.NewWorker(jobs, o.HandleJob, nil, queue.WorkerConfig{PollTimeout: 10 * time.Millisecond})
	go w.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for s.store.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("worker stored %d entries, want 2", s.store.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestIntegration_ProviderFailureIsolated(t *testing.T) {
	s := newSystem(t, "EN")
	s.provider.Errors["<p>Willkommen</p>"] = &vertrans.ProviderError{Message: "quota exceeded", StatusCode: 456}
	o := vertrans.NewOrchestrator(s.docs, s.repo, s.store, s.provider)

	result, err := o.TranslateRecord(context.Background(), "Article", "ART-001")
	if err != nil {
		t.Fatal(err)
	}
	lr := result.Languages[0]
	if lr.Translated != 1 || lr.Failed != 1 || lr.Status != vertrans.StatusCompleted {
		t.Errorf("language result = %+v", lr)
	}
}
