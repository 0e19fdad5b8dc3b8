package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZaguanLabs/vertrans"
	"github.com/ZaguanLabs/vertrans/docstore"
	"github.com/ZaguanLabs/vertrans/provider"
	"github.com/ZaguanLabs/vertrans/queue"
	"github.com/ZaguanLabs/vertrans/settings"
	"github.com/ZaguanLabs/vertrans/store"
)

const articleVersion = "ART-001_g5a3p9"

type fixture struct {
	handler http.Handler
	orch    *vertrans.Orchestrator
	store   *store.Memory
	repo    *settings.MemoryRepository
	docs    *docstore.Memory
	jobs    *queue.Channel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	docs := docstore.NewMemory()
	docs.PutSchema("Article", []vertrans.FieldSchema{
		{Name: "name", Type: "Data"},
		{Name: "title", Label: "Title", Type: "Data"},
		{Name: "body", Label: "Body", Type: "Text Editor"},
		{Name: "views", Label: "Views", Type: "Int"},
	})
	docs.PutRecord(vertrans.Record{
		Type:     "Article",
		ID:       "ART-001",
		Modified: "2025-01-01 10:00:00",
		Fields:   map[string]any{"title": "Hallo Welt", "body": "<p>Guten Morgen</p>", "views": 3},
	})

	repo := settings.NewMemoryRepository()
	if _, err := repo.UpsertSettings(ctx, vertrans.Settings{
		APIKey:                "secret",
		EnableAutoTranslation: true,
		AutoTranslateOnUpdate: true,
		SourceLanguage:        "de",
		TargetLanguages:       "EN",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.SaveMap(ctx, vertrans.TranslationMap{
		RecordType: "Article",
		IsActive:   true,
		FieldMappings: []vertrans.FieldMapping{
			{FieldName: "title", FieldType: "Data", Translate: true},
			{FieldName: "body", FieldType: "Text Editor", Translate: true},
		},
	}); err != nil {
		t.Fatal(err)
	}

	st := store.NewMemory()
	jobs := queue.NewChannel(10)
	orch := vertrans.NewOrchestrator(docs, repo, st, provider.NewMockProvider(), vertrans.WithDispatcher(jobs))

	srv := NewServer(orch, repo, docs, st, nil)
	return &fixture{handler: srv.Handler(), orch: orch, store: st, repo: repo, docs: docs, jobs: jobs}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetFieldsForTranslation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/api/method/get_fields_for_translation?record_type=Article", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	fields := decode[[]vertrans.FieldDescriptor](t, rec)
	if len(fields) != 2 || fields[0].FieldName != "title" || fields[1].FieldName != "body" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestGetFieldsForTranslation_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing param", "/api/method/get_fields_for_translation", http.StatusBadRequest},
		{"unknown type", "/api/method/get_fields_for_translation?record_type=Invoice", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "GET", tt.target, nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if body := decode[errorBody](t, rec); body.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestGetTranslationForUI(t *testing.T) {
	f := newFixture(t)
	key := vertrans.StoreKey{RecordType: "Article", RecordID: "ART-001", Version: articleVersion, Language: "en"}
	if err := f.store.Upsert(context.Background(), key, "title", "Hello World"); err != nil {
		t.Fatal(err)
	}

	rec := f.do(t, "GET", "/api/method/get_translation_for_ui?record_type=Article&record_id=ART-001&version_id="+articleVersion+"&language=EN", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	fields := decode[map[string]string](t, rec)
	if fields["title"] != "Hello World" {
		t.Errorf("fields = %v", fields)
	}
}

func TestGetTranslationForUI_Empty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/api/method/get_translation_for_ui?record_type=Article&record_id=ART-001&version_id=ART-001_zzz&language=fr", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "{}" {
		t.Errorf("body = %s, want {}", got)
	}
}

func TestGetVersionID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/api/method/get_version_id?record_type=Article&record_id=ART-001&modified=2025-01-01+10:00:00", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := decode[map[string]string](t, rec)["version_id"]; got != articleVersion {
		t.Errorf("version_id = %q, want %q", got, articleVersion)
	}
}

func TestOnUpdate_Dispatches(t *testing.T) {
	f := newFixture(t)

	evt := vertrans.UpdateEvent{
		RecordType: "Article",
		RecordID:   "ART-001",
		Current:    map[string]any{"title": "Hallo Welt!"},
		Previous:   map[string]any{"title": "Hallo Welt"},
	}
	rec := f.do(t, "POST", "/api/hooks/on_update", evt)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if f.jobs.Len() != 1 {
		t.Errorf("queued jobs = %d, want 1", f.jobs.Len())
	}
}

func TestOnUpdate_IrrelevantChange(t *testing.T) {
	f := newFixture(t)

	evt := vertrans.UpdateEvent{
		RecordType: "Article",
		RecordID:   "ART-001",
		Current:    map[string]any{"title": "Hallo Welt", "views": 4},
		Previous:   map[string]any{"title": "Hallo Welt", "views": 3},
	}
	rec := f.do(t, "POST", "/api/hooks/on_update", evt)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.jobs.Len() != 0 {
		t.Errorf("queued jobs = %d, want 0", f.jobs.Len())
	}
}

func TestOnUpdate_QueueFullStillAccepted(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		if err := f.jobs.Dispatch(context.Background(), vertrans.Job{RecordType: "Article", RecordID: "ART-001"}); err != nil {
			t.Fatalf("filling queue: %v", err)
		}
	}

	evt := vertrans.UpdateEvent{
		RecordType: "Article",
		RecordID:   "ART-001",
		Current:    map[string]any{"title": "Hallo Welt!"},
		Previous:   map[string]any{"title": "Hallo Welt"},
	}
	rec := f.do(t, "POST", "/api/hooks/on_update", evt)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if f.jobs.Len() != 10 {
		t.Errorf("queued jobs = %d, want 10", f.jobs.Len())
	}
}

func TestOnUpdate_BadBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("POST", "/api/hooks/on_update", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranslateRecordThenLookup(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "POST", "/api/method/translate_record?record_type=Article&record_id=ART-001", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	result := decode[vertrans.Result](t, rec)
	if result.Version != articleVersion || result.Translated() != 2 {
		t.Errorf("result = %+v", result)
	}

	rec = f.do(t, "GET", "/api/method/get_translations?record_type=Article&record_id=ART-001&version_id="+articleVersion+"&languages=en,fr", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	all := decode[map[string]map[string]string](t, rec)
	if all["en"]["title"] != "Hello World" {
		t.Errorf("en = %v", all["en"])
	}
	if len(all["fr"]) != 0 {
		t.Errorf("fr = %v, want empty", all["fr"])
	}

	rec = f.do(t, "GET", "/api/method/get_translation_status?record_type=Article&record_id=ART-001&version_id="+articleVersion+"&language=en", nil)
	if got := decode[map[string]string](t, rec)["status"]; got != string(vertrans.StatusCompleted) {
		t.Errorf("status = %q", got)
	}
}

func TestGetOriginalLanguage(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		target string
		want   string
	}{
		{"/api/method/get_original_language?record_type=Article", "de"},
		{"/api/method/get_original_language?record_type=Article&lang=FR", "fr"},
		{"/api/method/get_original_language?record_type=Invoice", ""},
	}
	for _, tt := range tests {
		rec := f.do(t, "GET", tt.target, nil)
		if got := decode[map[string]string](t, rec)["original_language"]; got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestSettings_MasksAPIKey(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/api/settings", nil)
	got := decode[vertrans.Settings](t, rec)
	if got.APIKey != maskedKey {
		t.Errorf("api_key = %q, want masked", got.APIKey)
	}

	got.TargetLanguages = "EN,FR"
	rec = f.do(t, "PUT", "/api/settings", got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	stored, err := f.repo.Settings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stored.APIKey != "secret" {
		t.Errorf("stored key = %q, masked value must keep the key", stored.APIKey)
	}
	if stored.TargetLanguages != "EN,FR" {
		t.Errorf("targets = %q", stored.TargetLanguages)
	}
}

func TestMaps_PutConflict(t *testing.T) {
	f := newFixture(t)

	m := vertrans.TranslationMap{RecordType: "Article", IsActive: true}
	rec := f.do(t, "PUT", "/api/maps/Article%20v2", m)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a second active map", rec.Code)
	}

	m.IsActive = false
	rec = f.do(t, "PUT", "/api/maps/Article%20v2", m)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = f.do(t, "GET", "/api/maps", nil)
	if maps := decode[[]vertrans.TranslationMap](t, rec); len(maps) != 2 {
		t.Errorf("maps = %+v", maps)
	}
}

func TestMaps_Sync(t *testing.T) {
	f := newFixture(t)
	f.docs.PutSchema("Article", []vertrans.FieldSchema{
		{Name: "title", Label: "Title", Type: "Data"},
		{Name: "subtitle", Label: "Subtitle", Type: "Data"},
	})

	rec := f.do(t, "POST", "/api/maps/Article/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	m := decode[vertrans.TranslationMap](t, rec)
	want := []vertrans.FieldMapping{
		{FieldName: "title", FieldLabel: "Title", FieldType: "Data", Translate: true},
		{FieldName: "subtitle", FieldLabel: "Subtitle", FieldType: "Data", Translate: false},
	}
	if len(m.FieldMappings) != len(want) {
		t.Fatalf("mappings = %+v", m.FieldMappings)
	}
	for i := range want {
		if m.FieldMappings[i] != want[i] {
			t.Errorf("mapping %d = %+v, want %+v", i, m.FieldMappings[i], want[i])
		}
	}
}

func TestMaps_GetMissing(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/api/maps/Invoice", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
