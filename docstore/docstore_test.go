package docstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZaguanLabs/vertrans"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.PutSchema("Article", []vertrans.FieldSchema{{Name: "title", Type: "Data"}})
	m.PutRecord(vertrans.Record{
		Type: "Article", ID: "ART-001", Modified: "2025-01-01 10:00:00",
		Fields: map[string]any{"title": "Hallo Welt"},
	})
	ctx := context.Background()

	fields, err := m.Schema(ctx, "Article")
	if err != nil || len(fields) != 1 {
		t.Fatalf("Schema() = %v, %v", fields, err)
	}
	if _, err := m.Schema(ctx, "Invoice"); !vertrans.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	r, err := m.Record(ctx, "Article", "ART-001")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	r.Fields["title"] = "changed"

	again, _ := m.Record(ctx, "Article", "ART-001")
	if again.Fields["title"] != "Hallo Welt" {
		t.Error("returned records must be snapshots")
	}
	if _, err := m.Record(ctx, "Article", "ART-404"); !vertrans.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func newFrappeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/method/frappe.desk.form.load.getdoctype", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token key:secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("doctype") != "Blog Post" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"exc_type": "DoesNotExistError"}`))
			return
		}
		_, _ = w.Write([]byte(`{"docs": [
			{"name": "Blog Post Tag", "fields": [{"fieldname": "tag", "fieldtype": "Data"}]},
			{"name": "Blog Post", "fields": [
				{"fieldname": "title", "label": "Title", "fieldtype": "Data", "read_only": 0},
				{"fieldname": "route", "label": "Route", "fieldtype": "Data", "read_only": 1},
				{"fieldname": "", "fieldtype": "Section Break"},
				{"fieldname": "content", "label": "Content", "fieldtype": "Text Editor"}
			]}
		]}`))
	})
	mux.HandleFunc("/api/resource/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/resource/Blog Post/post-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data": {"name": "post-1", "title": "Hallo Welt", "modified": "2025-01-01 10:00:00.123456", "views": 3}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFrappe_Schema(t *testing.T) {
	srv := newFrappeServer(t)
	f, err := NewFrappe(FrappeConfig{BaseURL: srv.URL + "/", APIKey: "key", APISecret: "secret"})
	if err != nil {
		t.Fatalf("NewFrappe() error = %v", err)
	}

	fields, err := f.Schema(context.Background(), "Blog Post")
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %+v", fields)
	}
	if fields[0].Name != "title" || fields[0].Label != "Title" || fields[0].ReadOnly {
		t.Errorf("unexpected first field %+v", fields[0])
	}
	if !fields[1].ReadOnly {
		t.Error("route should be read-only")
	}

	// Resolving fields end to end
	descriptors, err := vertrans.ResolveFields(context.Background(), f, "Blog Post")
	if err != nil {
		t.Fatalf("ResolveFields() error = %v", err)
	}
	if len(descriptors) != 2 || descriptors[1].FieldType != "Text Editor" {
		t.Errorf("ResolveFields() = %+v", descriptors)
	}
}

func TestFrappe_SchemaNotFound(t *testing.T) {
	srv := newFrappeServer(t)
	f, _ := NewFrappe(FrappeConfig{BaseURL: srv.URL, APIKey: "key", APISecret: "secret"})

	if _, err := f.Schema(context.Background(), "Invoice"); !vertrans.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestFrappe_Forbidden(t *testing.T) {
	srv := newFrappeServer(t)
	f, _ := NewFrappe(FrappeConfig{BaseURL: srv.URL, APIKey: "key", APISecret: "wrong"})

	if _, err := f.Schema(context.Background(), "Blog Post"); !vertrans.IsConfiguration(err) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}

func TestFrappe_Record(t *testing.T) {
	srv := newFrappeServer(t)
	f, _ := NewFrappe(FrappeConfig{BaseURL: srv.URL})

	r, err := f.Record(context.Background(), "Blog Post", "post-1")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if r.Modified != "2025-01-01 10:00:00.123456" || r.Fields["title"] != "Hallo Welt" {
		t.Errorf("unexpected record %+v", r)
	}

	version, err := vertrans.VersionID(r.Type, r.ID, r.Modified)
	if err != nil {
		t.Fatal(err)
	}
	if version[:len("post-1_")] != "post-1_" {
		t.Errorf("VersionID() = %q", version)
	}

	if _, err := f.Record(context.Background(), "Blog Post", "post-2"); !vertrans.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestNewFrappe_InvalidURL(t *testing.T) {
	if _, err := NewFrappe(FrappeConfig{BaseURL: "not a url"}); !vertrans.IsConfiguration(err) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}
