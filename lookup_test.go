package vertrans

import (
	"context"
	"testing"
)

func TestLookup_EmptyForUnknownVersion(t *testing.T) {
	got, err := Lookup(context.Background(), newMockStore(), StoreKey{
		RecordType: "Article", RecordID: "ART-001", Version: "ART-001_zzzz", Language: "en",
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil map, got %#v", got)
	}
}

func TestLookup_NormalizesLanguage(t *testing.T) {
	st := newMockStore()
	key := StoreKey{RecordType: "Article", RecordID: "ART-001", Version: "ART-001_g5a3p9", Language: "en"}
	_ = st.Upsert(context.Background(), key, "title", "Hello World")

	key.Language = "EN"
	got, err := Lookup(context.Background(), st, key)
	if err != nil {
		t.Fatal(err)
	}
	if got["title"] != "Hello World" {
		t.Errorf("title = %q", got["title"])
	}
}

func TestLookup_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   StoreKey
		field string
	}{
		{"missing type", StoreKey{RecordID: "A", Version: "A_1", Language: "en"}, "record_type"},
		{"missing id", StoreKey{RecordType: "Article", Version: "A_1", Language: "en"}, "record_id"},
		{"missing version", StoreKey{RecordType: "Article", RecordID: "A", Language: "en"}, "version_id"},
		{"missing language", StoreKey{RecordType: "Article", RecordID: "A", Version: "A_1", Language: " "}, "language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup(context.Background(), newMockStore(), tt.key)
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestUpsertFields(t *testing.T) {
	st := newMockStore()
	key := StoreKey{RecordType: "Article", RecordID: "ART-001", Version: "ART-001_g5a3p9", Language: "EN"}

	if err := UpsertFields(context.Background(), st, key, map[string]string{"title": "Hello", "body": "Body"}); err != nil {
		t.Fatalf("UpsertFields failed: %v", err)
	}
	// Overwrite
	if err := UpsertFields(context.Background(), st, key, map[string]string{"title": "Hello World"}); err != nil {
		t.Fatal(err)
	}

	got, _ := Lookup(context.Background(), st, key)
	if len(got) != 2 || got["title"] != "Hello World" || got["body"] != "Body" {
		t.Errorf("unexpected fields: %v", got)
	}
}

func TestUpsertFields_BlankFieldName(t *testing.T) {
	st := newMockStore()
	key := StoreKey{RecordType: "Article", RecordID: "ART-001", Version: "ART-001_g5a3p9", Language: "en"}

	err := UpsertFields(context.Background(), st, key, map[string]string{"title": "x", " ": "y"})
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if st.upserts != 0 {
		t.Error("nothing should be written when a field name is invalid")
	}
}
