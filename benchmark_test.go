package vertrans_test

import (
	"context"
	"testing"

	"github.com/ZaguanLabs/vertrans"
	"github.com/ZaguanLabs/vertrans/store"
)

// Benchmarks for performance validation

func BenchmarkVersionID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = vertrans.VersionID("Article", "ART-001", "2025-01-01 10:00:00.123456")
	}
}

func BenchmarkHashBase36(b *testing.B) {
	s := "Knowledge Base Article_KB-2025-000123_20250101100000"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vertrans.HashBase36(s)
	}
}

func BenchmarkFieldText_RichText(b *testing.B) {
	html := `<div><h1>Willkommen</h1><p>Finden Sie die <b>besten</b> Produkte.</p><script>x()</script></div>`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vertrans.FieldText("Text Editor", html)
	}
}

func BenchmarkDiffFields(b *testing.B) {
	mappings := []vertrans.FieldMapping{
		{FieldName: "title", FieldType: "Data", Translate: true},
		{FieldName: "body", FieldType: "Text Editor", Translate: true},
		{FieldName: "summary", FieldType: "Small Text", Translate: true},
	}
	prev := map[string]any{"title": "Hallo", "body": "<p>Alt</p>", "summary": "Kurz"}
	curr := map[string]any{"title": "Hallo", "body": "<p>Neu</p>", "summary": "Kurz"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vertrans.DiffFields(mappings, prev, curr)
	}
}

func BenchmarkMemoryStore_Get(b *testing.B) {
	st := store.NewMemory()
	key := vertrans.StoreKey{RecordType: "Article", RecordID: "ART-001", Version: "ART-001_g5a3p9", Language: "en"}
	ctx := context.Background()
	_ = st.Upsert(ctx, key, "title", "Hello World")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = st.Get(ctx, key)
	}
}

func BenchmarkParallelLookup(b *testing.B) {
	st := store.NewMemory()
	base := vertrans.StoreKey{RecordType: "Article", RecordID: "ART-001", Version: "ART-001_g5a3p9"}
	ctx := context.Background()
	langs := []string{"en", "fr", "es", "it"}
	for _, lang := range langs {
		key := base
		key.Language = lang
		_ = st.Upsert(ctx, key, "title", "x")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vertrans.ParallelLookup(ctx, st, base, langs)
	}
}
