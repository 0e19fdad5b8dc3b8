// Package vertrans provides versioned machine translation for records held
// in an external document store.
//
// Administrators declare which record types and fields are translatable
// through a TranslationMap. When a record is updated, the Orchestrator
// translates the mapped fields with a remote Provider (DeepL, OpenAI) and
// stores the results keyed by record, version fingerprint and language.
// A ToggleView overlays the stored translation on a form without touching
// the underlying record.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    "github.com/ZaguanLabs/vertrans"
//	    "github.com/ZaguanLabs/vertrans/docstore"
//	    "github.com/ZaguanLabs/vertrans/provider"
//	    "github.com/ZaguanLabs/vertrans/settings"
//	    "github.com/ZaguanLabs/vertrans/store"
//	)
//
//	func main() {
//	    docs, err := docstore.NewFrappe(docstore.FrappeConfig{BaseURL: "https://erp.example.com"})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    cfg := settings.NewMemoryRepository()
//	    st := store.NewMemory()
//	    p := provider.NewDeepL(provider.DeepLConfig{APIKey: os.Getenv("DEEPL_API_KEY")})
//
//	    o := vertrans.NewOrchestrator(docs, cfg, st, p)
//
//	    // Called from the document store's update hook; returns immediately.
//	    _ = o.OnUpdate(context.Background(), vertrans.UpdateEvent{
//	        RecordType: "Article",
//	        RecordID:   "ART-001",
//	    })
//	}
package vertrans
