// Package store provides translation store implementations.
//
// Every backend keys translations by record type, record id, version
// fingerprint and language, and holds one text per field name under that key.
package store

import (
	"context"

	"github.com/ZaguanLabs/vertrans"
)

// Store is a translation store that also records per-language status.
type Store interface {
	vertrans.TranslationStore
	vertrans.StatusRecorder
}

// Lister is implemented by stores that can enumerate all entries.
type Lister interface {
	Entries(ctx context.Context) ([]vertrans.Entry, error)
}

func storeError(op string, err error) error {
	return &vertrans.StoreError{Op: op, Cause: err}
}
