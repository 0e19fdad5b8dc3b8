package vertrans

import (
	"context"
	"sort"
	"strings"
)

// Lookup validates key and reads its translations from store. The result
// is never nil: a version that was never translated yields an empty map.
func Lookup(ctx context.Context, store TranslationReader, key StoreKey) (map[string]string, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	fields, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// UpsertFields writes several field translations for one key. All field
// names are validated before anything is written.
func UpsertFields(ctx context.Context, store TranslationStore, key StoreKey, fields map[string]string) error {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: "field_name", Message: "cannot be blank"}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := store.Upsert(ctx, key, name, fields[name]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUpsert checks the arguments of a store Upsert. Store backends
// call it before writing.
func ValidateUpsert(key StoreKey, fieldName string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(fieldName) == "" {
		return &ValidationError{Field: "field_name", Message: "cannot be blank"}
	}
	return nil
}
