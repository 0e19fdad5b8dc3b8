// Package settings persists the translation settings singleton and the
// translation maps, and notifies subscribers when either changes.
package settings

import (
	"context"
	"strings"

	"github.com/ZaguanLabs/vertrans"
)

// Repository stores settings and translation maps. It is the ConfigSource
// read by the orchestrator and the write side used by administrators.
type Repository interface {
	vertrans.ConfigSource
	UpsertSettings(ctx context.Context, settings vertrans.Settings) (vertrans.Settings, error)
	GetMap(ctx context.Context, name string) (vertrans.TranslationMap, error)
	SaveMap(ctx context.Context, m vertrans.TranslationMap) (vertrans.TranslationMap, error)
	ListMaps(ctx context.Context) ([]vertrans.TranslationMap, error)
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// ChangeType enumerates change events.
type ChangeType string

const (
	// ChangeCreated indicates a value was first persisted.
	ChangeCreated ChangeType = "created"
	// ChangeUpdated indicates a value was updated.
	ChangeUpdated ChangeType = "updated"
)

// ChangeEvent reports a settings or map mutation. Exactly one of Settings
// and Map is set.
type ChangeEvent struct {
	Type     ChangeType
	Settings *vertrans.Settings
	Map      *vertrans.TranslationMap
}

func settingsNotFound() error {
	return &vertrans.NotFoundError{Kind: "settings", Name: "Translation Settings"}
}

func mapNotFound(name string) error {
	return &vertrans.NotFoundError{Kind: "translation map", Name: name}
}

// prepareMap defaults the map name and validates the map.
func prepareMap(m vertrans.TranslationMap) (vertrans.TranslationMap, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.RecordType = strings.TrimSpace(m.RecordType)
	if m.Name == "" {
		m.Name = m.RecordType
	}
	if err := m.Validate(); err != nil {
		return vertrans.TranslationMap{}, err
	}
	return m, nil
}

// checkSingleActive rejects activating m while another map for the same
// record type is active.
func checkSingleActive(m vertrans.TranslationMap, existing []vertrans.TranslationMap) error {
	if !m.IsActive {
		return nil
	}
	for _, other := range existing {
		if other.Name != m.Name && other.RecordType == m.RecordType && other.IsActive {
			return &vertrans.ValidationError{
				Field:   "is_active",
				Message: "translation map " + other.Name + " is already active for " + m.RecordType,
			}
		}
	}
	return nil
}
