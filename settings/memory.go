package settings

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/ZaguanLabs/vertrans"
)

// MemoryRepository stores settings and maps in-memory.
type MemoryRepository struct {
	mu          sync.RWMutex
	settings    *vertrans.Settings
	maps        map[string]vertrans.TranslationMap
	broadcaster *changeBroadcaster
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		maps:        make(map[string]vertrans.TranslationMap),
		broadcaster: newChangeBroadcaster(),
	}
}

// Settings returns the stored settings or a NotFoundError.
func (r *MemoryRepository) Settings(context.Context) (vertrans.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return vertrans.Settings{}, settingsNotFound()
	}
	return *r.settings, nil
}

// UpsertSettings validates and stores settings, emitting a change event.
func (r *MemoryRepository) UpsertSettings(_ context.Context, settings vertrans.Settings) (vertrans.Settings, error) {
	if err := settings.Validate(); err != nil {
		return vertrans.Settings{}, err
	}

	r.mu.Lock()
	created := r.settings == nil
	unchanged := !created && *r.settings == settings
	copied := settings
	r.settings = &copied
	r.mu.Unlock()

	if unchanged {
		return settings, nil
	}
	changeType := ChangeUpdated
	if created {
		changeType = ChangeCreated
	}
	r.broadcaster.Broadcast(ChangeEvent{Type: changeType, Settings: &copied})
	return settings, nil
}

// ActiveMap returns the active map for recordType.
func (r *MemoryRepository) ActiveMap(_ context.Context, recordType string) (vertrans.TranslationMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.maps {
		if m.RecordType == recordType && m.IsActive {
			return cloneMap(m), nil
		}
	}
	return vertrans.TranslationMap{}, mapNotFound(recordType)
}

// GetMap returns the map called name.
func (r *MemoryRepository) GetMap(_ context.Context, name string) (vertrans.TranslationMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.maps[name]
	if !ok {
		return vertrans.TranslationMap{}, mapNotFound(name)
	}
	return cloneMap(m), nil
}

// SaveMap creates or replaces a map. Activating a map while another map for
// the same record type is active fails with a ValidationError.
func (r *MemoryRepository) SaveMap(_ context.Context, m vertrans.TranslationMap) (vertrans.TranslationMap, error) {
	m, err := prepareMap(m)
	if err != nil {
		return vertrans.TranslationMap{}, err
	}
	m = cloneMap(m)

	r.mu.Lock()
	existing := make([]vertrans.TranslationMap, 0, len(r.maps))
	for _, other := range r.maps {
		existing = append(existing, other)
	}
	if err := checkSingleActive(m, existing); err != nil {
		r.mu.Unlock()
		return vertrans.TranslationMap{}, err
	}
	previous, found := r.maps[m.Name]
	r.maps[m.Name] = m
	r.mu.Unlock()

	if found && reflect.DeepEqual(previous, m) {
		return cloneMap(m), nil
	}
	changeType := ChangeUpdated
	if !found {
		changeType = ChangeCreated
	}
	evt := cloneMap(m)
	r.broadcaster.Broadcast(ChangeEvent{Type: changeType, Map: &evt})
	return cloneMap(m), nil
}

// ListMaps returns all maps ordered by name.
func (r *MemoryRepository) ListMaps(context.Context) ([]vertrans.TranslationMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]vertrans.TranslationMap, 0, len(r.maps))
	for _, m := range r.maps {
		out = append(out, cloneMap(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *MemoryRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}

func cloneMap(m vertrans.TranslationMap) vertrans.TranslationMap {
	if m.FieldMappings != nil {
		m.FieldMappings = append([]vertrans.FieldMapping(nil), m.FieldMappings...)
	}
	return m
}

var _ Repository = (*MemoryRepository)(nil)
