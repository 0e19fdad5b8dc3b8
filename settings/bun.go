package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"github.com/uptrace/bun"
)

// BunRepository persists settings and maps using a bun-backed database.
type BunRepository struct {
	db          *bun.DB
	broadcaster *changeBroadcaster
}

// NewBunRepository constructs a bun-backed repository. Call Migrate once before use.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{
		db:          db,
		broadcaster: newChangeBroadcaster(),
	}
}

var errNoDatabase = errors.New("settings: bun repository requires a database")

// Migrate creates the settings and map tables.
func (r *BunRepository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return errNoDatabase
	}
	for _, model := range []any{(*settingsModel)(nil), (*mapModel)(nil)} {
		if _, err := r.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Settings returns the persisted settings or a NotFoundError.
func (r *BunRepository) Settings(ctx context.Context) (vertrans.Settings, error) {
	if r.db == nil {
		return vertrans.Settings{}, errNoDatabase
	}
	var model settingsModel
	if err := r.db.NewSelect().Model(&model).Where("id = ?", 1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vertrans.Settings{}, settingsNotFound()
		}
		return vertrans.Settings{}, err
	}
	return model.toSettings(), nil
}

// UpsertSettings validates and persists settings, emitting a change event.
func (r *BunRepository) UpsertSettings(ctx context.Context, settings vertrans.Settings) (vertrans.Settings, error) {
	if r.db == nil {
		return vertrans.Settings{}, errNoDatabase
	}
	if err := settings.Validate(); err != nil {
		return vertrans.Settings{}, err
	}

	_, err := r.Settings(ctx)
	created := vertrans.IsNotFound(err)
	if err != nil && !created {
		return vertrans.Settings{}, err
	}

	model := settingsFromDomain(settings)
	model.ID = 1
	model.UpdatedAt = time.Now().UTC()

	if created {
		if _, err := r.db.NewInsert().Model(&model).Exec(ctx); err != nil {
			return vertrans.Settings{}, err
		}
	} else {
		if _, err := r.db.NewUpdate().Model(&model).WherePK().Exec(ctx); err != nil {
			return vertrans.Settings{}, err
		}
	}

	stored, err := r.Settings(ctx)
	if err != nil {
		return vertrans.Settings{}, err
	}

	eventType := ChangeUpdated
	if created {
		eventType = ChangeCreated
	}
	r.broadcaster.Broadcast(ChangeEvent{Type: eventType, Settings: &stored})
	return stored, nil
}

// ActiveMap returns the active map for recordType.
func (r *BunRepository) ActiveMap(ctx context.Context, recordType string) (vertrans.TranslationMap, error) {
	if r.db == nil {
		return vertrans.TranslationMap{}, errNoDatabase
	}
	var model mapModel
	err := r.db.NewSelect().
		Model(&model).
		Where("record_type = ?", recordType).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vertrans.TranslationMap{}, mapNotFound(recordType)
		}
		return vertrans.TranslationMap{}, err
	}
	return model.toMap(), nil
}

// GetMap returns the map called name.
func (r *BunRepository) GetMap(ctx context.Context, name string) (vertrans.TranslationMap, error) {
	if r.db == nil {
		return vertrans.TranslationMap{}, errNoDatabase
	}
	var model mapModel
	if err := r.db.NewSelect().Model(&model).Where("name = ?", name).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vertrans.TranslationMap{}, mapNotFound(name)
		}
		return vertrans.TranslationMap{}, err
	}
	return model.toMap(), nil
}

// SaveMap creates or replaces a map. Activating a map while another map for
// the same record type is active fails with a ValidationError.
func (r *BunRepository) SaveMap(ctx context.Context, m vertrans.TranslationMap) (vertrans.TranslationMap, error) {
	if r.db == nil {
		return vertrans.TranslationMap{}, errNoDatabase
	}
	m, err := prepareMap(m)
	if err != nil {
		return vertrans.TranslationMap{}, err
	}

	created := false
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var others []mapModel
		if err := tx.NewSelect().
			Model(&others).
			Where("record_type = ?", m.RecordType).
			Where("is_active = ?", true).
			Scan(ctx); err != nil {
			return err
		}
		existing := make([]vertrans.TranslationMap, 0, len(others))
		for _, o := range others {
			existing = append(existing, o.toMap())
		}
		if err := checkSingleActive(m, existing); err != nil {
			return err
		}

		count, err := tx.NewSelect().Model((*mapModel)(nil)).Where("name = ?", m.Name).Count(ctx)
		if err != nil {
			return err
		}
		created = count == 0

		model := mapFromDomain(m)
		model.UpdatedAt = time.Now().UTC()
		_, err = tx.NewInsert().
			Model(&model).
			On("CONFLICT (name) DO UPDATE").
			Set("record_type = EXCLUDED.record_type").
			Set("is_active = EXCLUDED.is_active").
			Set("field_mappings = EXCLUDED.field_mappings").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
	if err != nil {
		return vertrans.TranslationMap{}, err
	}

	stored, err := r.GetMap(ctx, m.Name)
	if err != nil {
		return vertrans.TranslationMap{}, err
	}

	eventType := ChangeUpdated
	if created {
		eventType = ChangeCreated
	}
	evt := stored
	r.broadcaster.Broadcast(ChangeEvent{Type: eventType, Map: &evt})
	return stored, nil
}

// ListMaps returns all maps ordered by name.
func (r *BunRepository) ListMaps(ctx context.Context) ([]vertrans.TranslationMap, error) {
	if r.db == nil {
		return nil, errNoDatabase
	}
	var models []mapModel
	if err := r.db.NewSelect().Model(&models).Order("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]vertrans.TranslationMap, 0, len(models))
	for _, m := range models {
		out = append(out, m.toMap())
	}
	return out, nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *BunRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}

type settingsModel struct {
	bun.BaseModel `bun:"table:translation_settings"`

	ID                    int       `bun:",pk"`
	APIKey                string    `bun:"api_key"`
	APIURL                string    `bun:"api_url"`
	EnableAutoTranslation bool      `bun:"enable_auto_translation"`
	AutoTranslateOnUpdate bool      `bun:"auto_translate_on_update"`
	SourceLanguage        string    `bun:"default_source_language"`
	TargetLanguages       string    `bun:"default_target_languages"`
	UpdatedAt             time.Time `bun:"updated_at"`
}

func settingsFromDomain(s vertrans.Settings) settingsModel {
	return settingsModel{
		APIKey:                s.APIKey,
		APIURL:                s.APIURL,
		EnableAutoTranslation: s.EnableAutoTranslation,
		AutoTranslateOnUpdate: s.AutoTranslateOnUpdate,
		SourceLanguage:        s.SourceLanguage,
		TargetLanguages:       s.TargetLanguages,
	}
}

func (m *settingsModel) toSettings() vertrans.Settings {
	return vertrans.Settings{
		APIKey:                m.APIKey,
		APIURL:                m.APIURL,
		EnableAutoTranslation: m.EnableAutoTranslation,
		AutoTranslateOnUpdate: m.AutoTranslateOnUpdate,
		SourceLanguage:        m.SourceLanguage,
		TargetLanguages:       m.TargetLanguages,
	}
}

type mapModel struct {
	bun.BaseModel `bun:"table:translation_maps"`

	Name          string                  `bun:"name,pk"`
	RecordType    string                  `bun:"record_type,notnull"`
	IsActive      bool                    `bun:"is_active"`
	FieldMappings []vertrans.FieldMapping `bun:"field_mappings,type:jsonb"`
	UpdatedAt     time.Time               `bun:"updated_at"`
}

func mapFromDomain(m vertrans.TranslationMap) mapModel {
	return mapModel{
		Name:          m.Name,
		RecordType:    m.RecordType,
		IsActive:      m.IsActive,
		FieldMappings: m.FieldMappings,
	}
}

func (m *mapModel) toMap() vertrans.TranslationMap {
	return vertrans.TranslationMap{
		Name:          m.Name,
		RecordType:    m.RecordType,
		IsActive:      m.IsActive,
		FieldMappings: m.FieldMappings,
	}
}

var _ Repository = (*BunRepository)(nil)
