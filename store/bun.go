package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Bun persists translations in a SQL database through bun.
type Bun struct {
	db  *bun.DB
	now func() time.Time
}

// NewBun constructs a bun-backed store. Call Migrate once before use.
func NewBun(db *bun.DB) *Bun {
	return &Bun{db: db, now: time.Now}
}

type entryModel struct {
	bun.BaseModel `bun:"table:translation_entries,alias:te"`

	ID         uuid.UUID `bun:",pk,type:uuid"`
	RecordType string    `bun:"record_type,notnull"`
	RecordID   string    `bun:"record_id,notnull"`
	VersionID  string    `bun:"version_id,notnull"`
	Language   string    `bun:"language,notnull"`
	FieldName  string    `bun:"field_name,notnull"`
	Text       string    `bun:"text,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

type statusModel struct {
	bun.BaseModel `bun:"table:translation_status,alias:ts"`

	RecordType string    `bun:"record_type,pk"`
	RecordID   string    `bun:"record_id,pk"`
	VersionID  string    `bun:"version_id,pk"`
	Language   string    `bun:"language,pk"`
	Status     string    `bun:"status,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// Migrate creates the store tables and the unique entry index.
func (b *Bun) Migrate(ctx context.Context) error {
	if b.db == nil {
		return errors.New("store: bun store requires a database")
	}
	for _, model := range []any{(*entryModel)(nil), (*statusModel)(nil)} {
		if _, err := b.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return storeError("migrate", err)
		}
	}
	if _, err := b.db.NewCreateIndex().
		Model((*entryModel)(nil)).
		Index("translation_entries_key_idx").
		Unique().
		IfNotExists().
		Column("record_type", "record_id", "version_id", "language", "field_name").
		Exec(ctx); err != nil {
		return storeError("migrate", err)
	}
	return nil
}

// Upsert inserts or replaces the text for fieldName under key.
func (b *Bun) Upsert(ctx context.Context, key vertrans.StoreKey, fieldName, text string) error {
	key = key.Normalize()
	if err := vertrans.ValidateUpsert(key, fieldName); err != nil {
		return err
	}

	now := b.now().UTC()
	model := entryModel{
		ID:         uuid.New(),
		RecordType: key.RecordType,
		RecordID:   key.RecordID,
		VersionID:  key.Version,
		Language:   key.Language,
		FieldName:  fieldName,
		Text:       text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := b.db.NewInsert().
		Model(&model).
		On("CONFLICT (record_type, record_id, version_id, language, field_name) DO UPDATE").
		Set("text = EXCLUDED.text").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return storeError("upsert", err)
	}
	return nil
}

// Get returns all fields stored under key. A missing key yields an empty map.
func (b *Bun) Get(ctx context.Context, key vertrans.StoreKey) (map[string]string, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var models []entryModel
	if err := b.db.NewSelect().
		Model(&models).
		Where("record_type = ?", key.RecordType).
		Where("record_id = ?", key.RecordID).
		Where("version_id = ?", key.Version).
		Where("language = ?", key.Language).
		Scan(ctx); err != nil {
		return nil, storeError("get", err)
	}

	result := make(map[string]string, len(models))
	for _, m := range models {
		result[m.FieldName] = m.Text
	}
	return result, nil
}

// SetStatus records the translation outcome for key.
func (b *Bun) SetStatus(ctx context.Context, key vertrans.StoreKey, status vertrans.TranslationStatus) error {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return err
	}

	model := statusModel{
		RecordType: key.RecordType,
		RecordID:   key.RecordID,
		VersionID:  key.Version,
		Language:   key.Language,
		Status:     string(status),
		UpdatedAt:  b.now().UTC(),
	}
	if _, err := b.db.NewInsert().
		Model(&model).
		On("CONFLICT (record_type, record_id, version_id, language) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return storeError("set status", err)
	}
	return nil
}

// Status returns the recorded outcome for key.
func (b *Bun) Status(ctx context.Context, key vertrans.StoreKey) (vertrans.TranslationStatus, error) {
	key = key.Normalize()

	var model statusModel
	err := b.db.NewSelect().
		Model(&model).
		Where("record_type = ?", key.RecordType).
		Where("record_id = ?", key.RecordID).
		Where("version_id = ?", key.Version).
		Where("language = ?", key.Language).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", &vertrans.NotFoundError{Kind: "translation status", Name: key.String()}
		}
		return "", storeError("status", err)
	}
	return vertrans.TranslationStatus(model.Status), nil
}

// Entries returns all stored field translations ordered by key and field name.
func (b *Bun) Entries(ctx context.Context) ([]vertrans.Entry, error) {
	var models []entryModel
	if err := b.db.NewSelect().
		Model(&models).
		Order("record_type", "record_id", "version_id", "language", "field_name").
		Scan(ctx); err != nil {
		return nil, storeError("entries", err)
	}

	entries := make([]vertrans.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, vertrans.Entry{
			Key: vertrans.StoreKey{
				RecordType: m.RecordType,
				RecordID:   m.RecordID,
				Version:    m.VersionID,
				Language:   m.Language,
			},
			FieldName: m.FieldName,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		})
	}
	return entries, nil
}

var (
	_ Store  = (*Bun)(nil)
	_ Lister = (*Bun)(nil)
)
