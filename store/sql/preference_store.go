package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/innovatetogether/go-innovate/core"
	"github.com/uptrace/bun"
)

// PreferenceStore persists overrides as one row per key. Values are stored
// as given, including the empty string.
type PreferenceStore struct {
	db   *bun.DB
	repo repository.Repository[*preferenceRecord]
}

func NewPreferenceStore(db *bun.DB) (*PreferenceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*preferenceRecord](db, preferenceHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid preference repository wiring: %w", err)
		}
	}
	return &PreferenceStore{db: db, repo: repo}, nil
}

func (s *PreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.repo == nil {
		return "", false, fmt.Errorf("sqlstore: preference store is not configured")
	}
	key, err := normalizePreferenceKey(key)
	if err != nil {
		return "", false, err
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("pref_key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return "", false, err
	}
	if len(records) == 0 || records[0] == nil {
		return "", false, nil
	}
	return records[0].Value, true, nil
}

func (s *PreferenceStore) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.db == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: preference store is not configured")
	}
	key, err := normalizePreferenceKey(key)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return upsertPreferenceTx(ctx, tx, s.repo, key, value, now)
	})
	if err != nil && isUniqueViolation(err) {
		// A concurrent writer inserted the key first; last write wins.
		return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return upsertPreferenceTx(ctx, tx, s.repo, key, value, now)
		})
	}
	return err
}

func upsertPreferenceTx(
	ctx context.Context,
	tx bun.Tx,
	repo repository.Repository[*preferenceRecord],
	key string,
	value string,
	now time.Time,
) error {
	record, err := findPreferenceTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if record == nil {
		_, createErr := repo.CreateTx(ctx, tx, &preferenceRecord{
			ID:        uuid.NewString(),
			Key:       key,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return createErr
	}
	record.Value = value
	record.UpdatedAt = now
	_, err = tx.NewUpdate().
		Model(record).
		Column("value", "updated_at").
		Where("id = ?", record.ID).
		Exec(ctx)
	return err
}

func findPreferenceTx(ctx context.Context, tx bun.Tx, key string) (*preferenceRecord, error) {
	records := []*preferenceRecord{}
	if err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.pref_key = ?", key).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (s *PreferenceStore) Clear(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: preference store is not configured")
	}
	key, err := normalizePreferenceKey(key)
	if err != nil {
		return err
	}
	_, err = s.db.NewDelete().
		Model((*preferenceRecord)(nil)).
		Where("pref_key = ?", key).
		Exec(ctx)
	return err
}

// Keys lists every stored key in ascending order.
func (s *PreferenceStore) Keys(ctx context.Context) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: preference store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("pref_key ASC"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		keys = append(keys, record.Key)
	}
	return keys, nil
}

func normalizePreferenceKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("sqlstore: preference key is required")
	}
	return key, nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

var _ core.PreferenceStore = (*PreferenceStore)(nil)
