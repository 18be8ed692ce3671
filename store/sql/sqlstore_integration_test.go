package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/innovatetogether/go-innovate/core"
	"github.com/innovatetogether/go-innovate/migrations"
	sqlstore "github.com/innovatetogether/go-innovate/store/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-innovate-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"innovate_preferences",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "innovate_preferences" {
		t.Fatalf("expected innovate_preferences table, got %q", tableName)
	}
}

func TestPreferenceStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.PreferenceStore()

	if _, ok, err := store.Get(ctx, core.PreferenceKeyAbsoluteProfileURL); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, core.PreferenceKeyAbsoluteProfileURL, "http://host/api/users/abc123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, core.PreferenceKeyAbsoluteProfileURL, "http://host/api/users/def456"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := store.Get(ctx, core.PreferenceKeyAbsoluteProfileURL)
	if err != nil || !ok {
		t.Fatalf("expected stored value, got ok=%v err=%v", ok, err)
	}
	if value != "http://host/api/users/def456" {
		t.Fatalf("expected last write to win, got %q", value)
	}

	if err := store.Set(ctx, core.PreferenceKeyOverrideSubjectID, ""); err != nil {
		t.Fatalf("set empty subject: %v", err)
	}
	value, ok, err = store.Get(ctx, core.PreferenceKeyOverrideSubjectID)
	if err != nil || !ok || value != "" {
		t.Fatalf("expected empty value to be present, got %q ok=%v err=%v", value, ok, err)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected two keys, got %v", keys)
	}

	if err := store.Clear(ctx, core.PreferenceKeyAbsoluteProfileURL); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, err := store.Get(ctx, core.PreferenceKeyAbsoluteProfileURL); err != nil || ok {
		t.Fatalf("expected cleared key to be absent, got ok=%v err=%v", ok, err)
	}
	if err := store.Clear(ctx, core.PreferenceKeyAbsoluteProfileURL); err != nil {
		t.Fatalf("clear of absent key should succeed: %v", err)
	}

	record, err := core.LoadPreferenceRecord(ctx, store)
	if err != nil {
		t.Fatalf("load preference record: %v", err)
	}
	if record.HasAbsoluteProfileURL() || !record.HasOverrideSubjectID() {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestPreferenceStore_RejectsEmptyKey(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewPreferenceStore(client.DB())
	if err != nil {
		t.Fatalf("new preference store: %v", err)
	}
	if err := store.Set(context.Background(), " ", "value"); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestCachedPreferenceStore_OverSQLite(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromDB(client.DB())
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	cacheService, err := sqlstore.NewPreferenceCache(time.Minute)
	if err != nil {
		t.Fatalf("new preference cache: %v", err)
	}
	cached, err := factory.CachedPreferenceStore(cacheService)
	if err != nil {
		t.Fatalf("cached preference store: %v", err)
	}

	if err := cached.Set(ctx, core.PreferenceKeyOverrideSubjectID, "fixed-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := cached.Get(ctx, core.PreferenceKeyOverrideSubjectID)
	if err != nil || !ok || value != "fixed-1" {
		t.Fatalf("unexpected cached read %q ok=%v err=%v", value, ok, err)
	}
	if err := cached.Clear(ctx, core.PreferenceKeyOverrideSubjectID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, err := cached.Get(ctx, core.PreferenceKeyOverrideSubjectID); err != nil || ok {
		t.Fatalf("expected invalidated key to be absent, got ok=%v err=%v", ok, err)
	}
}

func TestOpen_SQLiteAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:innovate-open-%d?mode=memory&cache=shared", time.Now().UnixNano())
	client, err := sqlstore.Open(ctx, dsn, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = client.Close() }()

	store, err := sqlstore.NewPreferenceStore(client.DB())
	if err != nil {
		t.Fatalf("new preference store: %v", err)
	}
	if err := store.Set(ctx, core.PreferenceKeyAbsoluteProfileURL, "http://host"); err != nil {
		t.Fatalf("set after open: %v", err)
	}
}

func TestDriverForDSN(t *testing.T) {
	if got := sqlstore.DriverForDSN("postgres://user@localhost/db"); got != "postgres" {
		t.Fatalf("expected postgres driver, got %q", got)
	}
	if got := sqlstore.DriverForDSN("file:innovate.db"); got != "sqlite3" {
		t.Fatalf("expected sqlite3 driver, got %q", got)
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:innovate-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = migrations.Register(ctx, func(_ context.Context, source migrations.Source) error {
		client.RegisterSQLMigrations(source.FS)
		return nil
	}, migrations.WithDialects(migrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
