package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navarrastar/portfolio/pkg/config"
	"github.com/navarrastar/portfolio/pkg/models"
)

// steppingClock advances one minute per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func input(first string) models.ContactInput {
	return models.ContactInput{
		FirstName: first,
		LastName:  "Tester",
		Email:     first + "@example.com",
		Subject:   models.SubjectPartnership,
		Message:   "Hello from " + first,
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	jsonStore, err := NewJSONStore(filepath.Join(dir, "data", "contacts.json"),
		WithClock(steppingClock()), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(ctx, filepath.Join(dir, "db", "contacts.db"),
		WithClock(steppingClock()), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{"json": jsonStore, "sqlite": sqliteStore}
}

func TestStoreCreateAndList(t *testing.T) {
	t.Parallel()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := store.ListContacts(ctx)
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			first, err := store.CreateContact(ctx, input("ada"))
			require.NoError(t, err)
			assert.Equal(t, "id-1", first.ID)
			assert.Equal(t, time.Date(2026, 1, 10, 9, 1, 0, 0, time.UTC), first.CreatedAt)
			assert.Equal(t, "ada@example.com", first.Email)

			_, err = store.CreateContact(ctx, input("grace"))
			require.NoError(t, err)

			contacts, err := store.ListContacts(ctx)
			require.NoError(t, err)
			require.Len(t, contacts, 2)
			assert.Equal(t, "grace", contacts[0].FirstName)
			assert.Equal(t, "ada", contacts[1].FirstName)
			assert.Equal(t, first, contacts[1])
		})
	}
}

func TestJSONStoreCreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "contacts.json")
	_, err := NewJSONStore(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestJSONStoreCorruptFileIsNotOverwritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewJSONStore(path, WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	_, err = store.ListContacts(context.Background())
	require.ErrorContains(t, err, "error parsing contacts file")

	_, err = store.CreateContact(context.Background(), input("ada"))
	require.ErrorContains(t, err, "error parsing contacts file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestJSONStoreEmptyFileReadsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	store, err := NewJSONStore(path, WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	contacts, err := store.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contacts)

	_, err = store.CreateContact(context.Background(), input("ada"))
	require.NoError(t, err)
	contacts, err = store.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestJSONStoreConcurrentWrites(t *testing.T) {
	t.Parallel()

	store, err := NewJSONStore(filepath.Join(t.TempDir(), "contacts.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateContact(context.Background(), input(fmt.Sprintf("user%d", i)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	contacts, err := store.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Len(t, contacts, 20)
	ids := map[string]bool{}
	for _, c := range contacts {
		ids[c.ID] = true
	}
	assert.Len(t, ids, 20)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Backend: config.StorageJSON, Path: filepath.Join(dir, "c.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Backend: config.StorageSQLite, Path: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StorageConfig{Backend: "mongo"})
	require.Error(t, err)
}
