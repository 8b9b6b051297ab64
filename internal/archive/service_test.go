package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimkyngt/decay-dynamics/internal/database"
)

// fakeStore is an in-memory ObjectStore for tests
type fakeStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]types.Object, error) {
	var objects []types.Object
	for key, data := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(data))),
		})
	}
	return objects, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func setupTestService(t *testing.T, store ObjectStore, retentionDays, minKeep int) (*Service, *database.DB) {
	t.Helper()

	dataDir := t.TempDir()
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, "results.db"),
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(database.Schema))

	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(store, db, dataDir, retentionDays, minKeep, log), db
}

// extractArchive unpacks a tar.gz byte blob into filename -> content
func extractArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	gzipReader, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gzipReader.Close()

	files := make(map[string][]byte)
	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		content, err := io.ReadAll(tarReader)
		require.NoError(t, err)
		files[header.Name] = content
	}

	return files
}

func TestCreateAndUpload(t *testing.T) {
	store := newFakeStore()
	service, db := setupTestService(t, store, 30, 3)

	_, err := db.Exec(
		`INSERT INTO coupling_cache (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"coupling:archived", []byte{0x01, 0x02}, time.Now().Unix(), time.Now().Add(time.Hour).Unix(),
	)
	require.NoError(t, err)

	require.NoError(t, service.CreateAndUpload(context.Background()))

	require.Len(t, store.objects, 1)

	var name string
	var data []byte
	for k, v := range store.objects {
		name, data = k, v
	}

	assert.True(t, strings.HasPrefix(name, "decay-archive-"))
	assert.True(t, strings.HasSuffix(name, ".tar.gz"))

	files := extractArchive(t, data)
	require.Contains(t, files, "results.db")
	require.Contains(t, files, "archive-metadata.json")

	var metadata Metadata
	require.NoError(t, json.Unmarshal(files["archive-metadata.json"], &metadata))
	require.Len(t, metadata.Files, 1)
	assert.Equal(t, "results", metadata.Files[0].Name)
	assert.Equal(t, "results.db", metadata.Files[0].Filename)
	assert.Equal(t, int64(len(files["results.db"])), metadata.Files[0].SizeBytes)

	sum := sha256.Sum256(files["results.db"])
	assert.Equal(t, fmt.Sprintf("sha256:%x", sum), metadata.Files[0].Checksum)
}

func TestCreateAndUploadSnapshotIsValidDatabase(t *testing.T) {
	store := newFakeStore()
	service, db := setupTestService(t, store, 30, 3)

	_, err := db.Exec(
		`INSERT INTO coupling_cache (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"coupling:restore", []byte{0xAB}, time.Now().Unix(), time.Now().Add(time.Hour).Unix(),
	)
	require.NoError(t, err)

	require.NoError(t, service.CreateAndUpload(context.Background()))

	var data []byte
	for _, v := range store.objects {
		data = v
	}
	files := extractArchive(t, data)

	// Restore the snapshot to disk and make sure it is a healthy
	// database that still holds the row.
	restoredPath := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, os.WriteFile(restoredPath, files["results.db"], 0644))

	restored, err := sql.Open("sqlite", restoredPath)
	require.NoError(t, err)
	defer restored.Close()

	var result string
	require.NoError(t, restored.QueryRow("PRAGMA integrity_check").Scan(&result))
	assert.Equal(t, "ok", result)

	var value []byte
	require.NoError(t, restored.QueryRow(
		`SELECT value FROM coupling_cache WHERE key = ?`, "coupling:restore",
	).Scan(&value))
	assert.Equal(t, []byte{0xAB}, value)
}

func TestListParsesAndSortsArchives(t *testing.T) {
	store := newFakeStore()
	service, _ := setupTestService(t, store, 30, 3)

	store.objects["decay-archive-2026-08-20-120000.tar.gz"] = []byte("old")
	store.objects["decay-archive-2026-08-24-120000.tar.gz"] = []byte("newer")
	store.objects["decay-archive-not-a-timestamp.tar.gz"] = []byte("junk")

	archives, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, archives, 2)

	assert.Equal(t, "decay-archive-2026-08-24-120000.tar.gz", archives[0].Filename)
	assert.Equal(t, "decay-archive-2026-08-20-120000.tar.gz", archives[1].Filename)
	assert.Equal(t, time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC), archives[0].Timestamp)
	assert.Equal(t, int64(5), archives[0].SizeBytes)
}

func TestRotateKeepsMinimum(t *testing.T) {
	store := newFakeStore()
	service, _ := setupTestService(t, store, 1, 3)

	// All three are far past retention but protected by the minimum.
	store.objects["decay-archive-2020-01-01-000000.tar.gz"] = []byte("a")
	store.objects["decay-archive-2020-01-02-000000.tar.gz"] = []byte("b")
	store.objects["decay-archive-2020-01-03-000000.tar.gz"] = []byte("c")

	require.NoError(t, service.Rotate(context.Background()))

	assert.Len(t, store.objects, 3)
	assert.Empty(t, store.deleted)
}

func TestRotateDeletesExpired(t *testing.T) {
	store := newFakeStore()
	service, _ := setupTestService(t, store, 7, 2)

	recent := "decay-archive-" + time.Now().Format("2006-01-02-150405") + ".tar.gz"
	store.objects[recent] = []byte("now")
	store.objects["decay-archive-2020-01-04-000000.tar.gz"] = []byte("d")
	store.objects["decay-archive-2020-01-03-000000.tar.gz"] = []byte("c")
	store.objects["decay-archive-2020-01-02-000000.tar.gz"] = []byte("b")
	store.objects["decay-archive-2020-01-01-000000.tar.gz"] = []byte("a")

	require.NoError(t, service.Rotate(context.Background()))

	// The two newest survive the minimum; the rest are past retention.
	assert.Len(t, store.objects, 2)
	assert.Contains(t, store.objects, recent)
	assert.Contains(t, store.objects, "decay-archive-2020-01-04-000000.tar.gz")
	assert.Len(t, store.deleted, 3)
}

func TestRotateZeroRetentionKeepsAll(t *testing.T) {
	store := newFakeStore()
	service, _ := setupTestService(t, store, 0, 1)

	store.objects["decay-archive-2020-01-01-000000.tar.gz"] = []byte("a")
	store.objects["decay-archive-2020-01-02-000000.tar.gz"] = []byte("b")

	require.NoError(t, service.Rotate(context.Background()))

	assert.Len(t, store.objects, 2)
	assert.Empty(t, store.deleted)
}
