package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]StoredObject, error) {
	var objects []StoredObject
	for key, data := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			objects = append(objects, StoredObject{Key: key, SizeBytes: int64(len(data))})
		}
	}
	return objects, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func testBackupService(t *testing.T, store ObjectStore, retention int) (*BackupService, string) {
	t.Helper()
	dataDir := t.TempDir()
	svc := NewBackupService(store, dataDir, retention, zerolog.Nop())
	return svc, dataDir
}

func writeDatabase(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0644))
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	files := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = content
	}
	return files
}

func TestCreateAndUploadBackup(t *testing.T) {
	store := newFakeStore()
	svc, dataDir := testBackupService(t, store, 7)
	svc.now = func() time.Time {
		return time.Date(2025, 1, 6, 12, 30, 45, 0, time.UTC)
	}

	writeDatabase(t, dataDir, "wheelhouse.db", []byte("main data"))
	writeDatabase(t, dataDir, "cache.db", []byte("cache data"))

	err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	require.Len(t, store.objects, 1)
	data, ok := store.objects["wheelhouse-backup-2025-01-06-123045.tar.gz"]
	require.True(t, ok)

	files := readArchive(t, data)
	assert.Equal(t, []byte("main data"), files["wheelhouse.db"])
	assert.Equal(t, []byte("cache data"), files["cache.db"])

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &metadata))
	require.Len(t, metadata.Databases, 2)

	// Files are archived in sorted order.
	assert.Equal(t, "cache.db", metadata.Databases[0].Filename)
	assert.Equal(t, "wheelhouse.db", metadata.Databases[1].Filename)
	assert.Equal(t, int64(9), metadata.Databases[1].SizeBytes)

	sum := sha256.Sum256([]byte("main data"))
	assert.Equal(t, hex.EncodeToString(sum[:]), metadata.Databases[1].Checksum)
}

func TestCreateAndUploadBackup_EmptyDataDir(t *testing.T) {
	store := newFakeStore()
	svc, _ := testBackupService(t, store, 7)

	err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.objects)
}

func TestCreateAndUploadBackup_IgnoresNonDatabaseFiles(t *testing.T) {
	store := newFakeStore()
	svc, dataDir := testBackupService(t, store, 7)

	writeDatabase(t, dataDir, "wheelhouse.db", []byte("data"))
	writeDatabase(t, dataDir, "notes.txt", []byte("ignore me"))

	err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	require.Len(t, store.objects, 1)
	for _, data := range store.objects {
		files := readArchive(t, data)
		assert.Contains(t, files, "wheelhouse.db")
		assert.NotContains(t, files, "notes.txt")
	}
}

func TestPruneKeepsNewestBackups(t *testing.T) {
	store := newFakeStore()
	store.objects["wheelhouse-backup-2025-01-01-000000.tar.gz"] = []byte("old")
	store.objects["wheelhouse-backup-2025-01-02-000000.tar.gz"] = []byte("mid")
	store.objects["wheelhouse-backup-2025-01-03-000000.tar.gz"] = []byte("new")
	store.objects["unrelated-object"] = []byte("keep")

	svc, dataDir := testBackupService(t, store, 3)
	svc.now = func() time.Time {
		return time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	}
	writeDatabase(t, dataDir, "wheelhouse.db", []byte("data"))

	err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"wheelhouse-backup-2025-01-01-000000.tar.gz"}, store.deleted)
	assert.Contains(t, store.objects, "wheelhouse-backup-2025-01-04-000000.tar.gz")
	assert.Contains(t, store.objects, "unrelated-object")
}

func TestListBackups_NewestFirst(t *testing.T) {
	store := newFakeStore()
	store.objects["wheelhouse-backup-2025-01-01-000000.tar.gz"] = []byte("a")
	store.objects["wheelhouse-backup-2025-01-03-000000.tar.gz"] = []byte("c")
	store.objects["wheelhouse-backup-2025-01-02-000000.tar.gz"] = []byte("b")
	store.objects["unrelated-object"] = []byte("x")

	svc, _ := testBackupService(t, store, 7)

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "wheelhouse-backup-2025-01-03-000000.tar.gz", backups[0].Key)
	assert.Equal(t, "wheelhouse-backup-2025-01-01-000000.tar.gz", backups[2].Key)
}

func TestBackupJob(t *testing.T) {
	store := newFakeStore()
	svc, dataDir := testBackupService(t, store, 7)
	writeDatabase(t, dataDir, "wheelhouse.db", []byte("data"))

	job := NewBackupJob(svc, zerolog.Nop())
	assert.Equal(t, "s3_backup", job.Name())
	assert.NotEmpty(t, job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, store.objects, 1)
}
