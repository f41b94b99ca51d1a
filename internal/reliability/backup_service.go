package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const archivePrefix = "wheelhouse-backup-"

// ObjectStore is the storage surface the backup service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, prefix string) ([]StoredObject, error)
	Delete(ctx context.Context, key string) error
}

// BackupService archives the data directory's databases and ships them to
// object storage, keeping a bounded number of past backups.
type BackupService struct {
	store          ObjectStore
	dataDir        string
	retentionCount int
	now            func() time.Time
	log            zerolog.Logger
}

// BackupMetadata describes the contents of one backup archive.
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes a single database file in the backup.
type DatabaseMetadata struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// NewBackupService creates a new backup service.
func NewBackupService(store ObjectStore, dataDir string, retentionCount int, log zerolog.Logger) *BackupService {
	return &BackupService{
		store:          store,
		dataDir:        dataDir,
		retentionCount: retentionCount,
		now:            time.Now,
		log:            log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup archives every .db file in the data directory into
// a tar.gz with a metadata manifest, uploads it, then prunes old backups.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) error {
	start := s.now()

	dbPaths, err := filepath.Glob(filepath.Join(s.dataDir, "*.db"))
	if err != nil {
		return fmt.Errorf("globbing databases: %w", err)
	}
	if len(dbPaths) == 0 {
		s.log.Warn().Str("data_dir", s.dataDir).Msg("No databases to back up")
		return nil
	}
	sort.Strings(dbPaths)

	archiveName := fmt.Sprintf("%s%s.tar.gz", archivePrefix, start.UTC().Format("2006-01-02-150405"))
	archivePath := filepath.Join(os.TempDir(), archiveName)
	defer os.Remove(archivePath)

	if err := s.createArchive(archivePath, dbPaths, start); err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer archive.Close()

	if err := s.store.Upload(ctx, archiveName, archive); err != nil {
		return fmt.Errorf("uploading archive: %w", err)
	}

	s.log.Info().
		Str("archive", archiveName).
		Int("databases", len(dbPaths)).
		Dur("duration", s.now().Sub(start)).
		Msg("Backup uploaded")

	return s.pruneOldBackups(ctx)
}

// ListBackups returns stored backups, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]StoredObject, error) {
	backups, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Key > backups[j].Key
	})
	return backups, nil
}

// createArchive writes a gzipped tar with the database files and a
// metadata manifest.
func (s *BackupService) createArchive(archivePath string, dbPaths []string, timestamp time.Time) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	metadata := BackupMetadata{
		Timestamp: timestamp.UTC(),
		Databases: make([]DatabaseMetadata, 0, len(dbPaths)),
	}

	for _, dbPath := range dbPaths {
		info, err := os.Stat(dbPath)
		if err != nil {
			return fmt.Errorf("stat %s: %w", dbPath, err)
		}
		checksum, err := fileChecksum(dbPath)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", dbPath, err)
		}

		name := filepath.Base(dbPath)
		if err := s.addFile(tw, dbPath, name, info); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Filename:  name,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
	}

	manifest, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    "backup-metadata.json",
		Mode:    0644,
		Size:    int64(len(manifest)),
		ModTime: timestamp,
	}); err != nil {
		return err
	}
	if _, err := tw.Write(manifest); err != nil {
		return err
	}
	return nil
}

func (s *BackupService) addFile(tw *tar.Writer, path, name string, info os.FileInfo) error {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name
	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// pruneOldBackups deletes backups beyond the retention count, oldest first.
func (s *BackupService) pruneOldBackups(ctx context.Context) error {
	if s.retentionCount <= 0 {
		return nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("listing backups for pruning: %w", err)
	}
	if len(backups) <= s.retentionCount {
		return nil
	}

	for _, backup := range backups[s.retentionCount:] {
		if !strings.HasPrefix(backup.Key, archivePrefix) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			return fmt.Errorf("pruning %s: %w", backup.Key, err)
		}
		s.log.Info().Str("key", backup.Key).Msg("Pruned old backup")
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
