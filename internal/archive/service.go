// Package archive exports database snapshots to S3-compatible object
// storage. An archive is a tar.gz bundle holding a transactionally
// consistent snapshot of the results database plus a metadata manifest
// with SHA-256 checksums.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kimkyngt/decay-dynamics/internal/database"
)

const (
	archivePrefix    = "decay-archive-"
	archiveSuffix    = ".tar.gz"
	metadataFilename = "archive-metadata.json"
	timestampLayout  = "2006-01-02-150405"
)

// Metadata describes the contents of an archive
type Metadata struct {
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Files     []FileMetadata `json:"files"`
}

// FileMetadata describes a single file inside an archive
type FileMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// Info summarizes an archive stored remotely
type Info struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// Service creates, uploads and rotates archives
type Service struct {
	store         ObjectStore
	db            *database.DB
	dataDir       string
	retentionDays int
	minKeep       int
	log           zerolog.Logger
}

// NewService creates a new archive service. retentionDays of 0 keeps
// archives forever; minKeep archives are never rotated out regardless
// of age.
func NewService(
	store ObjectStore,
	db *database.DB,
	dataDir string,
	retentionDays int,
	minKeep int,
	log zerolog.Logger,
) *Service {
	if minKeep < 1 {
		minKeep = 1
	}

	return &Service{
		store:         store,
		db:            db,
		dataDir:       dataDir,
		retentionDays: retentionDays,
		minKeep:       minKeep,
		log:           log.With().Str("service", "archive").Logger(),
	}
}

// CreateAndUpload snapshots the results database, bundles it with a
// checksum manifest and uploads the bundle to object storage
func (s *Service) CreateAndUpload(ctx context.Context) error {
	s.log.Info().Msg("Starting archive export")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "archive-staging")
	// Clear leftovers from an interrupted export before staging.
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	dbFilename := s.db.Name() + ".db"
	snapshotPath := filepath.Join(stagingDir, dbFilename)

	s.log.Debug().Str("database", s.db.Name()).Msg("Snapshotting database")

	if err := s.db.VacuumInto(snapshotPath); err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", s.db.Name(), err)
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to stat snapshot: %w", err)
	}

	checksum, err := fileChecksum(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum for %s: %w", s.db.Name(), err)
	}

	metadata := Metadata{
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Files: []FileMetadata{
			{
				Name:      s.db.Name(),
				Filename:  dbFilename,
				SizeBytes: info.Size(),
				Checksum:  checksum,
			},
		},
	}

	metadataPath := filepath.Join(stagingDir, metadataFilename)
	if err := writeMetadata(metadataPath, metadata); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	archiveName := archivePrefix + time.Now().Format(timestampLayout) + archiveSuffix
	archivePath := filepath.Join(stagingDir, archiveName)

	if err := createArchive(archivePath, stagingDir, []string{dbFilename, metadataFilename}); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, archiveName, archiveFile, archiveInfo.Size()); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Archive export completed")

	return nil
}

// List returns all archives in object storage, newest first
func (s *Service) List(ctx context.Context) ([]Info, error) {
	objects, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}

	archives := make([]Info, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		// Parse timestamp from filename: decay-archive-2026-08-25-143022.tar.gz
		filename := *obj.Key
		if !strings.HasPrefix(filename, archivePrefix) || !strings.HasSuffix(filename, archiveSuffix) {
			continue
		}

		timestampStr := strings.TrimPrefix(filename, archivePrefix)
		timestampStr = strings.TrimSuffix(timestampStr, archiveSuffix)

		timestamp, err := time.Parse(timestampLayout, timestampStr)
		if err != nil {
			s.log.Warn().Str("filename", filename).Msg("Failed to parse timestamp from filename")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		archives = append(archives, Info{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	// Newest first
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Timestamp.After(archives[j].Timestamp)
	})

	return archives, nil
}

// Rotate deletes archives older than the retention period, always
// keeping the newest minKeep regardless of age
func (s *Service) Rotate(ctx context.Context) error {
	s.log.Info().Int("retention_days", s.retentionDays).Msg("Starting archive rotation")

	archives, err := s.List(ctx)
	if err != nil {
		return err
	}

	if len(archives) <= s.minKeep {
		s.log.Info().Int("count", len(archives)).Msg("Too few archives to rotate")
		return nil
	}

	// Cutoff time of zero value (retention 0) keeps everything.
	var cutoff time.Time
	if s.retentionDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -s.retentionDays)
	}

	deleted := 0
	for i, a := range archives {
		if i < s.minKeep {
			continue
		}

		if s.retentionDays == 0 {
			continue
		}

		if a.Timestamp.Before(cutoff) {
			if err := s.store.Delete(ctx, a.Filename); err != nil {
				s.log.Error().
					Err(err).
					Str("filename", a.Filename).
					Msg("Failed to delete old archive")
				continue
			}

			s.log.Info().
				Str("filename", a.Filename).
				Time("timestamp", a.Timestamp).
				Msg("Deleted old archive")

			deleted++
		}
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(archives)-deleted).
		Msg("Archive rotation completed")

	return nil
}

// fileChecksum calculates the SHA-256 checksum of a file
func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeMetadata writes the archive manifest to a JSON file
func writeMetadata(path string, metadata Metadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive bundles the named files from sourceDir into a tar.gz
func createArchive(archivePath, sourceDir string, filenames []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	return nil
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	if _, err := io.Copy(tarWriter, file); err != nil {
		return err
	}

	return nil
}
