// Package history persists the append-only log of installed toolchain versions.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/conn-castle/moonbit-up/internal/fsutil"
	"github.com/conn-castle/moonbit-up/internal/messages"
)

// ErrNoPreviousVersion reports that fewer than two installs have been recorded.
var ErrNoPreviousVersion = errors.New(messages.HistoryNoPreviousVersion)

// Record is one successful install. Records are never edited after they are written.
type Record struct {
	Version     string  `json:"version" yaml:"version"`
	InstalledAt string  `json:"installed_at" yaml:"installed_at"`
	BackupPath  *string `json:"backup_path" yaml:"backup_path"`
}

// Backup returns the backup path, or "" when the install had no backup.
func (r Record) Backup() string {
	if r.BackupPath == nil {
		return ""
	}
	return *r.BackupPath
}

type document struct {
	Versions []Record `json:"versions"`
}

// Store reads and appends to the history document at a fixed path.
// The whole document is rewritten on every append.
type Store struct {
	path string
	// Now supplies install timestamps.
	Now func() time.Time
}

// NewStore returns a Store backed by path. The file is created on first append.
func NewStore(path string) *Store {
	return &Store{path: path, Now: time.Now}
}

// Path returns the history document location.
func (s *Store) Path() string {
	return s.path
}

// Load returns every record in install order. A missing file is an empty history.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf(messages.HistoryReadFmt, s.path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return []Record{}, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf(messages.HistoryDecodeFmt, s.path, err)
	}
	if doc.Versions == nil {
		doc.Versions = []Record{}
	}
	return doc.Versions, nil
}

// Append records a successful install of version. backupPath may be empty.
// The read-modify-write runs under an exclusive file lock.
func (s *Store) Append(version string, backupPath string) (Record, error) {
	if strings.TrimSpace(version) == "" {
		return Record{}, fmt.Errorf(messages.HistoryVersionRequired)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	record := Record{
		Version:     version,
		InstalledAt: now().UTC().Format(time.RFC3339),
	}
	if backupPath != "" {
		path := backupPath
		record.BackupPath = &path
	}

	err := fsutil.WithFileLock(context.Background(), fsutil.LockPath(s.path), func() error {
		records, err := s.Load()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(document{Versions: append(records, record)}, "", "  ")
		if err != nil {
			return fmt.Errorf(messages.HistoryEncodeFmt, err)
		}
		data = append(data, '\n')
		if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
			return fmt.Errorf(messages.HistoryWriteFmt, s.path, err)
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// Latest returns the most recent record.
func (s *Store) Latest() (Record, bool, error) {
	records, err := s.Load()
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[len(records)-1], true, nil
}

// Previous returns the record installed before the most recent one.
func (s *Store) Previous() (Record, error) {
	records, err := s.Load()
	if err != nil {
		return Record{}, err
	}
	if len(records) < 2 {
		return Record{}, ErrNoPreviousVersion
	}
	return records[len(records)-2], nil
}
