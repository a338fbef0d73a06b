package timerstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FileStore is the durable Store. It keeps one file per attempt inside a
// profile directory, named by a collision-resistant hash of the attempt
// id and holding a single integer epoch-millisecond value. Files survive
// process restarts; nothing in this subsystem deletes them.
//
// A record that exists but cannot be parsed is treated the same as no
// record at all, and is rewritten on the next SetStartIfAbsent.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create timer store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// GetStart returns the stored start instant for the attempt. Missing and
// unparseable records both report ok=false.
func (s *FileStore) GetStart(_ context.Context, attemptID uuid.UUID) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readStart(attemptID)
}

// SetStartIfAbsent records now as the attempt's start unless a valid
// record already exists, and returns the winning value.
func (s *FileStore) SetStartIfAbsent(_ context.Context, attemptID uuid.UUID, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if start, ok, err := s.readStart(attemptID); err != nil {
		return time.Time{}, err
	} else if ok {
		return start, nil
	}

	path := s.keyPath(attemptID)
	// O_EXCL keeps create-if-missing atomic against another process
	// sharing the same profile directory.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			// Another writer won between our read and create. A corrupt
			// leftover also lands here; clear it and try once more.
			if start, ok, rerr := s.readStart(attemptID); rerr == nil && ok {
				return start, nil
			}
			if rmErr := os.Remove(path); rmErr != nil {
				return time.Time{}, fmt.Errorf("failed to clear corrupt timer record: %w", rmErr)
			}
			f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return time.Time{}, fmt.Errorf("failed to create timer record: %w", err)
			}
		} else {
			return time.Time{}, fmt.Errorf("failed to create timer record: %w", err)
		}
	}

	millis := now.UnixMilli()
	if _, err := f.WriteString(strconv.FormatInt(millis, 10)); err != nil {
		f.Close()
		return time.Time{}, fmt.Errorf("failed to write timer record: %w", err)
	}
	if err := f.Close(); err != nil {
		return time.Time{}, fmt.Errorf("failed to close timer record: %w", err)
	}

	log.Debug().
		Str("attempt_id", attemptID.String()).
		Int64("start_epoch_ms", millis).
		Msg("timer record created")

	return time.UnixMilli(millis), nil
}

func (s *FileStore) readStart(attemptID uuid.UUID) (time.Time, bool, error) {
	data, err := os.ReadFile(s.keyPath(attemptID))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read timer record: %w", err)
	}

	millis, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || millis <= 0 {
		// Silent repair: an unreadable record behaves like no record.
		log.Warn().
			Str("attempt_id", attemptID.String()).
			Msg("ignoring unparseable timer record")
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

// keyPath derives the storage key for an attempt id. Hashing keeps the
// key stable and collision-resistant without leaking the raw id into
// file names.
func (s *FileStore) keyPath(attemptID uuid.UUID) string {
	sum := sha256.Sum256([]byte(attemptID.String()))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".start")
}
