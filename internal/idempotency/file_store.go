package idempotency

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"moderator/internal/logger"
	apperrors "moderator/pkg/errors"
)

const filePerm = 0644

// FileStore keeps processed ids in a sync.Map and appends each newly seen id
// to a local log file, one id per line. Ids that would not survive a line
// round trip are written Go-quoted. The log is replayed in full when the
// store is opened.
type FileStore struct {
	path   string
	logger logger.Logger

	processed sync.Map
	count     atomic.Int64

	mu   sync.Mutex
	file *os.File
}

func NewFileStore(path string, log logger.Logger) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create idempotency log directory %s: %w", dir, err)
		}
	}

	s := &FileStore{
		path:   path,
		logger: log.Named("idempotency"),
	}

	if err := s.replay(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open idempotency log %s: %w", path, err)
	}
	s.file = f

	s.logger.Infow("Idempotency log opened", "path", path, "processed_count", s.count.Load())
	return s, nil
}

func (s *FileStore) replay() error {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.logger.Infow("Idempotency log does not exist yet, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open idempotency log %s for replay: %w", s.path, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNo := 0
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("error reading idempotency log %s: %w", s.path, readErr)
		}
		lineNo++

		if id, ok := s.decodeLine(line, lineNo); ok {
			if _, loaded := s.processed.LoadOrStore(id, struct{}{}); !loaded {
				s.count.Add(1)
			}
		}

		if readErr != nil {
			return nil
		}
	}
}

func (s *FileStore) decodeLine(line string, lineNo int) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if !strings.HasPrefix(line, `"`) {
		return line, true
	}
	id, err := strconv.Unquote(line)
	if err != nil {
		s.logger.Warnw("Skipping unreadable idempotency log line", "path", s.path, "line", lineNo, "error", err)
		return "", false
	}
	return id, true
}

// encodeLine quotes any id that would not read back unchanged from a plain
// line.
func encodeLine(id string) string {
	if strings.ContainsAny(id, "\r\n") || strings.TrimSpace(id) != id || strings.HasPrefix(id, `"`) {
		return strconv.Quote(id) + "\n"
	}
	return id + "\n"
}

func (s *FileStore) IsProcessed(_ context.Context, appealID string) (bool, error) {
	_, ok := s.processed.Load(appealID)
	return ok, nil
}

func (s *FileStore) MarkProcessed(ctx context.Context, appealID string) error {
	if _, loaded := s.processed.LoadOrStore(appealID, struct{}{}); loaded {
		return nil
	}
	s.count.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return apperrors.ErrIdempotencyWrite.
			WithCause(fmt.Errorf("idempotency log %s is closed", s.path)).
			WithDetail("appeal_id", appealID)
	}

	if _, err := s.file.WriteString(encodeLine(appealID)); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to append to idempotency log", "path", s.path, "error", err)
		return apperrors.ErrIdempotencyWrite.WithCause(err).WithDetail("appeal_id", appealID)
	}
	return nil
}

func (s *FileStore) Count() int64 {
	return s.count.Load()
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		s.logger.Warnw("Failed to sync idempotency log", "error", err)
	}
	err := s.file.Close()
	s.file = nil
	return err
}
