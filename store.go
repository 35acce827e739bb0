package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// StoredFile describes an uploaded image on disk.
type StoredFile struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// SessionStore owns the lifecycle of uploaded files: each session holds at
// most one file, a replacement deletes its predecessor, idle sessions are
// garbage-collected, and everything left over is purged on shutdown. It is
// an explicit service injected into the handlers rather than ambient state.
type SessionStore struct {
	dir string
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	file     *StoredFile
	lastSeen time.Time
}

// NewSessionStore returns a store keeping files under dir and evicting
// sessions idle longer than ttl.
func NewSessionStore(dir string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		dir:      dir,
		ttl:      ttl,
		sessions: make(map[string]*sessionEntry),
	}
}

// Path returns the on-disk location of a stored filename.
func (s *SessionStore) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Touch marks the session as active, creating it if needed.
func (s *SessionStore) Touch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &sessionEntry{}
		s.sessions[sessionID] = e
	}
	e.lastSeen = time.Now()
}

// Attach registers file as the session's current upload, deleting any file
// it replaces.
func (s *SessionStore) Attach(ctx context.Context, sessionID string, file StoredFile) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &sessionEntry{}
		s.sessions[sessionID] = e
	}
	previous := e.file
	e.file = &file
	e.lastSeen = time.Now()
	s.mu.Unlock()

	if previous != nil {
		s.removeFile(ctx, previous.Filename)
	}
}

// Lookup returns the session's stored file when it matches filename.
func (s *SessionStore) Lookup(sessionID, filename string) (StoredFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok || e.file == nil || e.file.Filename != filename {
		return StoredFile{}, false
	}
	e.lastSeen = time.Now()
	return *e.file, true
}

// Retire detaches and deletes the session's current file, if any. Crop and
// retire are deliberately separate steps so a failed crop never loses its
// source.
func (s *SessionStore) Retire(ctx context.Context, sessionID string) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	var file *StoredFile
	if ok {
		file = e.file
		e.file = nil
		e.lastSeen = time.Now()
	}
	s.mu.Unlock()

	if file != nil {
		s.removeFile(ctx, file.Filename)
	}
}

// Sweep evicts every session idle longer than the store's ttl, deleting its
// file. It returns the number of sessions evicted.
func (s *SessionStore) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	var files []string
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, id)
			if e.file != nil {
				files = append(files, e.file.Filename)
			}
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, name := range files {
		s.removeFile(ctx, name)
	}
	if len(expired) > 0 {
		log.Ctx(ctx).Debug().Int("sessions", len(expired)).Int("files", len(files)).Msg("swept idle sessions")
	}
	return len(expired)
}

// Run sweeps on the given interval until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Close deletes every remaining stored file. Called on shutdown.
func (s *SessionStore) Close(ctx context.Context) error {
	s.mu.Lock()
	var files []string
	for _, e := range s.sessions {
		if e.file != nil {
			files = append(files, e.file.Filename)
		}
	}
	s.sessions = make(map[string]*sessionEntry)
	s.mu.Unlock()

	if len(files) == 0 {
		return nil
	}

	pooler := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(4)
	for _, name := range files {
		pooler.Go(func(ctx context.Context) error {
			path := s.Path(name)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
			return nil
		})
	}
	if err := pooler.Wait(); err != nil {
		return fmt.Errorf("failed to purge stored files: %w", err)
	}
	log.Ctx(ctx).Info().Int("files", len(files)).Msg("purged stored files")
	return nil
}

func (s *SessionStore) removeFile(ctx context.Context, filename string) {
	path := s.Path(filename)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Ctx(ctx).Error().Err(err).Str("path", path).Msg("failed to remove stored file")
		return
	}
	log.Ctx(ctx).Debug().Str("filename", filename).Msg("removed stored file")
}
