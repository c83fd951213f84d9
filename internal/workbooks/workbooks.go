package workbooks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheetstruct/sheetstruct/config"
	"github.com/xuri/excelize/v2"
)

// ErrHandleNotFound indicates an unknown or expired workbook handle ID.
var ErrHandleNotFound = errors.New("workbooks: handle not found")

// Handle pairs an open workbook with lifecycle metadata for TTL eviction.
type Handle struct {
	ID        string
	Path      string
	File      *excelize.File
	LoadedAt  time.Time
	ExpiresAt time.Time
	mu        sync.RWMutex
}

// Gate coordinates capacity for open workbook handles; runtime.Controller
// satisfies it.
type Gate interface {
	AcquireWorkbook(ctx context.Context) error
	ReleaseWorkbook()
}

// PathValidator abstracts filesystem path validation. Implementations return
// a canonical absolute path when allowed or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Manager opens workbooks for snapshot building and caches handles with an
// idle TTL so repeated analyses of the same file do not reopen it.
type Manager struct {
	mu           sync.RWMutex
	handles      map[string]*Handle
	byPath       map[string]string
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         Gate
	validator    PathValidator
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// NewManager constructs a Manager. Pass ttl or cleanupEvery <= 0 to use the
// config defaults; gate and clock may be nil (no capacity bound, wall clock).
func NewManager(ttl, cleanupEvery time.Duration, gate Gate, clock func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultWorkbookIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultWorkbookCleanupPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		handles:      make(map[string]*Handle),
		byPath:       make(map[string]string),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        clock,
		gate:         gate,
		stopCh:       make(chan struct{}),
	}
}

// SetPathValidator installs the allow-list validator consulted on open.
func (m *Manager) SetPathValidator(v PathValidator) {
	m.validator = v
}

// Start launches periodic eviction of expired handles.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and closes all open handles.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, h := range m.handles {
		h.mu.Lock()
		_ = h.File.Close()
		h.mu.Unlock()
		delete(m.handles, id)
		delete(m.byPath, h.Path)
		m.release()
	}
	return nil
}

// GetOrOpenByPath resolves the path to a canonical form and returns the
// cached handle for it, opening the workbook when none is live. Returns the
// handle ID and the canonical path.
func (m *Manager) GetOrOpenByPath(ctx context.Context, path string) (string, string, error) {
	canonical, err := m.canonicalize(path)
	if err != nil {
		return "", "", err
	}

	m.mu.RLock()
	id, ok := m.byPath[canonical]
	m.mu.RUnlock()
	if ok {
		if _, live := m.Get(id); live {
			return id, canonical, nil
		}
	}

	id, err = m.open(ctx, canonical)
	if err != nil {
		return "", "", err
	}
	return id, canonical, nil
}

// Get returns the handle when present and refreshes its idle TTL.
func (m *Manager) Get(id string) (*Handle, bool) {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := m.clock()
	h.mu.Lock()
	h.ExpiresAt = now.Add(m.ttl)
	h.mu.Unlock()
	return h, true
}

// WithRead obtains a shared read lock on the handle and executes fn.
func (m *Manager) WithRead(id string, fn func(*excelize.File) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.File)
}

// CloseHandle closes and removes a handle by ID, releasing gate capacity.
func (m *Manager) CloseHandle(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
		delete(m.byPath, h.Path)
	}
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	// Wait for in-flight readers before closing the file.
	h.mu.Lock()
	err := h.File.Close()
	h.mu.Unlock()
	m.release()
	return err
}

// EvictExpired closes handles past their idle TTL.
func (m *Manager) EvictExpired() {
	now := m.clock()

	m.mu.RLock()
	var expired []*Handle
	for _, h := range m.handles {
		h.mu.RLock()
		if now.After(h.ExpiresAt) {
			expired = append(expired, h)
		}
		h.mu.RUnlock()
	}
	m.mu.RUnlock()

	for _, h := range expired {
		h.mu.Lock()
		_ = h.File.Close()
		h.mu.Unlock()

		m.mu.Lock()
		delete(m.handles, h.ID)
		delete(m.byPath, h.Path)
		m.mu.Unlock()
		m.release()
	}
}

// Count returns the number of live handles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

func (m *Manager) canonicalize(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("workbooks: empty path")
	}
	if m.validator != nil {
		return m.validator.ValidateOpenPath(path)
	}
	return filepath.Abs(path)
}

func (m *Manager) open(ctx context.Context, canonical string) (string, error) {
	ext := strings.ToLower(filepath.Ext(canonical))
	switch ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
	default:
		return "", fmt.Errorf("workbooks: unsupported format: %s", ext)
	}

	if err := m.acquire(ctx); err != nil {
		return "", err
	}

	f, err := excelize.OpenFile(canonical)
	if err != nil {
		m.release()
		return "", err
	}

	loadedAt := m.clock()
	h := &Handle{
		ID:        uuid.NewString(),
		Path:      canonical,
		File:      f,
		LoadedAt:  loadedAt,
		ExpiresAt: loadedAt.Add(m.ttl),
	}

	m.mu.Lock()
	m.handles[h.ID] = h
	m.byPath[canonical] = h.ID
	m.mu.Unlock()

	return h.ID, nil
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.gate == nil {
		return nil
	}
	return m.gate.AcquireWorkbook(ctx)
}

func (m *Manager) release() {
	if m.gate == nil {
		return
	}
	m.gate.ReleaseWorkbook()
}
