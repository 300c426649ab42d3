package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"settingscatalog/internal/codec"
	"settingscatalog/internal/domain"
	"settingscatalog/internal/loader"
	"settingscatalog/internal/repository"
	"settingscatalog/internal/repository/memory"
)

// SnapshotStore persists catalog snapshots
type SnapshotStore interface {
	SaveCatalog(ctx context.Context, catalog *domain.Catalog) error
}

// Status describes the live catalog
type Status struct {
	Source    string    `json:"source"`
	Pages     int       `json:"pages"`
	Entries   int       `json:"entries"`
	LoadedAt  time.Time `json:"loaded_at"`
	Reloads   uint64    `json:"reloads"`
	LastError string    `json:"last_error,omitempty"`
}

type loadedCatalog struct {
	repo     *memory.Repository
	loadedAt time.Time
}

// Options configures a CatalogService
type Options struct {
	EventBus   *EventBus
	Logger     *log.Logger
	Registerer prometheus.Registerer
	MaxEntries int
	MaxDepth   int
}

// CatalogService holds the live catalog built from a provider table file
type CatalogService struct {
	providersPath string
	repoOpts      []memory.Option

	current atomic.Pointer[loadedCatalog]
	lastErr atomic.Pointer[string]
	reloads atomic.Uint64

	// serialises reloads
	mu sync.Mutex

	eventBus *EventBus
	logger   *log.Logger
	reloadsC *prometheus.CounterVec
}

// NewCatalogService loads the provider table at providersPath and builds
// the initial catalog. It fails if that first build fails.
func NewCatalogService(providersPath string, opts Options) (*CatalogService, error) {
	if opts.EventBus == nil {
		opts.EventBus = NewEventBus()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "service"})
	}

	repoOpts := []memory.Option{
		memory.WithLogger(opts.Logger.WithPrefix("catalog")),
		memory.WithRegisterer(opts.Registerer),
	}
	if opts.MaxEntries > 0 {
		repoOpts = append(repoOpts, memory.WithMaxEntries(opts.MaxEntries))
	}
	if opts.MaxDepth > 0 {
		repoOpts = append(repoOpts, memory.WithMaxDepth(opts.MaxDepth))
	}

	s := &CatalogService{
		providersPath: providersPath,
		repoOpts:      repoOpts,
		eventBus:      opts.EventBus,
		logger:        opts.Logger,
		reloadsC: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settingscatalog",
			Name:      "reloads_total",
			Help:      "Catalog reloads by result.",
		}, []string{"result"}),
	}
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(s.reloadsC); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("register reload metrics: %w", err)
			}
			s.reloadsC = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds the catalog from the provider table file. The new
// catalog replaces the live one only if the whole build succeeds.
func (s *CatalogService) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	repo, err := s.build()
	if err != nil {
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.reloadsC.WithLabelValues("failure").Inc()
		if s.current.Load() != nil {
			s.logger.Error("reload failed, keeping previous catalog", "path", s.providersPath, "error", err)
		}
		s.eventBus.Publish(Event{
			Type:    EventCatalogReloadFailed,
			Payload: map[string]string{"path": s.providersPath, "error": msg},
		})
		return err
	}

	s.current.Store(&loadedCatalog{repo: repo, loadedAt: time.Now()})
	s.lastErr.Store(nil)
	n := s.reloads.Add(1)
	s.reloadsC.WithLabelValues("success").Inc()

	pages := len(repo.GetAllPageWithEntry())
	entries := len(repo.GetAllEntries())
	s.logger.Info("catalog loaded",
		"path", s.providersPath,
		"pages", pages,
		"entries", entries,
		"reload", n,
		"took", time.Since(start).Round(time.Microsecond),
	)
	s.eventBus.Publish(Event{
		Type:    EventCatalogReloaded,
		Payload: map[string]interface{}{"path": s.providersPath, "pages": pages, "entries": entries},
	})
	return nil
}

func (s *CatalogService) build() (*memory.Repository, error) {
	reg, err := loader.LoadYAML(s.providersPath)
	if err != nil {
		return nil, fmt.Errorf("load provider table %s: %w", s.providersPath, err)
	}
	repo, err := memory.New(reg, s.repoOpts...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return repo, nil
}

// Repository returns the live catalog. Callers keep a consistent view for
// as long as they hold the returned value.
func (s *CatalogService) Repository() repository.EntryRepository {
	return s.current.Load().repo
}

// Title returns the title of page id in the live catalog
func (s *CatalogService) Title(id domain.PageID) string {
	return s.current.Load().repo.Title(id)
}

// Export writes the live catalog to w in format
func (s *CatalogService) Export(format string, w io.Writer) error {
	exporter, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	return exporter.Export(s.Repository().Snapshot(), w)
}

// SaveSnapshot writes the live catalog to store
func (s *CatalogService) SaveSnapshot(ctx context.Context, store SnapshotStore) error {
	snapshot := s.Repository().Snapshot()
	if err := store.SaveCatalog(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Info("snapshot saved", "pages", len(snapshot.Pages), "entries", len(snapshot.Entries))
	s.eventBus.Publish(Event{
		Type:    EventSnapshotSaved,
		Payload: map[string]int{"pages": len(snapshot.Pages), "entries": len(snapshot.Entries)},
	})
	return nil
}

// Status reports the size and age of the live catalog
func (s *CatalogService) Status() Status {
	cur := s.current.Load()
	st := Status{
		Source:   s.providersPath,
		Pages:    len(cur.repo.GetAllPageWithEntry()),
		Entries:  len(cur.repo.GetAllEntries()),
		LoadedAt: cur.loadedAt,
		Reloads:  s.reloads.Load(),
	}
	if msg := s.lastErr.Load(); msg != nil {
		st.LastError = *msg
	}
	return st
}

// EventBus returns the bus reload events are published on
func (s *CatalogService) EventBus() *EventBus {
	return s.eventBus
}

// ProvidersPath returns the provider table file the catalog is built from
func (s *CatalogService) ProvidersPath() string {
	return s.providersPath
}
