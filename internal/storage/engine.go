package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/records-go/internal/core/domain"
	"github.com/yndnr/records-go/internal/core/service"
	"github.com/yndnr/records-go/internal/storage/memory"
	"github.com/yndnr/records-go/internal/storage/snapshot"
	"github.com/yndnr/records-go/internal/telemetry/logger"
	"github.com/yndnr/records-go/internal/telemetry/metric"
)

// UndoHint follows the reports of a session that wrote a snapshot.
const UndoHint = "To undo all of the above changes, invoke undo once."

// Config configures the storage engine.
type Config struct {
	// DataPath is the logical data path supplied by the host. Snapshots
	// live in a hidden directory next to it.
	DataPath string

	// Snapshot configuration. An empty Dir is derived from DataPath.
	Snapshot snapshot.Config

	// LineWidth bounds content report lines. Zero uses the default.
	LineWidth int

	// MetricsTextfile, when set, receives the metrics on Close.
	MetricsTextfile string

	// OnClose receives the session summary after Close persisted.
	OnClose func(Summary)

	Logger  logger.Logger
	Metrics *metric.Registry
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataPath string) Config {
	return Config{
		DataPath: dataPath,
		Snapshot: snapshot.DefaultConfig(dataPath),
	}
}

// Summary describes a closed session.
type Summary struct {
	SessionID       string
	StructureReport string
	ContentReport   string

	// Persisted is the snapshot written by Close, if any.
	Persisted *snapshot.Info
}

// Engine is the host-facing record store. It is meant for one logical
// owner; only Close may be called concurrently with other methods. Close
// seals the store first, so a mutation racing with it either lands before
// the final persist or fails with domain.ErrStorageError.
type Engine struct {
	cfg Config

	// Components
	store    *memory.Store
	tracker  *service.Tracker
	snapshot *snapshot.Manager
	metrics  *metric.Registry

	// State tracking
	dirty  bool
	loaded *snapshot.Info

	logger logger.Logger

	// mu serializes Close with Persist, Undo and Reload.
	mu       sync.Mutex
	closed   bool
	closeErr error
}

// Open creates an engine and loads the latest snapshot into it. Loading
// is not journaled: a fresh engine reports no changes.
func Open(cfg Config) (*Engine, error) {
	if cfg.DataPath == "" {
		return nil, fmt.Errorf("storage: data path is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.NewRegistry()
	}
	if cfg.Snapshot.Dir == "" {
		cfg.Snapshot.Dir = snapshot.DirFor(cfg.DataPath, snapshot.DefaultDirName)
	}

	var trackerOpts []service.TrackerOption
	if cfg.LineWidth > 0 {
		trackerOpts = append(trackerOpts, service.WithLineWidth(cfg.LineWidth))
	}
	tracker := service.NewTracker(trackerOpts...)

	e := &Engine{
		cfg:     cfg,
		tracker: tracker,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With("session_id", tracker.SessionID()),
	}

	cfg.Snapshot.Logger = e.logger
	snapMgr, err := snapshot.NewManager(cfg.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("storage: create snapshot manager: %w", err)
	}
	e.snapshot = snapMgr

	e.store = memory.New(memory.WithRecorder(&recorder{engine: e}))
	if err := e.metrics.Register(metric.NewCollector(e.store)); err != nil {
		e.logger.Warn("record count collector not registered", "error", err)
	}

	if err := e.load(); err != nil {
		return nil, err
	}

	loadedID := ""
	if e.loaded != nil {
		loadedID = e.loaded.ID
	}
	e.logger.Info("store opened",
		"data_path", cfg.DataPath,
		"snapshot_dir", snapMgr.Dir(),
		"snapshot", loadedID,
		"collections", len(e.store.Collections()))

	return e, nil
}

// With opens an engine, runs fn and closes the engine on every exit path,
// including a panic in fn. The Close error is joined with fn's.
func With(cfg Config, fn func(*Engine) error) (err error) {
	e, err := Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, e.Close())
	}()
	return fn(e)
}

// load replaces the store content with the latest usable snapshot and
// starts a new journal.
func (e *Engine) load() error {
	info, err := e.snapshot.Load(e.store.Restore)
	if err != nil {
		return err
	}
	if info == nil {
		e.store.Reset()
	} else {
		e.logger.Info("snapshot loaded",
			"snapshot", info.ID,
			"collections", info.Collections,
			"records", info.Records)
	}

	e.loaded = info
	e.tracker.Clear()
	e.dirty = false
	e.refreshSnapshotGauge()
	return nil
}

// Reload discards in-memory state and the journal and loads the latest
// snapshot again. Used after Undo to continue from the restored state.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errClosed()
	}
	return e.load()
}

// Collection returns a handle for the named collection. The collection
// itself is created by its first record.
func (e *Engine) Collection(name string) Collection {
	return &collection{name: name, store: e.store}
}

// Collections returns collection names in creation order.
func (e *Engine) Collections() []string {
	return e.store.Collections()
}

// Structure returns collection -> attribute -> type name.
func (e *Engine) Structure() map[string]map[string]string {
	return e.store.Structure()
}

// Schema returns the attribute names of a collection, "id" first.
func (e *Engine) Schema(collection string) ([]string, bool) {
	return e.store.Schema(collection)
}

// ContentReport renders the net content changes of the session.
func (e *Engine) ContentReport() string {
	return e.tracker.ContentReport(e.store)
}

// StructureReport renders the attributes typed during the session.
func (e *Engine) StructureReport() string {
	return e.tracker.StructureReport()
}

// SessionID identifies the engine session in logs.
func (e *Engine) SessionID() string {
	return e.tracker.SessionID()
}

// Dirty reports whether changes were made since the last load or
// persist.
func (e *Engine) Dirty() bool {
	return e.dirty
}

// Loaded returns the snapshot the current state was loaded from, or nil.
func (e *Engine) Loaded() *snapshot.Info {
	return e.loaded
}

// Snapshots lists snapshot files, oldest first.
func (e *Engine) Snapshots() ([]*snapshot.Info, error) {
	return e.snapshot.List()
}

// SnapshotDir returns the snapshot directory.
func (e *Engine) SnapshotDir() string {
	return e.snapshot.Dir()
}

// Persist writes the full state as a new snapshot. In-memory state and
// the journal are unaffected; a failed persist changes nothing.
func (e *Engine) Persist() (*snapshot.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errClosed()
	}
	return e.persist()
}

func (e *Engine) persist() (*snapshot.Info, error) {
	start := time.Now()
	info, err := e.snapshot.Persist(e.store.State())
	if err != nil {
		e.logger.Error("persist failed", "error", err)
		return nil, err
	}

	elapsed := time.Since(start)
	e.metrics.ObservePersist(elapsed, info.Size)
	e.dirty = false

	e.logger.Info("snapshot written",
		"snapshot", info.ID,
		"records", info.Records,
		"size_bytes", info.Size,
		"elapsed", elapsed)

	if removed, err := e.snapshot.Prune(); err != nil {
		e.logger.Warn("snapshot cleanup failed", "error", err)
	} else if removed > 0 {
		e.logger.Info("old snapshots pruned", "count", removed)
	}
	e.refreshSnapshotGauge()
	return info, nil
}

// Undo deletes the latest snapshot so the next load resolves to the one
// before it. In-memory state is untouched; call Reload to continue from
// the restored snapshot. Returns domain.ErrNoSnapshots when there is no
// history.
func (e *Engine) Undo() (*snapshot.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errClosed()
	}

	info, err := e.snapshot.Undo()
	if err != nil {
		return nil, err
	}

	e.metrics.Undos.Inc()
	e.refreshSnapshotGauge()
	e.logger.Info("snapshot discarded", "snapshot", info.ID)
	return info, nil
}

// Close stops further mutation, persists unsaved changes, reports the
// session and writes the metrics textfile. Later calls return the first
// call's result.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return e.closeErr
	}
	e.closed = true
	e.store.Seal()

	summary := Summary{
		SessionID:       e.tracker.SessionID(),
		StructureReport: e.tracker.StructureReport(),
		ContentReport:   e.tracker.ContentReport(e.store),
	}

	var errs []error
	if e.dirty {
		info, err := e.persist()
		if err != nil {
			errs = append(errs, err)
		}
		summary.Persisted = info
	}

	e.logger.Info("store closed",
		"changes", e.tracker.Len(),
		"persisted", summary.Persisted != nil,
		"structure_report", summary.StructureReport,
		"content_report", summary.ContentReport)

	if e.cfg.MetricsTextfile != "" {
		if err := e.metrics.WriteTextfile(e.cfg.MetricsTextfile); err != nil {
			errs = append(errs, fmt.Errorf("storage: write metrics: %w", err))
		}
	}

	if e.cfg.OnClose != nil {
		e.cfg.OnClose(summary)
	}

	e.closeErr = errors.Join(errs...)
	return e.closeErr
}

func errClosed() error {
	return domain.ErrStorageError.WithDetails("engine is closed")
}

func (e *Engine) refreshSnapshotGauge() {
	infos, err := e.snapshot.List()
	if err != nil {
		return
	}
	e.metrics.Snapshots.Set(float64(len(infos)))
}

// recorder journals store events for the engine session.
type recorder struct {
	engine *Engine
}

func (r *recorder) Track(ev domain.ChangeEvent) {
	e := r.engine
	e.tracker.Track(ev)
	e.dirty = true
	e.metrics.ObserveChange(ev.Collection, string(ev.Action))
	e.logger.Debug("record changed",
		"collection", ev.Collection,
		"id", ev.RecordID,
		"action", string(ev.Action))
}

func (r *recorder) TrackStructure(c domain.StructureChange) {
	e := r.engine
	e.tracker.TrackStructure(c)
	e.logger.Debug("attribute typed",
		"collection", c.Collection,
		"attribute", c.Attribute,
		"type", string(c.Type))
}

func (r *recorder) Reject(collection, attribute string, err error) {
	e := r.engine
	e.metrics.ObserveReject(collection, domain.GetErrorCode(err))
	e.logger.Debug("assignment rejected",
		"collection", collection,
		"attribute", attribute,
		"error", err)
}
