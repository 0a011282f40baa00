// Package sqlite implements the tally embedded store: an in-memory SQLite
// database whose binary image is kept in a local key/value slot and
// rewritten after every mutation, a generic schema-driven table accessor,
// and the domain tables built on it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tally/internal/events"
	"github.com/mesh-intelligence/tally/internal/schema"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Options configures a Store. Zero fields take defaults.
type Options struct {
	Slot         Slot           // Where the image lives. Default: a MemorySlot.
	Key          string         // Slot key. Default: types.DefaultImageKey.
	Codec        ImageCodec     // Image text encoding. Default: ByteArrayCodec.
	Schema       *schema.Schema // Table descriptor. Default: schema.Default().
	Logger       *slog.Logger   // Default: slog.Default().
	Bus          *events.Bus    // Change notifications. Default: a new bus.
	Synchronizer Synchronizer   // Remote reconciliation. Default: none.
	Now          func() time.Time
}

// Store owns the single embedded database connection and its persisted
// image. Every mutating accessor call saves the whole image before it
// returns.
type Store struct {
	mu     sync.Mutex // serializes statement execution and saves
	db     *sql.DB
	ready  bool
	tables map[string]*Accessor

	slot   Slot
	key    string
	codec  ImageCodec
	schema *schema.Schema
	log    *slog.Logger
	bus    *events.Bus
	syncer Synchronizer
	now    func() time.Time
}

// New returns an uninitialized store. Call Initialize before issuing table
// operations; until then every accessor call is a no-op.
func New(opts Options) *Store {
	s := &Store{
		slot:   opts.Slot,
		key:    opts.Key,
		codec:  opts.Codec,
		schema: opts.Schema,
		log:    opts.Logger,
		bus:    opts.Bus,
		syncer: opts.Synchronizer,
		now:    opts.Now,
		tables: make(map[string]*Accessor),
	}
	if s.slot == nil {
		s.slot = NewMemorySlot()
	}
	if s.key == "" {
		s.key = types.DefaultImageKey
	}
	if s.codec == nil {
		s.codec = ByteArrayCodec{}
	}
	if s.schema == nil {
		s.schema = schema.Default()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.bus == nil {
		s.bus = events.New()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.resetTables()
	return s
}

// Open builds a store from cfg, backed by a DirSlot in cfg.DataDir, and
// initializes it.
func Open(ctx context.Context, cfg types.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	codec, err := CodecFor(cfg.ImageEncoding)
	if err != nil {
		return nil, err
	}
	sch := schema.Default()
	if cfg.SchemaFile != "" {
		if sch, err = schema.Load(cfg.SchemaFile); err != nil {
			return nil, err
		}
	}

	s := New(Options{
		Slot:   NewDirSlot(cfg.DataDir),
		Key:    cfg.ImageKey,
		Codec:  codec,
		Schema: sch,
		Logger: logger,
	})
	if !s.Initialize(ctx) {
		return nil, types.ErrStoreUnavailable
	}
	return s, nil
}

// resetTables installs zero accessors for the well-known slots.
func (s *Store) resetTables() {
	s.tables = make(map[string]*Accessor, len(types.WellKnownTables))
	for _, name := range types.WellKnownTables {
		s.tables[name] = &Accessor{}
	}
}

// Initialize opens the engine, restores the saved image if the slot has
// one, and applies the schema. It is idempotent and reports readiness;
// failures are logged and leave the store unready.
func (s *Store) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return true
	}
	if err := s.initLocked(ctx); err != nil {
		s.log.Error("store initialization failed", "key", s.key, "error", err)
		if s.db != nil {
			s.db.Close()
			s.db = nil
		}
		return false
	}
	s.ready = true
	s.log.Debug("store ready", "key", s.key)
	return true
}

func (s *Store) initLocked(ctx context.Context) error {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	// One connection forever: the in-memory database lives on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	s.db = db

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}

	data, ok, err := s.slot.Load(s.key)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}
	if ok && len(data) > 0 {
		image, err := s.codec.Decode(data)
		if err != nil {
			return err
		}
		if err := deserializeDB(ctx, db, image); err != nil {
			return err
		}
	}

	return s.applySchemaLocked(ctx)
}

// applySchemaLocked creates missing tables and binds the well-known
// accessors to their resolved fields.
func (s *Store) applySchemaLocked(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.schema.DDL()); err != nil {
		return fmt.Errorf("%w: %v", types.ErrSchemaFailed, err)
	}
	for _, name := range types.WellKnownTables {
		if fields, ok := s.schema.Fields(name); ok {
			s.tables[name] = NewAccessor(s, name, fields)
		}
	}
	return nil
}

// Ready reports whether Initialize has succeeded and Close has not run.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Schema returns the descriptor the store was built with.
func (s *Store) Schema() *schema.Schema {
	return s.schema
}

// Events returns the bus change notifications are emitted on.
func (s *Store) Events() *events.Bus {
	return s.bus
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.log
}

// Table returns the accessor for name: the bound one for a well-known slot,
// an ad-hoc one for any other schema table, and a no-op zero accessor when
// the store is not ready or the table is unknown.
func (s *Store) Table(name string) *Accessor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.tables[name]; ok {
		return a
	}
	if !s.ready {
		return &Accessor{}
	}
	fields, ok := s.schema.Fields(name)
	if !ok {
		return &Accessor{}
	}
	return NewAccessor(s, name, fields)
}

// Save serializes the live database and overwrites the slot.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return types.ErrStoreUnavailable
	}
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	image, err := serializeDB(context.Background(), s.db)
	if err != nil {
		return err
	}
	data, err := s.codec.Encode(image)
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	if err := s.slot.Store(s.key, data); err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

// Batch scopes a group of mutations that share one save. Only accessors
// obtained through the Batch defer their save; every other caller of the
// store still saves before it returns.
type Batch struct {
	store *Store
	dirty bool // a save was deferred; guarded by store.mu
	done  bool // Batch returned; guarded by store.mu
}

// Table returns the named accessor with its saves deferred to b.
func (b *Batch) Table(name string) *Accessor {
	return b.store.Table(name).in(b)
}

// Batch runs fn, then saves once if any mutation made through b changed
// the database. Bulk import paths use it; single-row calls save
// immediately.
func (s *Store) Batch(fn func(b *Batch) error) error {
	b := &Batch{store: s}
	fnErr := fn(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	b.done = true
	if !b.dirty {
		return fnErr
	}
	b.dirty = false
	if !s.ready {
		return errors.Join(fnErr, fmt.Errorf("saving batch: %w", types.ErrStoreUnavailable))
	}
	if err := s.saveLocked(); err != nil {
		return errors.Join(fnErr, fmt.Errorf("saving batch: %w", err))
	}
	return fnErr
}

// Close releases the engine. Accessors obtained earlier become no-ops.
// Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.ready = false
	s.resetTables()
	return err
}

// read runs fn against the connection when the store is ready.
func (s *Store) read(fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return types.ErrStoreUnavailable
	}
	return fn(s.db)
}

// mutate runs fn, persists the image, then emits the named events once the
// lock is released so handlers may query the store. With an open batch the
// save is left to the end of the batch.
func (s *Store) mutate(b *Batch, fn func(db *sql.DB) error, eventNames ...string) error {
	if err := s.mutateLocked(b, fn); err != nil {
		return err
	}
	for _, name := range eventNames {
		s.bus.Emit(name)
	}
	return nil
}

func (s *Store) mutateLocked(b *Batch, fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return types.ErrStoreUnavailable
	}
	if err := fn(s.db); err != nil {
		return err
	}
	if b != nil && !b.done {
		b.dirty = true
		return nil
	}
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	return nil
}

// Query runs a read query that is not tied to one table and reports
// engine errors to the caller.
func (s *Store) Query(query string, args ...any) ([]types.Record, error) {
	var recs []types.Record
	err := s.read(func(db *sql.DB) error {
		var err error
		recs, err = queryRecords(db, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}
