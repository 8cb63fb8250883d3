// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package findingstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/davetashner/lintlab/internal/finding"
)

// Key layout:
//
//	f/<workspace>\x00<fingerprint> -> Record (JSON)
//	id/<uuid>                      -> record key
const (
	recordPrefix = "f/"
	idPrefix     = "id/"
)

func recordKey(workspaceID, fingerprint string) []byte {
	return []byte(recordPrefix + workspaceID + "\x00" + fingerprint)
}

func workspacePrefix(workspaceID string) []byte {
	return []byte(recordPrefix + workspaceID + "\x00")
}

// Config holds configuration for a BadgerStore.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in memory. Useful for tests.
	InMemory bool
	// Logger receives badger's own log output. Nil silences it.
	Logger *slog.Logger
	// Now is the clock used for timestamps. Nil means time.Now.
	Now func() time.Time
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// command is a unit of work for the writer goroutine.
type command struct {
	fn    func(db *badger.DB) error
	reply chan error
}

// BadgerStore is a Store backed by badger. A single goroutine owns every
// write transaction; callers hand it commands and wait for the reply.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time

	cmds chan command
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
	mu        sync.RWMutex
	closed    bool
}

// Open opens (creating if needed) a BadgerStore.
func Open(cfg Config) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent finding store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create finding store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open finding store: %w", err)
	}

	s := &BadgerStore{
		db:   db,
		now:  cfg.Now,
		cmds: make(chan command),
		done: make(chan struct{}),
	}
	if s.now == nil {
		s.now = time.Now
	}
	go s.writer()
	return s, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*BadgerStore, error) {
	return Open(Config{InMemory: true})
}

func (s *BadgerStore) writer() {
	defer close(s.done)
	for cmd := range s.cmds {
		cmd.reply <- cmd.fn(s.db)
	}
}

// submit runs fn on the writer goroutine inside one update transaction.
// If ctx ends first the command may still be applied.
func (s *BadgerStore) submit(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return s.submitDB(ctx, func(db *badger.DB) error { return db.Update(fn) })
}

// submitDB runs fn on the writer goroutine with direct access to the DB, for
// commands too large for a single transaction.
func (s *BadgerStore) submitDB(ctx context.Context, fn func(db *badger.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Store implements Store.
func (s *BadgerStore) Store(ctx context.Context, workspaceID string, findings []finding.Finding, meta Meta) error {
	if workspaceID == "" {
		return errors.New("store findings: workspace id is required")
	}
	now := meta.At
	if now.IsZero() {
		now = s.now()
	}

	return s.submitDB(ctx, func(db *badger.DB) error {
		var existing []Record
		if err := db.View(func(txn *badger.Txn) error {
			var err error
			existing, err = scan(txn, workspacePrefix(workspaceID))
			return err
		}); err != nil {
			return err
		}
		byFP := make(map[string]*Record, len(existing))
		for i := range existing {
			byFP[existing[i].Fingerprint] = &existing[i]
		}

		// A run can hold more writes than one transaction allows. The batch
		// splits them; readers only see whole records.
		wb := db.NewWriteBatch()
		defer wb.Cancel()

		seen := make(map[string]bool, len(findings))
		var opened, reopened int
		for _, f := range findings {
			fp := f.Fingerprint()
			if seen[fp] {
				continue
			}
			seen[fp] = true

			rec, ok := byFP[fp]
			if !ok {
				rec = &Record{
					ID:          uuid.NewString(),
					WorkspaceID: workspaceID,
					Fingerprint: fp,
					Status:      StatusOpen,
					FirstSeen:   now,
				}
				if err := wb.Set([]byte(idPrefix+rec.ID), recordKey(workspaceID, fp)); err != nil {
					return err
				}
				opened++
			} else if rec.Status == StatusResolved {
				rec.Status = StatusOpen
				rec.ResolvedAt = nil
				reopened++
			}
			rec.Finding = f
			rec.LastSeen = now
			rec.GitHead = meta.GitHead
			if err := putBatch(wb, rec); err != nil {
				return err
			}
		}

		var resolved int
		for i := range existing {
			rec := &existing[i]
			if seen[rec.Fingerprint] || rec.Status != StatusOpen {
				continue
			}
			rec.Status = StatusResolved
			at := now
			rec.ResolvedAt = &at
			if err := putBatch(wb, rec); err != nil {
				return err
			}
			resolved++
		}
		if err := wb.Flush(); err != nil {
			return err
		}

		slog.Debug("findings stored", "workspace", workspaceID, "findings", len(seen),
			"new", opened, "reopened", reopened, "resolved", resolved)
		return nil
	})
}

// Suppress implements Store.
func (s *BadgerStore) Suppress(ctx context.Context, id, reason string) error {
	return s.update(ctx, id, func(r *Record) {
		r.Status = StatusSuppressed
		r.SuppressReason = reason
		r.ResolvedAt = nil
	})
}

// MarkResolved implements Store.
func (s *BadgerStore) MarkResolved(ctx context.Context, id string) error {
	return s.update(ctx, id, func(r *Record) {
		r.Status = StatusResolved
		at := s.now()
		r.ResolvedAt = &at
	})
}

func (s *BadgerStore) update(ctx context.Context, id string, fn func(*Record)) error {
	return s.submit(ctx, func(txn *badger.Txn) error {
		rec, err := byID(txn, id)
		if err != nil {
			return err
		}
		fn(rec)
		return put(txn, rec)
	})
}

// Query implements Store. Records are ordered by file, line and rule.
func (s *BadgerStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	prefix := []byte(recordPrefix)
	if filter.WorkspaceID != "" {
		prefix = workspacePrefix(filter.WorkspaceID)
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		all, err := scan(txn, prefix)
		if err != nil {
			return err
		}
		for _, r := range all {
			if filter.match(&r) {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Finding, out[j].Finding
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Close stops the writer and closes the database. Pending commands finish
// first.
func (s *BadgerStore) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.cmds)
		s.mu.Unlock()
		<-s.done
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func scan(txn *badger.Txn, prefix []byte) ([]Record, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []Record
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var r Record
		err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
		if err != nil {
			return nil, fmt.Errorf("decode record %q: %w", item.Key(), err)
		}
		out = append(out, r)
	}
	return out, nil
}

func byID(txn *badger.Txn, id string) (*Record, error) {
	item, err := txn.Get([]byte(idPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	item, err = txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var r Record
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &r) }); err != nil {
		return nil, err
	}
	return &r, nil
}

func put(txn *badger.Txn, r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return txn.Set(recordKey(r.WorkspaceID, r.Fingerprint), data)
}

func putBatch(wb *badger.WriteBatch, r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return wb.Set(recordKey(r.WorkspaceID, r.Fingerprint), data)
}

// Compile-time interface check.
var _ Store = (*BadgerStore)(nil)
