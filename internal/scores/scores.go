// Package scores keeps the personal best CPS for each duration mode.
package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/verte-zerg/tuicps/internal/model"
)

// Key is the storage entry that holds the serialized table.
const Key = "cps-personal-bests"

// Backend is a durable key/value store.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Recorder is the personal best store used by the UI.
type Recorder interface {
	Load(ctx context.Context) (Table, error)
	RecordIfBest(ctx context.Context, duration int, cps float64) (bool, error)
	Get(duration int) (float64, bool)
	All() []model.Best
}

// Table maps a duration in seconds to the best CPS recorded for it.
type Table map[int]float64

// Store is a Recorder persisted through a Backend.
type Store struct {
	backend Backend
	table   Table
}

var _ Recorder = (*Store)(nil)

// New returns an empty store. Call Load to read the persisted table.
func New(backend Backend) *Store {
	return &Store{backend: backend, table: Table{}}
}

// Load reads the persisted table. A missing or unreadable entry yields an
// empty table; backend errors are returned with the table left empty.
func (s *Store) Load(ctx context.Context) (Table, error) {
	s.table = Table{}
	raw, ok, err := s.backend.Get(ctx, Key)
	if err != nil {
		return s.table.Clone(), fmt.Errorf("failed to read personal bests: %w", err)
	}
	if ok {
		s.table = Decode(raw)
	}
	return s.table.Clone(), nil
}

// RecordIfBest stores cps for duration when it is positive and strictly
// better than the current entry. The whole table is written before it returns.
// On write failure the previous value is restored.
func (s *Store) RecordIfBest(ctx context.Context, duration int, cps float64) (bool, error) {
	if duration <= 0 || !validScore(cps) {
		return false, nil
	}
	prev, had := s.table[duration]
	if had && cps <= prev {
		return false, nil
	}
	s.table[duration] = cps
	if err := s.persist(ctx); err != nil {
		if had {
			s.table[duration] = prev
		} else {
			delete(s.table, duration)
		}
		return false, err
	}
	return true, nil
}

// Get returns the best for duration, if any.
func (s *Store) Get(duration int) (float64, bool) {
	v, ok := s.table[duration]
	return v, ok
}

// All returns every entry ordered by duration.
func (s *Store) All() []model.Best {
	return s.table.Bests()
}

// Clear removes every personal best, in memory and in storage.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, Key); err != nil {
		return fmt.Errorf("failed to clear personal bests: %w", err)
	}
	s.table = Table{}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	text, err := s.table.Encode()
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, Key, text); err != nil {
		return fmt.Errorf("failed to write personal bests: %w", err)
	}
	return nil
}

// Decode parses a serialized table. Text that is not a JSON object yields an
// empty table. Entries are dropped unless the key is a canonical positive
// integer ("10", not " 10", "+10" or "010") and the value is a positive number.
func Decode(text string) Table {
	out := Table{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return out
	}
	for k, v := range raw {
		d, err := strconv.Atoi(k)
		if err != nil || d <= 0 || strconv.Itoa(d) != k {
			continue
		}
		var cps float64
		if err := json.Unmarshal(v, &cps); err != nil || !validScore(cps) {
			continue
		}
		out[d] = cps
	}
	return out
}

// Encode serializes the table as a JSON object keyed by duration.
func (t Table) Encode() (string, error) {
	raw := make(map[string]float64, len(t))
	for d, cps := range t {
		raw[strconv.Itoa(d)] = cps
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode personal bests: %w", err)
	}
	return string(data), nil
}

// Clone returns a copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for d, cps := range t {
		out[d] = cps
	}
	return out
}

// Bests returns the entries ordered by duration.
func (t Table) Bests() []model.Best {
	out := make([]model.Best, 0, len(t))
	for d, cps := range t {
		out = append(out, model.Best{Duration: d, CPS: cps})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Duration < out[j].Duration
	})
	return out
}

func validScore(cps float64) bool {
	return cps > 0 && !math.IsInf(cps, 0) && !math.IsNaN(cps)
}
