// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package annotations persists the user's per-record annotations.
//
// # Description
//
// The store keeps the whole annotation map in memory and, on every update,
// serializes the entire map as one JSON blob under a fixed key in the local
// database. The write is synchronous: when Apply returns, the edit is
// durable. A corrupt or missing blob on load degrades to an empty map with
// a logged warning rather than an error.
//
// Concurrent MineDeck processes sharing a data directory are not
// coordinated: the last writer wins, with no merge. This matches the
// original tool's localStorage semantics.
//
// # Thread Safety
//
// The store is safe for concurrent use. In practice all mutations arrive
// from the single UI event loop; the mutex exists for the background sync
// readers.
package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/minedeck/pkg/license"
	"github.com/AleutianAI/minedeck/pkg/localdb"
)

// storageKey is the single key holding the serialized annotation map.
// Kept stable across releases; changing it orphans user data.
const storageKey = "minedeck/annotations"

// Store is the client-local annotation map with durable persistence.
type Store struct {
	mu     sync.RWMutex
	db     *localdb.DB
	data   map[string]license.Annotation
	logger *slog.Logger
}

// Open loads the annotation map from the local database.
//
// Description:
//
//	Reads the serialized map under the fixed storage key. A missing key
//	(first run) or an undecodable blob both fall back to an empty map;
//	the latter is logged at warn level because it loses user data.
//
// Inputs:
//
//	db - The opened local database. Must not be nil.
//	logger - Destination for load/persist diagnostics. Must not be nil.
//
// Outputs:
//
//	*Store - The ready store.
//	error - Non-nil only for database read failures other than a missing key.
func Open(db *localdb.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}

	s := &Store{
		db:     db,
		data:   make(map[string]license.Annotation),
		logger: logger,
	}

	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storageKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if jsonErr := json.Unmarshal(val, &s.data); jsonErr != nil {
				logger.Warn("annotation map corrupt, starting empty",
					slog.String("error", jsonErr.Error()))
				s.data = make(map[string]license.Annotation)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	return s, nil
}

// Get returns the annotation for a record id. The zero value means the
// record has never been annotated.
func (s *Store) Get(id string) license.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[id]
}

// All returns a copy of the whole annotation map, suitable for handing to
// the pure derivation functions.
func (s *Store) All() map[string]license.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]license.Annotation, len(s.data))
	for id, a := range s.data {
		out[id] = a
	}
	return out
}

// Len returns the number of annotated records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Apply merges a patch into the annotation for id and persists the whole
// map before returning.
//
// Description:
//
//	The annotation entry is created on first edit. The patch's one-shot
//	Publish trigger is not part of annotation state and is ignored here;
//	the mutation pipeline forwards it to the backend instead.
//
// Inputs:
//
//	id - The record identifier. Must be non-empty.
//	patch - The partial update to merge.
//
// Outputs:
//
//	license.Annotation - The merged annotation as now stored.
//	error - Non-nil if the durable write failed; in that case the
//	        in-memory map is left unchanged.
func (s *Store) Apply(id string, patch license.Patch) (license.Annotation, error) {
	if id == "" {
		return license.Annotation{}, errors.New("record id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := patch.ApplyTo(s.data[id])

	next := make(map[string]license.Annotation, len(s.data)+1)
	for k, v := range s.data {
		next[k] = v
	}
	next[id] = merged

	if err := s.persist(next); err != nil {
		return license.Annotation{}, err
	}
	s.data = next
	return merged, nil
}

// AddNote prepends an activity note so the log stays newest first, and
// persists. The caller supplies the fully built note (id and timestamp).
func (s *Store) AddNote(id string, note license.Note) (license.Annotation, error) {
	s.mu.RLock()
	existing := s.data[id].ActivityLog
	notes := make([]license.Note, 0, len(existing)+1)
	notes = append(notes, note)
	notes = append(notes, existing...)
	s.mu.RUnlock()

	return s.Apply(id, license.NotesPatch(notes))
}

// ToggleVerification flips one checklist flag and persists.
func (s *Store) ToggleVerification(id string, flip func(*license.Verification)) (license.Annotation, error) {
	s.mu.RLock()
	var v license.Verification
	if cur := s.data[id].Verification; cur != nil {
		v = *cur
	}
	s.mu.RUnlock()

	flip(&v)
	return s.Apply(id, license.VerificationPatch(v))
}

// persist writes the serialized map under the fixed key. Callers hold the
// write lock (or are ordered through Apply).
func (s *Store) persist(data map[string]license.Annotation) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(storageKey), blob)
	})
	if err != nil {
		return fmt.Errorf("persist annotations: %w", err)
	}
	return nil
}
