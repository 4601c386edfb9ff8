// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session persists the auth session in the local database.
//
// Token, role, username, and user id are stored under individual keys,
// mirroring how the browser build kept them as separate localStorage
// entries. The session is not encrypted at rest; the data directory is
// user-private (0750).
package session

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/minedeck/pkg/backend"
	"github.com/AleutianAI/minedeck/pkg/localdb"
)

const (
	keyToken    = "minedeck/session/token"
	keyRole     = "minedeck/session/role"
	keyUsername = "minedeck/session/username"
	keyUserID   = "minedeck/session/user_id"
)

// ErrNoSession is returned by Load when no session has been saved.
var ErrNoSession = errors.New("no saved session")

// Save persists a login session.
func Save(db *localdb.DB, sess backend.Session) error {
	err := db.Update(func(txn *badger.Txn) error {
		for key, val := range map[string]string{
			keyToken:    sess.AccessToken,
			keyRole:     sess.Role,
			keyUsername: sess.Username,
			keyUserID:   sess.UserID,
		} {
			if err := txn.Set([]byte(key), []byte(val)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load reads the saved session. Returns ErrNoSession when the user has
// never logged in (or has logged out).
func Load(db *localdb.DB) (backend.Session, error) {
	var sess backend.Session
	err := db.View(func(txn *badger.Txn) error {
		read := func(key string, dst *string) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				*dst = string(val)
				return nil
			})
		}
		if err := read(keyToken, &sess.AccessToken); err != nil {
			return err
		}
		if err := read(keyRole, &sess.Role); err != nil {
			return err
		}
		if err := read(keyUsername, &sess.Username); err != nil {
			return err
		}
		return read(keyUserID, &sess.UserID)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return backend.Session{}, ErrNoSession
	}
	if err != nil {
		return backend.Session{}, fmt.Errorf("load session: %w", err)
	}
	sess.TokenType = "bearer"
	return sess, nil
}

// Clear removes the saved session (logout).
func Clear(db *localdb.DB) error {
	err := db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{keyToken, keyRole, keyUsername, keyUserID} {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
