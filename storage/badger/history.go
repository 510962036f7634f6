// Copyright 2025 Verdant Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/verdantlabs/dossier/core"
	"github.com/verdantlabs/dossier/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
// Each user's transcript is an append-only sequence of turns; the frontend
// replays it into agent memory when a session is (re)created.
type HistoryRepository struct {
	backend *Backend

	mu   sync.Mutex
	seqs map[string]*badger.Sequence
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new HistoryRepository over the backend.
func NewHistoryRepository(backend *Backend) *HistoryRepository {
	return &HistoryRepository{
		backend: backend,
		seqs:    make(map[string]*badger.Sequence),
	}
}

// AppendTurns appends conversation turns to a user's history.
func (r *HistoryRepository) AppendTurns(ctx context.Context, userID string, turns ...*core.ConversationTurn) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", storage.ErrInvalidQuery)
	}
	if len(turns) == 0 {
		return nil
	}

	for _, turn := range turns {
		if err := core.ValidateTurn(turn); err != nil {
			return err
		}
	}

	seq, err := r.sequence(userID)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			next, err := seq.Next()
			if err != nil {
				return err
			}

			value, err := storage.MarshalTurn(turn)
			if err != nil {
				return err
			}

			if err := tx.Set(makeTurnKey(userID, next), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetTurns returns all turns for a user in insertion order.
func (r *HistoryRepository) GetTurns(ctx context.Context, userID string) ([]*core.ConversationTurn, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", storage.ErrInvalidQuery)
	}

	var turns []*core.ConversationTurn

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTurnPrefix(userID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				turn, err := storage.UnmarshalTurn(val)
				if err != nil {
					return err
				}
				turns = append(turns, turn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	return turns, nil
}

// Close releases all user sequences. The backend is owned by the caller
// and must be closed separately.
func (r *HistoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, seq := range r.seqs {
		if err := seq.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.seqs = make(map[string]*badger.Sequence)
	return firstErr
}

// sequence returns the cached per-user sequence, creating it on first use.
func (r *HistoryRepository) sequence(userID string) (*badger.Sequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq, ok := r.seqs[userID]; ok {
		return seq, nil
	}

	seq, err := r.backend.GetSequence(makeTurnSeqName(userID))
	if err != nil {
		return nil, err
	}
	r.seqs[userID] = seq
	return seq, nil
}
