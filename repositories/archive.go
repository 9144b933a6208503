// Package repositories persists what outlives a room's in-memory state:
// the durable message log (badger) and the flagged-message review index
// (bluge). Room state itself stays ephemeral and rebuildable from here.
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"streamchat/domain"
)

// MessageArchive stores message snapshots in BadgerDB. The key is
// "msg:{room_id}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding makes lexicographic order chronological.
//  2. The uuid disambiguates two messages landing on the same nanosecond.
//
// Re-storing a message (after moderation changed its status) hits the
// same key and overwrites the old snapshot.
type MessageArchive struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageArchive(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageArchive {
	return &MessageArchive{db: db, log: log, limitMessages: limitMessages}
}

func archiveKey(msg domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", msg.RoomID, msg.CreatedAt.UnixNano(), msg.ID))
}

func (a *MessageArchive) Store(msg domain.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message %s: %w", msg.ID, err)
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(archiveKey(msg), raw)
	})
}

// List returns a room's archived messages in chronological order, up to
// limit (the configured cap applies when limit is 0).
func (a *MessageArchive) List(roomID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		if a.limitMessages != nil {
			limit = *a.limitMessages
		} else {
			limit = 100
		}
	}
	var out []domain.Message
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", roomID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(out) == limit {
				a.log.Debug(fmt.Sprintf("maximum of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return fmt.Errorf("decoding key %s: %w", it.Item().Key(), err)
				}
				out = append(out, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
