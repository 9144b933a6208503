package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/index"
	"github.com/blugelabs/bluge/search"
	"github.com/google/uuid"

	"streamchat/domain"
)

// ReviewIndex is the full-text index backing the moderator review queue.
// Messages the screener flagged (and messages moderators acted on) are
// indexed in Bluge so a moderator can search "what did this troll say"
// across a room without scanning the whole archive.
//
// Writes are buffered into a batch and committed once batchSize docs
// accumulate, or explicitly via Flush. Bluge readers only see committed
// batches.
type ReviewIndex struct {
	mu        sync.Mutex
	writer    *bluge.Writer
	log       *slog.Logger
	pageSize  int
	batchSize int
	batch     *index.Batch
	buffered  int
}

// FlaggedEntry is one review-queue hit. All fields come from stored
// index fields so a search never touches BadgerDB.
type FlaggedEntry struct {
	MessageID uuid.UUID
	RoomID    string
	AuthorID  string
	Content   string
	Reasons   []string
	At        time.Time
}

func NewReviewIndex(writer *bluge.Writer, log *slog.Logger, pageSize, batchSize int) *ReviewIndex {
	return &ReviewIndex{
		writer:    writer,
		log:       log,
		pageSize:  pageSize,
		batchSize: batchSize,
		batch:     bluge.NewBatch(),
	}
}

const (
	fieldRoom    = "room"
	fieldAuthor  = "author"
	fieldContent = "content"
	fieldReason  = "reason"
	fieldAt      = "at"
)

// Index adds or refreshes a message in the review index. Re-indexing
// the same message id replaces the previous document, so a message
// flagged twice (screener then moderator) keeps a single entry.
func (r *ReviewIndex) Index(msg domain.Message, reasons []string) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField(fieldRoom, msg.RoomID).StoreValue()).
		AddField(bluge.NewKeywordField(fieldAuthor, msg.Author.ID).StoreValue()).
		AddField(bluge.NewTextField(fieldContent, msg.Content).StoreValue()).
		AddField(bluge.NewKeywordField(fieldAt, strconv.FormatInt(msg.CreatedAt.UnixNano(), 10)).StoreValue())
	for _, reason := range reasons {
		doc.AddField(bluge.NewKeywordField(fieldReason, reason).StoreValue())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batch.Update(doc.ID(), doc)
	r.buffered++
	if r.buffered >= r.batchSize {
		return r.flushLocked()
	}
	return nil
}

// Flush commits buffered documents, making them visible to searches.
func (r *ReviewIndex) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *ReviewIndex) flushLocked() error {
	if r.buffered == 0 {
		return nil
	}
	if err := r.writer.Batch(r.batch); err != nil {
		return fmt.Errorf("committing review batch: %w", err)
	}
	r.log.Debug("review index flushed", "docs", r.buffered)
	r.batch.Reset()
	r.buffered = 0
	return nil
}

// SearchFlagged runs a full-text query over one room's flagged messages.
// from is the offset of the first hit; a page holds pageSize entries.
// Returns the page and the total hit count across all pages.
func (r *ReviewIndex) SearchFlagged(ctx context.Context, query, roomID string, from int) ([]FlaggedEntry, uint64, error) {
	if query == "" {
		return nil, 0, nil
	}
	if err := r.Flush(); err != nil {
		return nil, 0, err
	}

	reader, err := r.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			r.log.Warn("closing index reader", "err", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField(fieldContent)).
		AddMust(bluge.NewTermQuery(roomID).SetField(fieldRoom))

	search := bluge.NewTopNSearch(r.pageSize, q).
		WithStandardAggregations().
		SetFrom(from)

	iter, err := reader.Search(ctx, search)
	if err != nil {
		return nil, 0, fmt.Errorf("searching review index: %w", err)
	}

	var entries []FlaggedEntry
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			break
		}
		entry, err := entryFromMatch(match)
		if err != nil {
			r.log.Warn("skipping unreadable review hit", "err", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, iter.Aggregations().Count(), nil
}

func entryFromMatch(match *search.DocumentMatch) (FlaggedEntry, error) {
	var entry FlaggedEntry
	var visitErr error
	err := match.VisitStoredFields(func(field string, value []byte) bool {
		switch field {
		case "_id":
			entry.MessageID, visitErr = uuid.Parse(string(value))
		case fieldRoom:
			entry.RoomID = string(value)
		case fieldAuthor:
			entry.AuthorID = string(value)
		case fieldContent:
			entry.Content = string(value)
		case fieldReason:
			entry.Reasons = append(entry.Reasons, string(value))
		case fieldAt:
			nanos, err := strconv.ParseInt(string(value), 10, 64)
			if err != nil {
				visitErr = err
				return false
			}
			entry.At = time.Unix(0, nanos).UTC()
		}
		return visitErr == nil
	})
	if err != nil {
		return FlaggedEntry{}, err
	}
	if visitErr != nil {
		return FlaggedEntry{}, visitErr
	}
	return entry, nil
}
