//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"termchat/domain"
	"termchat/errors"
)

type IMessageRepository interface {
	Append(message domain.Message) error
	Recent(limit int) ([]Entry, error)
	Search(ctx context.Context, keyword string) ([]Entry, error)
}

// Entry is the on-disk projection of a chat message. Lang carries the
// detected language of the body, tagged at append time.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Kind      int       `json:"kind"`
	Recipient string    `json:"recipient,omitempty"`
	Body      string    `json:"body"`
	Lang      string    `json:"lang,omitempty"`
	At        time.Time `json:"at"`
}

type MessageRepository struct {
	db          *badger.DB
	index       *bluge.Writer
	log         *slog.Logger
	searchLimit int
}

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger, searchLimit int) MessageRepository {
	return MessageRepository{db: db, index: index, log: log, searchLimit: searchLimit}
}

// entryKey formats the BadgerDB key as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func entryKey(m domain.Message) string {
	return fmt.Sprintf("msg:%019d:%s", m.CreatedAt.UnixNano(), m.ID)
}

const keyPrefix = "msg:"

// Append commits one message to BadgerDB and mirrors it into the bluge
// keyword index. It returns only after both writes are done; System
// messages are never persisted.
func (m MessageRepository) Append(message domain.Message) error {
	if message.Kind == domain.System {
		m.log.Debug("Skipping persistence of system message", "id", message.ID)
		return nil
	}

	entry := toEntry(message)
	key := entryKey(message)

	bytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return err
	}

	doc := bluge.NewDocument(key)
	// The whole body is indexed as one lowercased keyword term so that
	// wildcard queries give substring semantics.
	doc.AddField(bluge.NewKeywordField("body", strings.ToLower(message.Body)))
	return m.index.Update(doc.ID(), doc)
}

// Recent retrieves the newest entries via a reverse prefix scan and returns
// them in oldest-first order for natural reading.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
func (m MessageRepository) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append([]byte(keyPrefix), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) == limit {
				break
			}
			item := it.Item()
			err := item.Value(func(value []byte) error {
				entry, err := DecodeEntry(value)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
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

	return lo.Reverse(entries), nil
}

// Search returns the entries whose body contains the keyword, matched
// case-insensitively as a substring, in chronological order.
func (m MessageRepository) Search(ctx context.Context, keyword string) ([]Entry, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.ErrEmptyKeyword
	}

	reader, err := m.index.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	pattern := "*" + escapeWildcard(strings.ToLower(keyword)) + "*"
	query := bluge.NewWildcardQuery(pattern)
	query.SetField("body")

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(m.searchLimit, query))
	if err != nil {
		return nil, err
	}

	var keys []string
	match, err := iterator.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}

	// Padded timestamps make key order chronological order.
	sort.Strings(keys)
	return m.fetch(keys)
}

func (m MessageRepository) fetch(keys []string) ([]Entry, error) {
	var entries []Entry
	err := m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			err = item.Value(func(value []byte) error {
				entry, err := DecodeEntry(value)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
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
	return entries, nil
}

// DecodeEntry deserializes one stored value. Shared with the log inspector.
func DecodeEntry(value []byte) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal(value, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func toEntry(m domain.Message) Entry {
	info := whatlanggo.Detect(m.Body)
	return Entry{
		ID:        m.ID,
		Sender:    m.Sender,
		Kind:      int(m.Kind),
		Recipient: m.Recipient,
		Body:      m.Body,
		Lang:      info.Lang.Iso6391(),
		At:        m.CreatedAt,
	}
}

// ToMessage rebuilds the domain view of a stored entry.
func (e Entry) ToMessage() domain.Message {
	return domain.Message{
		ID:        e.ID,
		Sender:    e.Sender,
		Kind:      domain.Kind(e.Kind),
		Recipient: e.Recipient,
		Body:      e.Body,
		CreatedAt: e.At,
	}
}

// escapeWildcard neutralizes bluge wildcard metacharacters inside the
// user-provided keyword.
func escapeWildcard(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return replacer.Replace(s)
}
