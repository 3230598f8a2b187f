//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"chatroom/domain"
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
)

type ISearchIndex interface {
	Index(message domain.Message) error
	Remove(id string) error
	Search(ctx context.Context, terms string, limit int) ([]string, error)
}

// SearchIndex maintains a Bluge full-text index over broadcast chat text.
// Only public content ever reaches the index; the caller is responsible for
// keeping private messages out.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

func (s SearchIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewKeywordField("from", message.From).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.CreatedAt))
	return s.writer.Update(doc.ID(), doc)
}

func (s SearchIndex) Remove(id string) error {
	return s.writer.Delete(bluge.Identifier(id))
}

// Search runs a match query against the indexed text and returns message ids
// by descending relevance. Ids may reference since-deleted messages; callers
// drop the ones that no longer resolve.
func (s SearchIndex) Search(ctx context.Context, terms string, limit int) ([]string, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Failed to close index reader", "err", err)
		}
	}()

	query := bluge.NewMatchQuery(terms).SetField("text")
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var ids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
