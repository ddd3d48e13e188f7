package tablestore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"commentwatch/internal/components/assert"
	"commentwatch/internal/tablestore/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// SQLStore keeps every post in one comments table, ordered by a per-post sequence number.
type SQLStore struct {
	db       *sql.DB
	qry      *db.Queries
	location string
}

// NewSQLStore migrates the schema on database. location is only used for display.
func NewSQLStore(ctx context.Context, database *sql.DB, location string) (SQLStore, error) {
	assert.NotNil(database)
	err := db.Migrate(ctx, database)
	if err != nil {
		return SQLStore{}, fmt.Errorf("migrate: %w", err)
	}
	return SQLStore{
		db:       database,
		qry:      db.New(database),
		location: location,
	}, nil
}

// OpenSQLite opens a local sqlite file through the pure go driver.
func OpenSQLite(ctx context.Context, path string) (SQLStore, error) {
	database, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return SQLStore{}, err
	}
	database.SetMaxOpenConns(1)
	store, err := NewSQLStore(ctx, database, path)
	if err != nil {
		database.Close()
		return SQLStore{}, err
	}
	return store, nil
}

// OpenLibsql connects to a remote libsql database.
func OpenLibsql(ctx context.Context, dburl, authToken string) (SQLStore, error) {
	values := url.Values{}
	if authToken != "" {
		values.Add("authToken", authToken)
	}
	database, err := sql.Open("libsql", dburl+"?"+values.Encode())
	if err != nil {
		return SQLStore{}, err
	}
	store, err := NewSQLStore(ctx, database, dburl)
	if err != nil {
		database.Close()
		return SQLStore{}, err
	}
	return store, nil
}

func (s SQLStore) Close() error {
	return s.db.Close()
}

func (s SQLStore) Location(postID string) string {
	return fmt.Sprintf("%s (comments where post_id = %s)", s.location, postID)
}

func (s SQLStore) Load(ctx context.Context, postID string) ([]Record, error) {
	rows, err := s.qry.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Record{
			Author:      r.Author,
			Message:     r.Message,
			LikeCount:   r.LikeCount,
			CreatedAt:   r.CreatedAt,
			Geolocation: r.Geolocation,
			CommentID:   r.CommentID,
			Permalink:   r.Permalink,
		}
	}
	return out, nil
}

// Save replaces the rows of a post inside a transaction, readers see either the old or the
// new table.
func (s SQLStore) Save(ctx context.Context, postID string, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeleteComments(ctx, postID)
	if err != nil {
		return err
	}
	for i, r := range records {
		err = txqry.CreateComment(ctx, db.Comment{
			PostID:      postID,
			Seq:         int64(i),
			Author:      r.Author,
			Message:     r.Message,
			LikeCount:   r.LikeCount,
			CreatedAt:   r.CreatedAt,
			Geolocation: r.Geolocation,
			CommentID:   r.CommentID,
			Permalink:   r.Permalink,
		})
		if err != nil {
			return fmt.Errorf("insert comment %d: %w", r.CommentID, err)
		}
	}
	return tx.Commit()
}
