package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Comment struct {
	PostID      string
	Seq         int64
	Author      string
	Message     string
	LikeCount   int64
	CreatedAt   int64
	Geolocation string
	CommentID   int64
	Permalink   string
}

const listComments = `select
    post_id, seq, author, message, like_count, created_at, geolocation, comment_id, permalink
from comments
where post_id = ?
order by seq asc`

func (q *Queries) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, listComments, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Comment
	for rows.Next() {
		var i Comment
		err := rows.Scan(
			&i.PostID,
			&i.Seq,
			&i.Author,
			&i.Message,
			&i.LikeCount,
			&i.CreatedAt,
			&i.Geolocation,
			&i.CommentID,
			&i.Permalink,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteComments = `delete from comments where post_id = ?`

func (q *Queries) DeleteComments(ctx context.Context, postID string) error {
	_, err := q.db.ExecContext(ctx, deleteComments, postID)
	return err
}

const createComment = `insert into comments (
    post_id, seq, author, message, like_count, created_at, geolocation, comment_id, permalink
) values (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateComment(ctx context.Context, arg Comment) error {
	_, err := q.db.ExecContext(
		ctx,
		createComment,
		arg.PostID,
		arg.Seq,
		arg.Author,
		arg.Message,
		arg.LikeCount,
		arg.CreatedAt,
		arg.Geolocation,
		arg.CommentID,
		arg.Permalink,
	)
	return err
}
