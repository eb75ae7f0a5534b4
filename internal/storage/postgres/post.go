package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// ReplaceForPage deletes and reinserts the post set for a page, inside
// the sync transaction.
func (s *PostStore) ReplaceForPage(ctx context.Context, pageID string, posts []domain.Post) error {
	ex := GetExecutor(ctx, s.db)

	if _, err := ex.ExecContext(ctx, `DELETE FROM posts WHERE page_id = $1`, pageID); err != nil {
		return err
	}
	if len(posts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO posts (post_id, page_id, content, post_url, likes, comments_count, reposts, posted_at) VALUES `)
	args := make([]interface{}, 0, len(posts)*8)

	for i, post := range posts {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < 8; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(i*8+j+1))
		}
		sb.WriteString(")")
		args = append(args, post.PostID, pageID, post.Content, post.PostURL, post.Likes, post.CommentsCount, post.Reposts, post.PostedAt)
	}

	_, err := ex.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *PostStore) ListByPage(ctx context.Context, pageID string) ([]domain.Post, error) {
	query := `
		SELECT id, post_id, page_id, content, post_url, likes, comments_count, reposts, posted_at
		FROM posts
		WHERE page_id = $1
		ORDER BY posted_at DESC NULLS LAST, id`

	var posts []domain.Post
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &posts, query, pageID)
	return posts, err
}

func (s *PostStore) CountByPage(ctx context.Context, pageID string) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		`SELECT COUNT(*) FROM posts WHERE page_id = $1`, pageID)
	return count, err
}
