package comment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jalal1808/Postify-backend/internal/db"
	"github.com/jalal1808/Postify-backend/internal/shared/apperr"
	"github.com/jalal1808/Postify-backend/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Service handles comments on posts. Every operation is scoped to the
// post named in the route: a comment id on its own is never enough to
// read or remove anything.
type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

func (s *Service) List(ctx context.Context, postID string) ([]Comment, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// Create binds the comment to the post from the route and the user from
// the token. Neither can be supplied by the request body.
func (s *Service) Create(ctx context.Context, userID, postID, content string) (Comment, error) {
	if userID == "" {
		return Comment{}, fmt.Errorf("login required to comment: %w", apperr.ErrUnauthenticated)
	}
	if err := s.postExists(ctx, postID); err != nil {
		return Comment{}, err
	}

	c := Comment{
		ID:      uuid.New().String(),
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO comments (id, post_id, user_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, c.ID, c.PostID, c.UserID, c.Content).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Comment{}, err
	}

	if err := s.db.QueryRow(ctx, `SELECT username FROM users WHERE id=$1`, userID).Scan(&c.Username); err != nil {
		return Comment{}, err
	}

	s.broadcast(postID, "comment_created", c)
	return c, nil
}

// Delete removes a comment only when it belongs to both the given post
// and the given user. A comment that exists under another post, or
// under another user, is indistinguishable from one that never existed.
func (s *Service) Delete(ctx context.Context, userID, postID, commentID string) error {
	if userID == "" {
		return fmt.Errorf("login required to delete a comment: %w", apperr.ErrUnauthenticated)
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM comments WHERE id=$1 AND post_id=$2 AND user_id=$3
	`, commentID, postID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment not found: %w", apperr.ErrNotFound)
	}

	s.broadcast(postID, "comment_deleted", Comment{ID: commentID, PostID: postID, UserID: userID})
	return nil
}

func (s *Service) postExists(ctx context.Context, postID string) error {
	var one int
	err := s.db.QueryRow(ctx, `SELECT 1 FROM posts WHERE id=$1`, postID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("post not found: %w", apperr.ErrNotFound)
	}
	return err
}

func (s *Service) broadcast(postID, event string, c Comment) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{"type": event, "comment": c})
	if err != nil {
		log.Printf("marshal %s event: %v", event, err)
		return
	}
	s.hub.Broadcast(postID, payload)
}
