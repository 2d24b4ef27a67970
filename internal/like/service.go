package like

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jalal1808/Postify-backend/internal/db"
	"github.com/jalal1808/Postify-backend/internal/shared/apperr"
	"github.com/jalal1808/Postify-backend/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Service records likes. Uniqueness per (user, post) is enforced by the
// database, not by a read-then-write check, so concurrent requests from
// the same user can never produce two rows.
type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Add inserts a like for the post. A second like from the same user is
// reported as a conflict and leaves the table unchanged.
func (s *Service) Add(ctx context.Context, userID, postID string) (Like, error) {
	if userID == "" {
		return Like{}, fmt.Errorf("login required to like: %w", apperr.ErrUnauthenticated)
	}
	if err := s.postExists(ctx, postID); err != nil {
		return Like{}, err
	}

	l := Like{
		ID:     uuid.New().String(),
		UserID: userID,
		PostID: postID,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO likes (id, user_id, post_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING
		RETURNING created_at
	`, l.ID, l.UserID, l.PostID).Scan(&l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// the conflicting row won; nothing was inserted
		return Like{}, fmt.Errorf("post already liked: %w", apperr.ErrConflict)
	}
	if err != nil {
		return Like{}, err
	}

	s.broadcast(postID, "like_added", l)
	return l, nil
}

// Remove deletes the caller's like. Liking state is private to the pair,
// so a missing row simply reads as not found.
func (s *Service) Remove(ctx context.Context, userID, postID string) error {
	if userID == "" {
		return fmt.Errorf("login required to unlike: %w", apperr.ErrUnauthenticated)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM likes WHERE user_id=$1 AND post_id=$2`, userID, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("like not found: %w", apperr.ErrNotFound)
	}

	s.broadcast(postID, "like_removed", Like{UserID: userID, PostID: postID})
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

func (s *Service) broadcast(postID, event string, l Like) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{"type": event, "like": l})
	if err != nil {
		log.Printf("marshal %s event: %v", event, err)
		return
	}
	s.hub.Broadcast(postID, payload)
}
