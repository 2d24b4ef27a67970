package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/jalal1808/Postify-backend/internal/db"
	"github.com/jalal1808/Postify-backend/internal/shared/apperr"
	"github.com/jalal1808/Postify-backend/internal/shared/ownership"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recentCommentLimit = 3

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, authorID, title, content string) (Post, error) {
	if authorID == "" {
		return Post{}, fmt.Errorf("create post: %w", apperr.ErrUnauthenticated)
	}
	p := Post{
		ID:       uuid.NewString(),
		Title:    title,
		Content:  content,
		AuthorID: authorID,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, title, content, author_id)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, p.ID, p.Title, p.Content, p.AuthorID)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.title, p.content, p.author_id, u.username, u.email, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	var ids []string
	for rows.Next() {
		var p Post
		var a Author
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &a.Username, &a.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		a.ID = p.AuthorID
		p.Author = &a
		ids = append(ids, p.ID)
		posts = append(posts, p)
	}

	images, err := s.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Images = images[posts[i].ID]
	}
	return posts, nil
}

func (s *Service) Get(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT p.id, p.title, p.content, p.author_id, u.username, u.email, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, id)
	var p Post
	var a Author
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &a.Username, &a.Email, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, fmt.Errorf("post %s: %w", id, apperr.ErrNotFound)
		}
		return Post{}, err
	}
	a.ID = p.AuthorID
	p.Author = &a

	images, err := s.loadImages(ctx, []string{p.ID})
	if err != nil {
		return Post{}, err
	}
	p.Images = images[p.ID]
	return p, nil
}

func (s *Service) Update(ctx context.Context, principalID, id string, patch Post) (Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if err := authorize(principalID, ownership.OpUpdate, p); err != nil {
		return Post{}, err
	}

	if patch.Title != "" {
		p.Title = patch.Title
	}
	if patch.Content != "" {
		p.Content = patch.Content
	}

	_, err = s.db.Exec(ctx, `
		UPDATE posts SET title=$2, content=$3 WHERE id=$1
	`, p.ID, p.Title, p.Content)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, principalID, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(principalID, ownership.OpDelete, p); err != nil {
		return err
	}

	// comments, likes and images go with the post via FK cascade
	_, err = s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	return err
}

func (s *Service) AddImage(ctx context.Context, principalID, postID, url string) (Image, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return Image{}, err
	}
	if err := authorize(principalID, ownership.OpUpdate, p); err != nil {
		return Image{}, err
	}

	img := Image{
		ID:     uuid.NewString(),
		PostID: postID,
		URL:    url,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO post_images (id, post_id, url)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, img.ID, img.PostID, img.URL)
	if err := row.Scan(&img.CreatedAt); err != nil {
		return Image{}, err
	}
	return img, nil
}

// ListWithStats builds the denormalized read view: every post with its
// author, exact like/comment counts, and that post's own newest comments
// (at most 3). Counts and previews come from queries batched over all post
// ids, never one round trip per post.
func (s *Service) ListWithStats(ctx context.Context) ([]PostStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.title, p.content, p.author_id, u.username, u.email, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PostStats
	var ids []string
	for rows.Next() {
		var st PostStats
		if err := rows.Scan(&st.ID, &st.Title, &st.Content, &st.Author.ID, &st.Author.Username, &st.Author.Email, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.Images = []Image{}
		st.RecentComments = []CommentPreview{}
		ids = append(ids, st.ID)
		stats = append(stats, st)
	}
	if len(stats) == 0 {
		return []PostStats{}, nil
	}

	likeCounts, err := s.countByPost(ctx, `SELECT post_id, COUNT(*) FROM likes WHERE post_id = ANY($1) GROUP BY post_id`, ids)
	if err != nil {
		return nil, err
	}
	commentCounts, err := s.countByPost(ctx, `SELECT post_id, COUNT(*) FROM comments WHERE post_id = ANY($1) GROUP BY post_id`, ids)
	if err != nil {
		return nil, err
	}
	recent, err := s.loadRecentComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	images, err := s.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range stats {
		id := stats[i].ID
		stats[i].LikeCount = likeCounts[id]
		stats[i].CommentCount = commentCounts[id]
		if rc := recent[id]; rc != nil {
			stats[i].RecentComments = rc
		}
		if imgs := images[id]; imgs != nil {
			stats[i].Images = imgs
		}
	}
	return stats, nil
}

func (s *Service) countByPost(ctx context.Context, sql string, postIDs []string) (map[string]int, error) {
	rows, err := s.db.Query(ctx, sql, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var postID string
		var n int
		if err := rows.Scan(&postID, &n); err != nil {
			return nil, err
		}
		counts[postID] = n
	}
	return counts, nil
}

// loadRecentComments ranks comments inside each post before limiting, so
// every post gets its own newest 3 rather than sharing a global top 3.
func (s *Service) loadRecentComments(ctx context.Context, postIDs []string) (map[string][]CommentPreview, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, user_id, username, content, created_at
		FROM (
			SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created_at,
			       ROW_NUMBER() OVER (PARTITION BY c.post_id ORDER BY c.created_at DESC) AS rn
			FROM comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.post_id = ANY($1)
		) ranked
		WHERE rn <= $2
		ORDER BY post_id, created_at DESC
	`, postIDs, recentCommentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := map[string][]CommentPreview{}
	for rows.Next() {
		var cp CommentPreview
		var postID string
		if err := rows.Scan(&cp.ID, &postID, &cp.UserID, &cp.Username, &cp.Content, &cp.CreatedAt); err != nil {
			return nil, err
		}
		recent[postID] = append(recent[postID], cp)
	}
	return recent, nil
}

func (s *Service) loadImages(ctx context.Context, postIDs []string) (map[string][]Image, error) {
	if len(postIDs) == 0 {
		return map[string][]Image{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, url, created_at
		FROM post_images WHERE post_id = ANY($1)
		ORDER BY created_at
	`, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := map[string][]Image{}
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.PostID, &img.URL, &img.CreatedAt); err != nil {
			return nil, err
		}
		images[img.PostID] = append(images[img.PostID], img)
	}
	return images, nil
}

func authorize(principalID string, op ownership.Operation, p Post) error {
	if ownership.Authorize(principalID, op, p, func(p Post) string { return p.AuthorID }) == ownership.Allow {
		return nil
	}
	if principalID == "" {
		return fmt.Errorf("post %s: %w", p.ID, apperr.ErrUnauthenticated)
	}
	return fmt.Errorf("post %s: %w", p.ID, apperr.ErrForbidden)
}
