package post

import "time"

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Author    *Author   `json:"author,omitempty"`
	Images    []Image   `json:"images,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Image struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentPreview is the bounded comment sample embedded in the stats view.
type CommentPreview struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PostStats struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	Author         Author           `json:"author"`
	Images         []Image          `json:"images"`
	LikeCount      int              `json:"like_count"`
	CommentCount   int              `json:"comment_count"`
	RecentComments []CommentPreview `json:"recent_comments"`
	CreatedAt      time.Time        `json:"created_at"`
}
