package models

import "time"

// Post is a single message in the feed. A post with a nil ParentID is a
// top-level post, otherwise it is a reply inside its parent's thread.
type Post struct {
	ID         string    `json:"id"`
	ParentID   *string   `json:"parentId"` // nil for top-level posts
	AuthorID   string    `json:"authorId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	ChildCount int       `json:"childCount"` // direct replies, filled on reads
}

// Author is the public profile of a post owner as supplied by the identity provider.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
}

type PostWithAuthor struct {
	Post   Post   `json:"post"`
	Author Author `json:"author"`
}

// Page is one slice of a feed. NextCursor is nil on the last page.
type Page struct {
	Posts      []PostWithAuthor `json:"posts"`
	NextCursor *string          `json:"nextCursor,omitempty"`
}
