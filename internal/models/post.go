package models

import "time"

// PostAuthor is the embedded author subset carried on feed items. Several
// backend endpoints ship authors in divergent shapes (top-level authorId,
// firstName/lastName pairs); normalization maps them all onto this one type.
type PostAuthor struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Verified  bool   `json:"verified"`
}

// MediaItem is one attachment on a post.
type MediaItem struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Post is the feed unit. Counters and the IsLiked/IsSaved flags always
// reflect the most recent server acknowledgment; the client never computes
// them locally.
type Post struct {
	ID            ID          `json:"id"`
	Author        PostAuthor  `json:"author"`
	Content       string      `json:"content"`
	Type          string      `json:"type"`
	Media         []MediaItem `json:"media,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	LikesCount    int         `json:"likesCount"`
	CommentsCount int         `json:"commentsCount"`
	SharesCount   int         `json:"sharesCount"`
	ViewsCount    int         `json:"viewsCount"`
	IsLiked       bool        `json:"isLiked"`
	IsSaved       bool        `json:"isSaved"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// FeedPage is the canonical paginated feed slice every list endpoint is
// normalized into before it reaches the query cache.
type FeedPage struct {
	Content    []Post     `json:"content"`
	Pagination Pagination `json:"pagination"`
}
