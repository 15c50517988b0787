package models

import "time"

// MaxReplyDepth bounds how deep a reply tree is kept after parsing.
// Replies below this depth are dropped rather than rendered, so an
// adversarial or corrupted response cannot drive unbounded recursion.
const MaxReplyDepth = 12

// Comment is a threaded comment. Replies nest recursively; callers must
// clip trees with ClipReplies before walking them.
type Comment struct {
	ID        ID         `json:"id"`
	PostID    ID         `json:"postId"`
	Author    PostAuthor `json:"author"`
	Body      string     `json:"body"`
	MediaURLs []string   `json:"mediaUrls,omitempty"`
	Likes     int        `json:"likes"`
	IsLiked   bool       `json:"isLiked"`
	Replies   []Comment  `json:"replies,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ClipReplies prunes the reply tree to at most maxDepth levels below this
// comment. A maxDepth of 0 removes all replies.
func (c *Comment) ClipReplies(maxDepth int) {
	if maxDepth <= 0 {
		c.Replies = nil
		return
	}
	for i := range c.Replies {
		c.Replies[i].ClipReplies(maxDepth - 1)
	}
}

// CountReplies returns the total number of replies in the (clipped) tree.
func (c *Comment) CountReplies() int {
	n := len(c.Replies)
	for i := range c.Replies {
		n += c.Replies[i].CountReplies()
	}
	return n
}

// CommentPage is a paginated slice of top-level comments.
type CommentPage struct {
	Content    []Comment  `json:"content"`
	Pagination Pagination `json:"pagination"`
}
