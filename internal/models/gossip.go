package models

import "time"

// Gossip discussion types understood by the board.
const (
	DiscussionGeneral  = "general"
	DiscussionQuestion = "question"
	DiscussionAlert    = "alert"
)

// GossipPost is an entry on the anonymous discussion board. It shares the
// feed shape with Post but carries an anonymity flag that gates whether the
// author may be linked to a profile.
type GossipPost struct {
	ID             ID          `json:"id"`
	Title          string      `json:"title"`
	Body           string      `json:"body"`
	Anonymous      bool        `json:"anonymous"`
	Author         *PostAuthor `json:"author,omitempty"`
	DiscussionType string      `json:"discussionType"`
	Tags           []string    `json:"tags,omitempty"`
	Location       string      `json:"location,omitempty"`
	CommentsCount  int         `json:"commentsCount"`
	LikesCount     int         `json:"likesCount"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// DisplayName returns the name to render for the author. Anonymous posts
// never expose the real author even when the backend included one.
func (g *GossipPost) DisplayName() string {
	if g.Anonymous || g.Author == nil {
		return "Neighbor"
	}
	if g.Author.Name != "" {
		return g.Author.Name
	}
	return g.Author.Username
}

// Linkable reports whether the author may be rendered as a profile link.
func (g *GossipPost) Linkable() bool {
	return !g.Anonymous && g.Author != nil && g.Author.Username != ""
}

// GossipPage is a paginated slice of gossip posts.
type GossipPage struct {
	Content    []GossipPost `json:"content"`
	Pagination Pagination   `json:"pagination"`
}
