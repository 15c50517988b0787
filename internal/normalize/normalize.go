// Package normalize maps the backend's heterogeneous list-response shapes
// onto one canonical record before anything reaches the query cache.
//
// Feed endpoints have shipped three shapes in the wild: {content}, then
// {data:{content}}, then {data:{data:{content}}}. Author sub-objects and
// counter names drifted the same way. Normalization happens exactly once, at
// this boundary, and unrecognized shapes are an error rather than a silent
// empty result.
package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"stoop/internal/models"
)

// maxNesting is how many data:{...} wrappers a response may carry.
const maxNesting = 2

type rawAuthor struct {
	ID        models.ID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL string    `json:"avatarUrl"`
	Verified  bool      `json:"verified"`
}

type rawPost struct {
	ID       models.ID  `json:"id"`
	AuthorID models.ID  `json:"authorId"`
	Author   *rawAuthor `json:"author"`
	Content  string     `json:"content"`
	Type     string     `json:"type"`

	Media []models.MediaItem `json:"media"`
	Tags  []string           `json:"tags"`

	LikesCount    *int `json:"likesCount"`
	Likes         *int `json:"likes"`
	CommentsCount *int `json:"commentsCount"`
	Comments      *int `json:"comments"`
	SharesCount   *int `json:"sharesCount"`
	Shares        *int `json:"shares"`
	ViewsCount    *int `json:"viewsCount"`
	Views         *int `json:"views"`

	IsLiked   bool      `json:"isLiked"`
	IsSaved   bool      `json:"isSaved"`
	CreatedAt time.Time `json:"createdAt"`
}

type rawPagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int   `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    *bool `json:"hasMore"`
}

type rawPage struct {
	Content    *json.RawMessage `json:"content"`
	Pagination *rawPagination   `json:"pagination"`
	Data       *json.RawMessage `json:"data"`
}

// innerPage descends through up to maxNesting data wrappers until it finds a
// level carrying a content array. An absent content array at every level is
// a shape error; a present-but-empty array is a valid empty page.
func innerPage(raw json.RawMessage) (*rawPage, error) {
	current := raw
	for depth := 0; depth <= maxNesting; depth++ {
		var page rawPage
		if err := json.Unmarshal(current, &page); err != nil {
			return nil, shapeError(err)
		}
		if page.Content != nil {
			return &page, nil
		}
		if page.Data == nil {
			break
		}
		current = *page.Data
	}
	return nil, shapeError(nil)
}

func shapeError(err error) error {
	return &models.APIError{
		Code:    models.CodeShape,
		Message: "unrecognized list response shape",
		Err:     err,
	}
}

// FeedPage normalizes a raw list payload into the canonical feed page.
func FeedPage(raw json.RawMessage) (models.FeedPage, error) {
	page, err := innerPage(raw)
	if err != nil {
		return models.FeedPage{}, err
	}

	var posts []rawPost
	if err := json.Unmarshal(*page.Content, &posts); err != nil {
		return models.FeedPage{}, shapeError(err)
	}

	out := models.FeedPage{
		Content:    make([]models.Post, 0, len(posts)),
		Pagination: pagination(page.Pagination),
	}
	for i := range posts {
		out.Content = append(out.Content, normalizePost(&posts[i]))
	}
	return out, nil
}

// GossipPage normalizes a raw gossip list payload.
func GossipPage(raw json.RawMessage) (models.GossipPage, error) {
	page, err := innerPage(raw)
	if err != nil {
		return models.GossipPage{}, err
	}
	var posts []models.GossipPost
	if err := json.Unmarshal(*page.Content, &posts); err != nil {
		return models.GossipPage{}, shapeError(err)
	}
	return models.GossipPage{Content: posts, Pagination: pagination(page.Pagination)}, nil
}

// CommentPage normalizes a raw comment list payload and clips reply trees to
// the depth guard.
func CommentPage(raw json.RawMessage) (models.CommentPage, error) {
	page, err := innerPage(raw)
	if err != nil {
		return models.CommentPage{}, err
	}
	var comments []models.Comment
	if err := json.Unmarshal(*page.Content, &comments); err != nil {
		return models.CommentPage{}, shapeError(err)
	}
	for i := range comments {
		comments[i].ClipReplies(models.MaxReplyDepth)
	}
	return models.CommentPage{Content: comments, Pagination: pagination(page.Pagination)}, nil
}

// Page normalizes a raw list payload whose items need no per-field mapping
// (users, notifications). It applies the same nesting and pagination rules
// as the feed normalizer.
func Page[T any](raw json.RawMessage) ([]T, models.Pagination, error) {
	page, err := innerPage(raw)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	var items []T
	if err := json.Unmarshal(*page.Content, &items); err != nil {
		return nil, models.Pagination{}, shapeError(err)
	}
	return items, pagination(page.Pagination), nil
}

func pagination(p *rawPagination) models.Pagination {
	if p == nil {
		return models.NewPagination(1, 0, 0, 0, nil)
	}
	return models.NewPagination(p.Page, p.Limit, p.Total, p.TotalPages, p.HasMore)
}

func normalizePost(p *rawPost) models.Post {
	post := models.Post{
		ID:        p.ID,
		Content:   p.Content,
		Type:      p.Type,
		Media:     p.Media,
		Tags:      p.Tags,
		IsLiked:   p.IsLiked,
		IsSaved:   p.IsSaved,
		CreatedAt: p.CreatedAt,

		LikesCount:    pick(p.LikesCount, p.Likes),
		CommentsCount: pick(p.CommentsCount, p.Comments),
		SharesCount:   pick(p.SharesCount, p.Shares),
		ViewsCount:    pick(p.ViewsCount, p.Views),
	}

	switch {
	case p.Author != nil:
		post.Author = normalizeAuthor(p.Author)
	case p.AuthorID != "":
		post.Author = models.PostAuthor{ID: p.AuthorID}
	}
	return post
}

func normalizeAuthor(a *rawAuthor) models.PostAuthor {
	name := a.Name
	if name == "" {
		name = strings.TrimSpace(a.FirstName + " " + a.LastName)
	}
	return models.PostAuthor{
		ID:        a.ID,
		Username:  a.Username,
		Name:      name,
		AvatarURL: a.AvatarURL,
		Verified:  a.Verified,
	}
}

// pick returns the first counter the response actually carried.
func pick(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}
