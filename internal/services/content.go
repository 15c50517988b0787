package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"stoop/internal/media"
	"stoop/internal/models"
	"stoop/internal/normalize"
	"stoop/internal/transport"
)

// Content wraps the posts/comments resource area.
type Content struct {
	api *transport.Client
}

// FeedParams selects a slice of the feed.
type FeedParams struct {
	Page   int
	Limit  int
	Filter string
	Lat    float64
	Lng    float64
	HasGeo bool
}

// RankedFeed fetches the geo-ranked feed. Endpoint availability fallback is
// the caller's policy, not this function's.
func (c *Content) RankedFeed(ctx context.Context, p FeedParams) (models.FeedPage, error) {
	q := pageQuery(p.Page, p.Limit)
	if p.HasGeo {
		q.Set("lat", fmt.Sprintf("%.6f", p.Lat))
		q.Set("lng", fmt.Sprintf("%.6f", p.Lng))
	}
	env, err := c.api.Do(ctx, "GET", "/posts/feed", q, nil)
	if err != nil {
		return models.FeedPage{}, err
	}
	return normalize.FeedPage(env.Data)
}

// RecentPosts fetches the non-ranked recent feed with an optional filter.
func (c *Content) RecentPosts(ctx context.Context, p FeedParams) (models.FeedPage, error) {
	q := pageQuery(p.Page, p.Limit)
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	env, err := c.api.Do(ctx, "GET", "/posts/recent", q, nil)
	if err != nil {
		return models.FeedPage{}, err
	}
	return normalize.FeedPage(env.Data)
}

// SavedPosts fetches the current user's saved items.
func (c *Content) SavedPosts(ctx context.Context, page, limit int) (models.FeedPage, error) {
	env, err := c.api.Do(ctx, "GET", "/posts/saved", pageQuery(page, limit), nil)
	if err != nil {
		return models.FeedPage{}, err
	}
	return normalize.FeedPage(env.Data)
}

// GetPost fetches one post by id.
func (c *Content) GetPost(ctx context.Context, id models.ID) (*models.Post, error) {
	var p models.Post
	if err := c.api.Get(ctx, "/posts/"+url.PathEscape(id.String()), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePostInput is the create-post request body.
type CreatePostInput struct {
	Content string             `json:"content"`
	Type    string             `json:"type"`
	Tags    []string           `json:"tags,omitempty"`
	Media   []models.MediaItem `json:"media,omitempty"`
}

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// NewTextPost builds a text-only post input, extracting #hashtags from the
// content into the tags field.
func NewTextPost(content string) CreatePostInput {
	var tags []string
	seen := map[string]struct{}{}
	for _, m := range hashtagPattern.FindAllStringSubmatch(content, -1) {
		tag := strings.ToLower(m[1])
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return CreatePostInput{Content: content, Type: "text", Tags: tags}
}

// CreatePost submits a new post.
func (c *Content) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	var p models.Post
	if err := c.api.Post(ctx, "/posts", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes one of the current user's posts.
func (c *Content) DeletePost(ctx context.Context, id models.ID) error {
	return c.api.Delete(ctx, "/posts/"+url.PathEscape(id.String()), nil)
}

// LikeResult is the server acknowledgment for like/save toggles; the client
// adopts these counters verbatim.
type LikeResult struct {
	LikesCount int  `json:"likesCount"`
	IsLiked    bool `json:"isLiked"`
	IsSaved    bool `json:"isSaved"`
}

// LikePost marks a post liked.
func (c *Content) LikePost(ctx context.Context, id models.ID) (*LikeResult, error) {
	var r LikeResult
	if err := c.api.Post(ctx, "/posts/"+url.PathEscape(id.String())+"/like", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UnlikePost removes a like.
func (c *Content) UnlikePost(ctx context.Context, id models.ID) (*LikeResult, error) {
	var r LikeResult
	if err := c.api.Delete(ctx, "/posts/"+url.PathEscape(id.String())+"/like", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SavePost bookmarks a post.
func (c *Content) SavePost(ctx context.Context, id models.ID) (*LikeResult, error) {
	var r LikeResult
	if err := c.api.Post(ctx, "/posts/"+url.PathEscape(id.String())+"/save", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UnsavePost removes a bookmark.
func (c *Content) UnsavePost(ctx context.Context, id models.ID) (*LikeResult, error) {
	var r LikeResult
	if err := c.api.Delete(ctx, "/posts/"+url.PathEscape(id.String())+"/save", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Comments fetches one page of a post's comment tree.
func (c *Content) Comments(ctx context.Context, postID models.ID, page, limit int) (models.CommentPage, error) {
	env, err := c.api.Do(ctx, "GET", "/posts/"+url.PathEscape(postID.String())+"/comments", pageQuery(page, limit), nil)
	if err != nil {
		return models.CommentPage{}, err
	}
	return normalize.CommentPage(env.Data)
}

// CreateCommentInput is the create-comment request body.
type CreateCommentInput struct {
	Body      string   `json:"body"`
	ParentID  models.ID `json:"parentId,omitempty"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
}

// CreateComment adds a comment (or reply, when ParentID is set) to a post.
func (c *Content) CreateComment(ctx context.Context, postID models.ID, in CreateCommentInput) (*models.Comment, error) {
	var out models.Comment
	if err := c.api.Post(ctx, "/posts/"+url.PathEscape(postID.String())+"/comments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes one of the current user's comments.
func (c *Content) DeleteComment(ctx context.Context, postID, commentID models.ID) error {
	return c.api.Delete(ctx,
		"/posts/"+url.PathEscape(postID.String())+"/comments/"+url.PathEscape(commentID.String()), nil)
}

// UploadMedia sends one media file and returns its stored descriptor. The
// file is sniffed locally first so unsupported or oversized uploads fail
// before any bytes hit the wire.
func (c *Content) UploadMedia(ctx context.Context, filename string, r io.Reader, progress transport.ProgressFunc) (*models.MediaItem, error) {
	data, err := readUpload(r)
	if err != nil {
		return nil, err
	}
	var item models.MediaItem
	err = c.api.Upload(ctx, "/media",
		transport.UploadFile{Field: "media", Filename: filename, Reader: bytes.NewReader(data)},
		nil, progress, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UploadMediaBatch sends several media files in one multipart request. Every
// file is sniffed first; one bad file rejects the whole batch.
func (c *Content) UploadMediaBatch(ctx context.Context, files []transport.UploadFile, progress transport.ProgressFunc) ([]models.MediaItem, error) {
	for i := range files {
		data, err := readUpload(files[i].Reader)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", files[i].Filename, err)
		}
		files[i].Reader = bytes.NewReader(data)
	}
	var items []models.MediaItem
	if err := c.api.UploadMulti(ctx, "/media/batch", files, nil, progress, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func readUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, media.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if _, err := media.Sniff(data); err != nil {
		return nil, err
	}
	return data, nil
}
