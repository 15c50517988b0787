package normalize

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoop/internal/models"
)

const postBody = `{
	"id": 7,
	"author": {"id": "u1", "username": "flo", "firstName": "Flo", "lastName": "Nguyen", "avatarUrl": "/a/1.png"},
	"content": "hello block",
	"type": "text",
	"likes": 3,
	"commentsCount": 2,
	"isLiked": true,
	"createdAt": "2026-08-01T12:00:00Z"
}`

func wrapShapes(inner string) []string {
	return []string{
		inner,
		fmt.Sprintf(`{"data": %s}`, inner),
		fmt.Sprintf(`{"data": {"data": %s}}`, inner),
	}
}

func TestFeedPageIdempotentAcrossShapes(t *testing.T) {
	inner := fmt.Sprintf(`{"content":[%s],"pagination":{"page":1,"limit":20,"total":45}}`, postBody)

	var pages []models.FeedPage
	for i, shape := range wrapShapes(inner) {
		page, err := FeedPage(json.RawMessage(shape))
		require.NoError(t, err, "shape %d", i)
		pages = append(pages, page)
	}

	for i := 1; i < len(pages); i++ {
		assert.Equal(t, pages[0], pages[i], "all shapes must normalize identically")
	}

	got := pages[0]
	require.Len(t, got.Content, 1)
	post := got.Content[0]
	assert.Equal(t, models.ID("7"), post.ID)
	assert.Equal(t, "Flo Nguyen", post.Author.Name, "firstName/lastName folds into name")
	assert.Equal(t, 3, post.LikesCount, "likes maps to likesCount")
	assert.Equal(t, 2, post.CommentsCount)
	assert.True(t, post.IsLiked)
	assert.Equal(t, 3, got.Pagination.TotalPages)
	assert.True(t, got.Pagination.HasMore)
}

func TestFeedPageAuthorIDVariant(t *testing.T) {
	raw := `{"content":[{"id":"9","authorId":"u2","content":"hi","likesCount":1}],"pagination":{"page":1,"limit":10,"total":1}}`
	page, err := FeedPage(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, models.ID("u2"), page.Content[0].Author.ID)
	assert.Equal(t, 1, page.Content[0].LikesCount)
}

func TestFeedPageEmptyContentIsValid(t *testing.T) {
	raw := `{"data":{"content":[],"pagination":{"page":1,"limit":20,"total":0}}}`
	page, err := FeedPage(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.False(t, page.Pagination.HasMore)
}

func TestFeedPageRejectsUnknownShape(t *testing.T) {
	for _, raw := range []string{
		`{"items":[]}`,
		`{"data":{"posts":[]}}`,
		`{"data":{"data":{"data":{"content":[]}}}}`,
		`[1,2,3]`,
	} {
		_, err := FeedPage(json.RawMessage(raw))
		var apiErr *models.APIError
		require.ErrorAs(t, err, &apiErr, "input: %s", raw)
		assert.Equal(t, models.CodeShape, apiErr.Code)
	}
}

func TestFeedPageExplicitHasMore(t *testing.T) {
	raw := `{"content":[],"pagination":{"page":3,"limit":20,"total":45,"hasMore":true}}`
	page, err := FeedPage(json.RawMessage(raw))
	require.NoError(t, err)
	assert.True(t, page.Pagination.HasMore, "explicit hasMore wins over page math")
}

func TestCommentPageClipsDeepReplies(t *testing.T) {
	// Build a reply chain deeper than the guard.
	inner := `{"id":"c-bottom","body":"deep"}`
	for i := models.MaxReplyDepth + 3; i > 0; i-- {
		inner = fmt.Sprintf(`{"id":"c%d","body":"r","replies":[%s]}`, i, inner)
	}
	raw := fmt.Sprintf(`{"content":[%s],"pagination":{"page":1,"limit":10,"total":1}}`, inner)

	page, err := CommentPage(json.RawMessage(raw))
	require.NoError(t, err)

	depth := 0
	for c := &page.Content[0]; len(c.Replies) > 0; c = &c.Replies[0] {
		depth++
	}
	assert.Equal(t, models.MaxReplyDepth, depth)
}

func TestGossipPageNormalizes(t *testing.T) {
	raw := `{"data":{"content":[{"id":"g1","title":"lost cat","anonymous":true,"discussionType":"alert"}],"pagination":{"page":1,"limit":20,"total":1}}}`
	page, err := GossipPage(json.RawMessage(raw))
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.True(t, page.Content[0].Anonymous)
	assert.Equal(t, "Neighbor", page.Content[0].DisplayName())
}
