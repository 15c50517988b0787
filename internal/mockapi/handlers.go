package mockapi

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// handleFeed is the ranked feed. The mock has no ranking model; it serves
// recency order but keeps the endpoint distinct so outage simulation and
// fallback behavior can be tested against it.
func (s *Server) handleFeed(c *fiber.Ctx) error {
	return s.listPosts(c, "")
}

func (s *Server) handleRecent(c *fiber.Ctx) error {
	return s.listPosts(c, c.Query("filter"))
}

func (s *Server) listPosts(c *fiber.Ctx, filter string) error {
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.postOrder
	start, end, block := paginate(len(ids), pageNum, limit)

	shape := s.shapeFor(pageNum)
	legacy := shape == ShapeDouble
	items := make([]fiber.Map, 0, end-start)
	for _, id := range ids[start:end] {
		items = append(items, s.postDTO(s.posts[id], viewerID(c), legacy))
	}
	_ = filter // recency order regardless; the filter shapes ranking upstream
	return okPage(c, shape, page{items: items, pagination: block})
}

func (s *Server) handleSaved(c *fiber.Ctx) error {
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, id := range s.postOrder {
		if s.saved[viewerID(c)][id] {
			ids = append(ids, id)
		}
	}
	start, end, block := paginate(len(ids), pageNum, limit)
	items := make([]fiber.Map, 0, end-start)
	for _, id := range ids[start:end] {
		items = append(items, s.postDTO(s.posts[id], viewerID(c), false))
	}
	return okPage(c, s.shapeFor(pageNum), page{items: items, pagination: block})
}

func (s *Server) handleGetPost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, found := s.posts[c.Params("id")]
	if !found {
		return fail(c, fiber.StatusNotFound, "Post not found", nil)
	}
	return ok(c, s.postDTO(p, viewerID(c), false))
}

type createPostRequest struct {
	Content string      `json:"content"`
	Type    string      `json:"type"`
	Tags    []string    `json:"tags"`
	Media   []fiber.Map `json:"media"`
}

func (s *Server) handleCreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return fail(c, fiber.StatusUnprocessableEntity, "Validation failed",
			map[string]string{"content": "Content is required"})
	}

	s.mu.Lock()
	p := &post{
		ID:        s.newID(),
		AuthorID:  viewerID(c),
		Content:   req.Content,
		Type:      req.Type,
		Tags:      req.Tags,
		Media:     req.Media,
		CreatedAt: s.opts.Now(),
	}
	s.posts[p.ID] = p
	s.postOrder = append([]string{p.ID}, s.postOrder...)
	dto := s.postDTO(p, viewerID(c), false)
	s.mu.Unlock()

	s.socket.broadcast("post-update", p.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": dto})
}

func (s *Server) handleDeletePost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Params("id")
	p, found := s.posts[id]
	if !found {
		return fail(c, fiber.StatusNotFound, "Post not found", nil)
	}
	if p.AuthorID != viewerID(c) {
		return fail(c, fiber.StatusForbidden, "You can only delete your own posts", nil)
	}
	delete(s.posts, id)
	for i, pid := range s.postOrder {
		if pid == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	return ok(c, fiber.Map{})
}

func (s *Server) setLike(c *fiber.Ctx, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, found := s.posts[c.Params("id")]
	if !found {
		return fail(c, fiber.StatusNotFound, "Post not found", nil)
	}
	set := s.likes[viewerID(c)]
	if set == nil {
		set = make(map[string]bool)
		s.likes[viewerID(c)] = set
	}
	if liked && !set[p.ID] {
		set[p.ID] = true
		p.Likes++
	} else if !liked && set[p.ID] {
		delete(set, p.ID)
		p.Likes--
	}
	return ok(c, fiber.Map{
		"likesCount": p.Likes,
		"isLiked":    set[p.ID],
		"isSaved":    s.saved[viewerID(c)][p.ID],
	})
}

func (s *Server) handleLike(c *fiber.Ctx) error   { return s.setLike(c, true) }
func (s *Server) handleUnlike(c *fiber.Ctx) error { return s.setLike(c, false) }

func (s *Server) setSaved(c *fiber.Ctx, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, found := s.posts[c.Params("id")]
	if !found {
		return fail(c, fiber.StatusNotFound, "Post not found", nil)
	}
	set := s.saved[viewerID(c)]
	if set == nil {
		set = make(map[string]bool)
		s.saved[viewerID(c)] = set
	}
	if saved {
		set[p.ID] = true
	} else {
		delete(set, p.ID)
	}
	return ok(c, fiber.Map{
		"likesCount": p.Likes,
		"isLiked":    s.likes[viewerID(c)][p.ID],
		"isSaved":    set[p.ID],
	})
}

func (s *Server) handleSave(c *fiber.Ctx) error   { return s.setSaved(c, true) }
func (s *Server) handleUnsave(c *fiber.Ctx) error { return s.setSaved(c, false) }

func (s *Server) handleComments(c *fiber.Ctx) error {
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.posts[c.Params("id")]; !found {
		return fail(c, fiber.StatusNotFound, "Post not found", nil)
	}
	all := s.comments[c.Params("id")]
	start, end, block := paginate(len(all), pageNum, limit)
	items := make([]fiber.Map, 0, end-start)
	for _, cm := range all[start:end] {
		items = append(items, s.commentDTO(cm))
	}
	return okPage(c, s.shapeFor(pageNum), page{items: items, pagination: block})
}

type createCommentRequest struct {
	Body     string `json:"body"`
	ParentID string `json:"parentId"`
}

func (s *Server) handleCreateComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return fail(c, fiber.StatusUnprocessableEntity, "Validation failed",
			map[string]string{"body": "Comment body is required"})
	}

	s.mu.Lock()
	postID := c.Params("id")
	p, found := s.posts[postID]
	if !found {
		s.mu.Unlock()
		return fail(c, fiber.StatusNotFound, "Post not found", nil)
	}
	cm := &comment{
		ID:        s.newID(),
		PostID:    postID,
		AuthorID:  viewerID(c),
		ParentID:  req.ParentID,
		Body:      req.Body,
		CreatedAt: s.opts.Now(),
	}
	s.comments[postID] = append(s.comments[postID], cm)
	dto := s.commentDTO(cm)
	authorID := p.AuthorID
	s.mu.Unlock()

	if authorID != viewerID(c) {
		s.notify(authorID, "comment", fmt.Sprintf("%s commented on your post", s.usernameOf(viewerID(c))))
	}
	s.socket.broadcast("post-update", postID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": dto})
}

func (s *Server) handleDeleteComment(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	postID := c.Params("id")
	commentID := c.Params("commentId")
	all := s.comments[postID]
	for i, cm := range all {
		if cm.ID != commentID {
			continue
		}
		if cm.AuthorID != viewerID(c) {
			return fail(c, fiber.StatusForbidden, "You can only delete your own comments", nil)
		}
		s.comments[postID] = append(all[:i], all[i+1:]...)
		return ok(c, fiber.Map{})
	}
	return fail(c, fiber.StatusNotFound, "Comment not found", nil)
}

func (s *Server) notify(userID, kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[userID] = append([]*notification{{
		ID:        s.newID(),
		Type:      kind,
		Message:   message,
		CreatedAt: s.opts.Now(),
	}}, s.notifications[userID]...)
	s.socket.broadcast("new-notification", "")
}

func (s *Server) usernameOf(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[id]; u != nil {
		return u.Username
	}
	return "someone"
}
