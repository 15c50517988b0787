package mockapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

var discussionTypes = map[string]bool{
	"general":  true,
	"question": true,
	"alert":    true,
}

func (s *Server) handleGossipList(c *fiber.Ctx) error {
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	typeFilter := c.Query("type")
	tagFilter := strings.ToLower(c.Query("tag"))

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, id := range s.gossipOrder {
		g := s.gossip[id]
		if typeFilter != "" && g.DiscussionType != typeFilter {
			continue
		}
		if tagFilter != "" && !hasTag(g.Tags, tagFilter) {
			continue
		}
		ids = append(ids, id)
	}
	start, end, block := paginate(len(ids), pageNum, limit)
	items := make([]fiber.Map, 0, end-start)
	for _, id := range ids[start:end] {
		items = append(items, s.gossipDTO(s.gossip[id]))
	}
	return okPage(c, s.shapeFor(pageNum), page{items: items, pagination: block})
}

func (s *Server) handleGetGossip(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, found := s.gossip[c.Params("id")]
	if !found {
		return fail(c, fiber.StatusNotFound, "Post not found", nil)
	}
	return ok(c, s.gossipDTO(g))
}

type createGossipRequest struct {
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	DiscussionType string   `json:"discussionType"`
	Tags           []string `json:"tags"`
	Anonymous      bool     `json:"anonymous"`
}

func (s *Server) handleCreateGossip(c *fiber.Ctx) error {
	var req createGossipRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Body) == "" {
		fields["body"] = "Body is required"
	}
	if !discussionTypes[req.DiscussionType] {
		fields["discussionType"] = "Must be one of general, question, alert"
	}
	if len(fields) > 0 {
		return fail(c, fiber.StatusUnprocessableEntity, "Validation failed", fields)
	}

	s.mu.Lock()
	g := &gossipPost{
		ID:             s.newID(),
		AuthorID:       viewerID(c),
		Title:          req.Title,
		Body:           req.Body,
		DiscussionType: req.DiscussionType,
		Tags:           req.Tags,
		Anonymous:      req.Anonymous,
		CreatedAt:      s.opts.Now(),
	}
	s.gossip[g.ID] = g
	s.gossipOrder = append([]string{g.ID}, s.gossipOrder...)
	dto := s.gossipDTO(g)
	s.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": dto})
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.ToLower(t) == want {
			return true
		}
	}
	return false
}
