package mockapi

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleFollowStatus(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := c.Params("id")
	if _, found := s.users[target]; !found {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	viewer := viewerID(c)
	following := s.follows[viewer][target]
	followsYou := s.follows[target][viewer]
	return ok(c, fiber.Map{
		"isFollowing": following,
		"followsYou":  followsYou,
		"isMutual":    following && followsYou,
	})
}

// handleFollow returns 409 when the edge already exists. Double-submits from
// racing clients are expected; the client treats the conflict as success.
func (s *Server) handleFollow(c *fiber.Ctx) error {
	s.mu.Lock()
	target := c.Params("id")
	viewer := viewerID(c)
	if _, found := s.users[target]; !found {
		s.mu.Unlock()
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	if target == viewer {
		s.mu.Unlock()
		return fail(c, fiber.StatusUnprocessableEntity, "You cannot follow yourself", nil)
	}
	if s.follows[viewer][target] {
		s.mu.Unlock()
		return fail(c, fiber.StatusConflict, "Already following this user", nil)
	}
	if s.follows[viewer] == nil {
		s.follows[viewer] = make(map[string]bool)
	}
	s.follows[viewer][target] = true
	username := s.users[viewer].Username
	s.mu.Unlock()

	s.notify(target, "follow", fmt.Sprintf("%s started following you", username))
	return ok(c, fiber.Map{})
}

// handleUnfollow returns 404 when there is no edge to remove, the mirror of
// the follow conflict.
func (s *Server) handleUnfollow(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := c.Params("id")
	viewer := viewerID(c)
	if _, found := s.users[target]; !found {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	if !s.follows[viewer][target] {
		return fail(c, fiber.StatusNotFound, "Not following this user", nil)
	}
	delete(s.follows[viewer], target)
	return ok(c, fiber.Map{})
}

func (s *Server) userByUsername(username string) *user {
	id, found := s.usernames[strings.ToLower(username)]
	if !found {
		return nil
	}
	return s.users[id]
}

func (s *Server) handleProfile(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByUsername(c.Params("username"))
	if u == nil {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	return ok(c, s.profileDTO(u))
}

func (s *Server) handleUserPosts(c *fiber.Ctx) error {
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByUsername(c.Params("username"))
	if u == nil {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	var ids []string
	for _, id := range s.postOrder {
		if s.posts[id].AuthorID == u.ID {
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

func (s *Server) listUsers(c *fiber.Ctx, users []*user) error {
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	start, end, block := paginate(len(users), pageNum, limit)
	items := make([]fiber.Map, 0, end-start)
	for _, u := range users[start:end] {
		items = append(items, s.userDTO(u))
	}
	return okPage(c, s.shapeFor(pageNum), page{items: items, pagination: block})
}

func (s *Server) handleFollowers(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByUsername(c.Params("username"))
	if u == nil {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	return s.listUsers(c, s.followersOf(u.ID))
}

func (s *Server) handleFollowing(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByUsername(c.Params("username"))
	if u == nil {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	return s.listUsers(c, s.followingOf(u.ID))
}

// handleSuggestions returns users the viewer does not follow yet.
func (s *Server) handleSuggestions(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := viewerID(c)
	var out []*user
	for id, u := range s.users {
		if id == viewer || s.follows[viewer][id] {
			continue
		}
		out = append(out, u)
	}
	sortUsers(out)
	return s.listUsers(c, out)
}

func (s *Server) handleSearchPosts(c *fiber.Ctx) error {
	q := c.Query("q")
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, id := range s.postOrder {
		if matchQuery(s.posts[id].Content, q) {
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

func (s *Server) handleSearchUsers(c *fiber.Ctx) error {
	q := c.Query("q")

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*user
	for _, u := range s.users {
		if matchQuery(u.Username, q) || matchQuery(u.FirstName+" "+u.LastName, q) {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return s.listUsers(c, out)
}

func (s *Server) handleNotifications(c *fiber.Ctx) error {
	pageNum := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.notifications[viewerID(c)]
	start, end, block := paginate(len(all), pageNum, limit)
	items := make([]fiber.Map, 0, end-start)
	for _, n := range all[start:end] {
		items = append(items, notificationDTO(n))
	}
	return okPage(c, s.shapeFor(pageNum), page{items: items, pagination: block})
}

func (s *Server) handleMarkRead(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[viewerID(c)] {
		if n.ID == c.Params("id") {
			n.Read = true
			return ok(c, notificationDTO(n))
		}
	}
	return fail(c, fiber.StatusNotFound, "Notification not found", nil)
}

func (s *Server) handleMarkAllRead(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[viewerID(c)] {
		n.Read = true
	}
	return ok(c, fiber.Map{})
}

// handleReverseGeocode maps coordinates to a canned neighborhood. The mock
// quantizes the grid so nearby coordinates resolve to the same label.
func (s *Server) handleReverseGeocode(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat")
	lng := c.QueryFloat("lng")
	if lat == 0 && lng == 0 {
		return fail(c, fiber.StatusUnprocessableEntity, "Validation failed",
			map[string]string{"lat": "Coordinates are required"})
	}

	neighborhoods := []string{"Bed-Stuy", "Crown Heights", "Park Slope", "Astoria", "Sunset Park"}
	idx := int(lat*10+lng*10) % len(neighborhoods)
	if idx < 0 {
		idx = -idx
	}
	return ok(c, fiber.Map{
		"label":        neighborhoods[idx] + ", New York",
		"neighborhood": neighborhoods[idx],
		"city":         "New York",
	})
}
