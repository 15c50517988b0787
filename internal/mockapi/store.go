package mockapi

import (
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type user struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Bio       string
	Password  []byte // bcrypt hash
	CreatedAt time.Time
}

type post struct {
	ID        string
	AuthorID  string
	Content   string
	Type      string
	Tags      []string
	Media     []fiber.Map
	Likes     int
	CreatedAt time.Time
}

type gossipPost struct {
	ID             string
	AuthorID       string
	Title          string
	Body           string
	DiscussionType string
	Tags           []string
	Anonymous      bool
	CreatedAt      time.Time
}

type comment struct {
	ID        string
	PostID    string
	AuthorID  string
	ParentID  string
	Body      string
	CreatedAt time.Time
}

type notification struct {
	ID        string
	Type      string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// page is one slice of a list plus its pagination block.
type page struct {
	items      []fiber.Map
	pagination fiber.Map
}

func paginate(total, pageNum, limit int) (start, end int, block fiber.Map) {
	if pageNum < 1 {
		pageNum = 1
	}
	if limit < 1 {
		limit = 20
	}
	start = (pageNum - 1) * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	totalPages := (total + limit - 1) / limit
	block = fiber.Map{
		"page":       pageNum,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
		"hasMore":    pageNum < totalPages,
	}
	return start, end, block
}

func (s *Server) userDTO(u *user) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"username":  u.Username,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"bio":       u.Bio,
		"createdAt": u.CreatedAt.Format(time.RFC3339),
	}
}

// postDTO renders a post the way the current backend does. Older layouts
// used a bare authorId and the short counter names; shape selection covers
// those variants at the page level, counter names at the field level.
func (s *Server) postDTO(p *post, viewerID string, legacy bool) fiber.Map {
	author := s.users[p.AuthorID]
	dto := fiber.Map{
		"id":        p.ID,
		"content":   p.Content,
		"type":      p.Type,
		"tags":      p.Tags,
		"media":     p.Media,
		"isLiked":   s.likes[viewerID][p.ID],
		"isSaved":   s.saved[viewerID][p.ID],
		"createdAt": p.CreatedAt.Format(time.RFC3339),
	}
	if legacy {
		dto["authorId"] = p.AuthorID
		dto["likes"] = p.Likes
		dto["comments"] = len(s.comments[p.ID])
	} else {
		dto["author"] = s.userDTO(author)
		dto["likesCount"] = p.Likes
		dto["commentsCount"] = len(s.comments[p.ID])
	}
	return dto
}

func (s *Server) gossipDTO(g *gossipPost) fiber.Map {
	dto := fiber.Map{
		"id":             g.ID,
		"title":          g.Title,
		"body":           g.Body,
		"discussionType": g.DiscussionType,
		"tags":           g.Tags,
		"anonymous":      g.Anonymous,
		"createdAt":      g.CreatedAt.Format(time.RFC3339),
	}
	if !g.Anonymous {
		dto["author"] = s.userDTO(s.users[g.AuthorID])
	}
	return dto
}

func (s *Server) commentDTO(c *comment) fiber.Map {
	return fiber.Map{
		"id":        c.ID,
		"body":      c.Body,
		"parentId":  c.ParentID,
		"author":    s.userDTO(s.users[c.AuthorID]),
		"createdAt": c.CreatedAt.Format(time.RFC3339),
	}
}

func notificationDTO(n *notification) fiber.Map {
	return fiber.Map{
		"id":        n.ID,
		"type":      n.Type,
		"message":   n.Message,
		"read":      n.Read,
		"createdAt": n.CreatedAt.Format(time.RFC3339),
	}
}

// profileDTO is a user plus relationship counters.
func (s *Server) profileDTO(u *user) fiber.Map {
	followers, following := 0, 0
	for follower, set := range s.follows {
		if set[u.ID] {
			followers++
		}
		if follower == u.ID {
			following = len(set)
		}
	}
	posts := 0
	for _, p := range s.posts {
		if p.AuthorID == u.ID {
			posts++
		}
	}
	dto := s.userDTO(u)
	dto["followersCount"] = followers
	dto["followingCount"] = following
	dto["postsCount"] = posts
	return dto
}

func (s *Server) followersOf(userID string) []*user {
	var out []*user
	for follower, set := range s.follows {
		if set[userID] {
			out = append(out, s.users[follower])
		}
	}
	sortUsers(out)
	return out
}

func (s *Server) followingOf(userID string) []*user {
	var out []*user
	for followee := range s.follows[userID] {
		out = append(out, s.users[followee])
	}
	sortUsers(out)
	return out
}

func sortUsers(users []*user) {
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
}

// ok writes a success envelope with data nested per the requested shape.
func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// okPage writes a list response using one of the historical layouts.
func okPage(c *fiber.Ctx, shape Shape, p page) error {
	if p.items == nil {
		p.items = []fiber.Map{}
	}
	body := fiber.Map{"content": p.items, "pagination": p.pagination}
	switch shape {
	case ShapeNested:
		return ok(c, fiber.Map{"data": body})
	case ShapeDouble:
		return ok(c, fiber.Map{"data": fiber.Map{"data": body}})
	default:
		return ok(c, body)
	}
}

func fail(c *fiber.Ctx, status int, message string, fields map[string]string) error {
	body := fiber.Map{"success": false, "message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(status).JSON(body)
}

func matchQuery(haystack, q string) bool {
	return q != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(q))
}
