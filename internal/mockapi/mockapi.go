// Package mockapi is an in-memory stand-in for the production backend. It
// speaks the same envelope protocol, including the legacy response shapes
// still in the wild, so the client's normalization and cache layers can be
// exercised without a real deployment.
package mockapi

import (
	"strconv"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Shape selects which historical response layout list endpoints use.
// Rotating through them keeps every client normalization path hot.
type Shape int

const (
	// ShapeFlat is the current layout: data holds content and pagination.
	ShapeFlat Shape = iota
	// ShapeNested wraps the page in one extra data envelope.
	ShapeNested
	// ShapeDouble wraps it twice, the oldest layout still deployed.
	ShapeDouble
)

// Options configure the mock server.
type Options struct {
	// JWTSecret signs session tokens. Defaults to a fixed dev secret.
	JWTSecret string
	// FixedShape pins every list response to one layout. When unset,
	// responses rotate by page number.
	FixedShape *Shape
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Server holds the in-memory state behind the mock API.
type Server struct {
	opts Options

	mu            sync.Mutex
	users         map[string]*user   // by id
	usernames     map[string]string  // username -> id
	posts         map[string]*post   // by id
	postOrder     []string           // newest first
	gossip        map[string]*gossipPost
	gossipOrder   []string
	comments      map[string][]*comment // by post id
	follows       map[string]map[string]bool // follower id -> followee ids
	notifications map[string][]*notification // user id -> items
	saved         map[string]map[string]bool // user id -> post ids
	likes         map[string]map[string]bool // user id -> post ids
	nextID        int

	socket *hub
}

// New builds an empty mock server. Call Seed or LoadFixtures to populate it.
func New(opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "stoop-dev-secret"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:          opts,
		users:         make(map[string]*user),
		usernames:     make(map[string]string),
		posts:         make(map[string]*post),
		gossip:        make(map[string]*gossipPost),
		comments:      make(map[string][]*comment),
		follows:       make(map[string]map[string]bool),
		notifications: make(map[string][]*notification),
		saved:         make(map[string]map[string]bool),
		likes:         make(map[string]map[string]bool),
		socket:        newHub(),
	}
}

// App assembles the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "stoop-mockapi",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	prom := fiberprometheus.New("stoop-mockapi")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	app.Get("/health", func(c *fiber.Ctx) error {
		return ok(c, fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", s.handleRegister)
	auth.Post("/login", s.handleLogin)
	auth.Post("/logout", s.requireAuth, s.handleLogout)
	auth.Get("/me", s.requireAuth, s.handleMe)

	posts := api.Group("/posts", s.requireAuth)
	posts.Get("/feed", s.handleFeed)
	posts.Get("/recent", s.handleRecent)
	posts.Get("/saved", s.handleSaved)
	posts.Post("/", s.handleCreatePost)
	posts.Get("/:id", s.handleGetPost)
	posts.Delete("/:id", s.handleDeletePost)
	posts.Post("/:id/like", s.handleLike)
	posts.Delete("/:id/like", s.handleUnlike)
	posts.Post("/:id/save", s.handleSave)
	posts.Delete("/:id/save", s.handleUnsave)
	posts.Get("/:id/comments", s.handleComments)
	posts.Post("/:id/comments", s.handleCreateComment)
	posts.Delete("/:id/comments/:commentId", s.handleDeleteComment)

	follow := api.Group("/follow", s.requireAuth)
	follow.Get("/:id/status", s.handleFollowStatus)
	follow.Post("/:id", s.handleFollow)
	follow.Delete("/:id", s.handleUnfollow)

	users := api.Group("/users", s.requireAuth)
	users.Get("/suggestions", s.handleSuggestions)
	users.Get("/:username", s.handleProfile)
	users.Get("/:username/posts", s.handleUserPosts)
	users.Get("/:username/followers", s.handleFollowers)
	users.Get("/:username/following", s.handleFollowing)

	g := api.Group("/gossip", s.requireAuth)
	g.Get("/", s.handleGossipList)
	g.Post("/", s.handleCreateGossip)
	g.Get("/:id", s.handleGetGossip)

	search := api.Group("/search", s.requireAuth)
	search.Get("/posts", s.handleSearchPosts)
	search.Get("/users", s.handleSearchUsers)

	n := api.Group("/notifications", s.requireAuth)
	n.Get("/", s.handleNotifications)
	n.Patch("/read-all", s.handleMarkAllRead)
	n.Patch("/:id/read", s.handleMarkRead)

	api.Get("/geo/reverse", s.requireAuth, s.handleReverseGeocode)

	s.registerSocket(app)

	return app
}

// Push broadcasts a realtime event to every connected socket client.
func (s *Server) Push(event, postID string) {
	s.socket.broadcast(event, postID)
}

func (s *Server) newID() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

// shapeFor picks the response layout for a list request.
func (s *Server) shapeFor(page int) Shape {
	if s.opts.FixedShape != nil {
		return *s.opts.FixedShape
	}
	return Shape(page % 3)
}
