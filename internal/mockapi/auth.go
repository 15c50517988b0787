package mockapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type registerRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "Username is required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return fail(c, fiber.StatusUnprocessableEntity, "Validation failed", fields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[strings.ToLower(req.Username)]; taken {
		return fail(c, fiber.StatusConflict, "Username already taken",
			map[string]string{"username": "Username already taken"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not create account", nil)
	}

	u := &user{
		ID:        s.newID(),
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  hash,
		CreatedAt: s.opts.Now(),
	}
	s.users[u.ID] = u
	s.usernames[strings.ToLower(u.Username)] = u.ID

	token, err := s.issueToken(u)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not create session", nil)
	}
	return ok(c, fiber.Map{"token": token, "user": s.userDTO(u)})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, found := s.usernames[strings.ToLower(req.Identifier)]
	if !found {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}
	u := s.users[id]
	if bcrypt.CompareHashAndPassword(u.Password, []byte(req.Password)) != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Could not create session", nil)
	}
	return ok(c, fiber.Map{"token": token, "user": s.userDTO(u)})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	// Tokens are stateless; logout succeeds so the client can purge.
	return ok(c, fiber.Map{})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.userDTO(s.users[viewerID(c)]))
}

func (s *Server) issueToken(u *user) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(s.opts.Now()),
		ExpiresAt: jwt.NewNumericDate(s.opts.Now().Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.opts.JWTSecret))
}

// parseToken validates a token and returns the subject user id.
func (s *Server) parseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.opts.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("missing subject")
	}
	return sub, nil
}

// requireAuth resolves the bearer token to a user and stores the id in
// fiber locals for handlers.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return fail(c, fiber.StatusUnauthorized, "Authentication required", nil)
	}
	id, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Session expired, please log in again", nil)
	}

	s.mu.Lock()
	_, exists := s.users[id]
	s.mu.Unlock()
	if !exists {
		return fail(c, fiber.StatusUnauthorized, "Session expired, please log in again", nil)
	}

	c.Locals("userID", id)
	return c.Next()
}

func viewerID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
