package mockapi

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// SeedOptions configure random data generation.
type SeedOptions struct {
	NumUsers  int
	NumPosts  int
	NumGossip int
	// Password is shared by every seeded account so dev logins are easy.
	Password string
	// Rand seeds the generators for reproducible runs. Zero means random.
	Rand int64
}

var gossipTopics = []string{
	"parking", "noise", "stoop-sale", "lost-pet", "safety",
	"recommendations", "landlord", "construction",
}

// Seed fills the store with generated neighbors, posts, gossip, and a
// loose follow mesh.
func (s *Server) Seed(opts SeedOptions) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 12
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 40
	}
	if opts.NumGossip <= 0 {
		opts.NumGossip = 15
	}
	if opts.Password == "" {
		opts.Password = "password123"
	}
	seed := opts.Rand
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	rng := rand.New(rand.NewSource(seed))

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("mockapi: hashing seed password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var userIDs []string
	for i := 0; i < opts.NumUsers; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		u := &user{
			ID:        s.newID(),
			Username:  strings.ToLower(fmt.Sprintf("%s%s%d", first, last, rng.Intn(100))),
			FirstName: first,
			LastName:  last,
			Bio:       gofakeit.Sentence(8),
			Password:  hash,
			CreatedAt: s.opts.Now().Add(-time.Duration(rng.Intn(90*24)) * time.Hour),
		}
		s.users[u.ID] = u
		s.usernames[strings.ToLower(u.Username)] = u.ID
		userIDs = append(userIDs, u.ID)
	}

	for i := 0; i < opts.NumPosts; i++ {
		topic := gossipTopics[rng.Intn(len(gossipTopics))]
		p := &post{
			ID:       s.newID(),
			AuthorID: userIDs[rng.Intn(len(userIDs))],
			Content:  gofakeit.Paragraph(1, 2, 8, " ") + " #" + topic,
			Type:     "text",
			Tags:     []string{topic},
			Likes:    rng.Intn(30),
			CreatedAt: s.opts.Now().Add(-time.Duration(rng.Intn(14*24*60)) * time.Minute),
		}
		s.posts[p.ID] = p
		s.postOrder = append(s.postOrder, p.ID)
	}

	types := []string{"general", "question", "alert"}
	for i := 0; i < opts.NumGossip; i++ {
		g := &gossipPost{
			ID:             s.newID(),
			AuthorID:       userIDs[rng.Intn(len(userIDs))],
			Title:          gofakeit.Sentence(4),
			Body:           gofakeit.Sentence(12),
			DiscussionType: types[rng.Intn(len(types))],
			Tags:           []string{gossipTopics[rng.Intn(len(gossipTopics))]},
			Anonymous:      rng.Intn(3) == 0,
			CreatedAt:      s.opts.Now().Add(-time.Duration(rng.Intn(7*24*60)) * time.Minute),
		}
		s.gossip[g.ID] = g
		s.gossipOrder = append(s.gossipOrder, g.ID)
	}

	// Feed order is newest first.
	sort.Slice(s.postOrder, func(i, j int) bool {
		return s.posts[s.postOrder[i]].CreatedAt.After(s.posts[s.postOrder[j]].CreatedAt)
	})
	sort.Slice(s.gossipOrder, func(i, j int) bool {
		return s.gossip[s.gossipOrder[i]].CreatedAt.After(s.gossip[s.gossipOrder[j]].CreatedAt)
	})

	// Loose follow mesh: each user follows roughly a third of the others.
	for _, follower := range userIDs {
		for _, followee := range userIDs {
			if follower == followee || rng.Intn(3) != 0 {
				continue
			}
			if s.follows[follower] == nil {
				s.follows[follower] = make(map[string]bool)
			}
			s.follows[follower][followee] = true
		}
	}

	return nil
}

// fixtureFile is the YAML layout for deterministic test data.
type fixtureFile struct {
	Users []struct {
		Username  string `yaml:"username"`
		FirstName string `yaml:"firstName"`
		LastName  string `yaml:"lastName"`
		Bio       string `yaml:"bio"`
		Password  string `yaml:"password"`
		Follows   []string `yaml:"follows"`
	} `yaml:"users"`
	Posts []struct {
		Author  string   `yaml:"author"`
		Content string   `yaml:"content"`
		Tags    []string `yaml:"tags"`
	} `yaml:"posts"`
	Gossip []struct {
		Author    string   `yaml:"author"`
		Title     string   `yaml:"title"`
		Body      string   `yaml:"body"`
		Type      string   `yaml:"type"`
		Tags      []string `yaml:"tags"`
		Anonymous bool     `yaml:"anonymous"`
	} `yaml:"gossip"`
}

// LoadFixtures populates the store from a YAML document. Usernames link
// posts and follow edges to their owners.
func (s *Server) LoadFixtures(r io.Reader) error {
	var f fixtureFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("mockapi: decoding fixtures: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fu := range f.Users {
		password := fu.Password
		if password == "" {
			password = "password123"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			return fmt.Errorf("mockapi: hashing fixture password: %w", err)
		}
		u := &user{
			ID:        s.newID(),
			Username:  fu.Username,
			FirstName: fu.FirstName,
			LastName:  fu.LastName,
			Bio:       fu.Bio,
			Password:  hash,
			CreatedAt: s.opts.Now(),
		}
		s.users[u.ID] = u
		s.usernames[strings.ToLower(u.Username)] = u.ID
	}

	byName := func(username string) (string, error) {
		id, found := s.usernames[strings.ToLower(username)]
		if !found {
			return "", fmt.Errorf("mockapi: fixture references unknown user %q", username)
		}
		return id, nil
	}

	for _, fu := range f.Users {
		follower, err := byName(fu.Username)
		if err != nil {
			return err
		}
		for _, target := range fu.Follows {
			followee, err := byName(target)
			if err != nil {
				return err
			}
			if s.follows[follower] == nil {
				s.follows[follower] = make(map[string]bool)
			}
			s.follows[follower][followee] = true
		}
	}

	for _, fp := range f.Posts {
		author, err := byName(fp.Author)
		if err != nil {
			return err
		}
		p := &post{
			ID:        s.newID(),
			AuthorID:  author,
			Content:   fp.Content,
			Type:      "text",
			Tags:      fp.Tags,
			CreatedAt: s.opts.Now(),
		}
		s.posts[p.ID] = p
		s.postOrder = append(s.postOrder, p.ID)
	}

	for _, fg := range f.Gossip {
		author, err := byName(fg.Author)
		if err != nil {
			return err
		}
		g := &gossipPost{
			ID:             s.newID(),
			AuthorID:       author,
			Title:          fg.Title,
			Body:           fg.Body,
			DiscussionType: fg.Type,
			Tags:           fg.Tags,
			Anonymous:      fg.Anonymous,
			CreatedAt:      s.opts.Now(),
		}
		s.gossip[g.ID] = g
		s.gossipOrder = append(s.gossipOrder, g.ID)
	}

	return nil
}
