// Command stoop is a terminal client for the neighborhood network. It is
// mainly a demo driver for the SDK: it logs in, browses the feed, follows
// neighbors, posts to the gossip board, and watches the realtime stream.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"stoop/internal/config"
	"stoop/internal/geo"
	"stoop/internal/localstore"
	"stoop/internal/models"
	"stoop/internal/observability"
	"stoop/internal/queries"
	"stoop/internal/querycache"
	"stoop/internal/realtime"
	"stoop/internal/services"
	"stoop/internal/transport"
	"stoop/internal/viewstate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:  "stoop-cli",
			Environment:  cfg.Env,
			Enabled:      true,
			Exporter:     cfg.TracingExporter,
			OTLPEndpoint: cfg.OTLPEndpoint,
			SamplerRatio: cfg.TracingSampleRatio,
		})
		if err != nil {
			log.Fatalf("Failed to init tracing: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	app, err := buildApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize client: %v", err)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "login":
		err = app.login(ctx, args)
	case "logout":
		err = app.logout(ctx)
	case "feed":
		err = app.feed(ctx, args)
	case "post":
		err = app.post(ctx, args)
	case "follow":
		err = app.follow(ctx, args)
	case "gossip":
		err = app.gossip(ctx, args)
	case "watch":
		err = app.watch(ctx)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: stoop <command> [flags]

commands:
  login    -user <username> -pass <password>
  logout
  feed     [-pages n] [-lat f -lng f]
  post     <content>
  follow   -id <userID> -user <username>
  gossip   [-type general|question|alert] [-tag t]
  watch    stream realtime events until interrupted`)
}

// app bundles the wired SDK layers behind the CLI commands.
type app struct {
	cfg     *config.Config
	store   *localstore.Store
	svcs    *services.Services
	queries *queries.Client
	locator *geo.Locator
}

func buildApp(cfg *config.Config) (*app, error) {
	store, err := localstore.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	api := transport.New(cfg.BaseURL(), store,
		transport.WithTimeout(time.Duration(cfg.HTTPTimeoutSeconds)*time.Second),
		transport.WithUnauthorizedHook(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Please run `stoop login` again.")
		}),
	)
	svcs := services.New(api, store)

	var cacheStore querycache.Store
	if cfg.RedisURL != "" {
		rs, err := querycache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting query cache: %w", err)
		}
		cacheStore = rs
	} else {
		cacheStore = querycache.NewMemoryStore()
	}

	q := queries.New(svcs, querycache.New(cacheStore), queries.Config{
		FollowStatusTTL: time.Duration(cfg.FollowStatusTTL) * time.Second,
		FollowListTTL:   time.Duration(cfg.FollowListTTL) * time.Second,
	}, queries.NotifierFunc(func(msg string) {
		fmt.Fprintln(os.Stderr, msg)
	}))

	return &app{cfg: cfg, store: store, svcs: svcs, queries: q}, nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", "", "username or email")
	pass := fs.String("pass", "", "password")
	_ = fs.Parse(args)
	if *user == "" || *pass == "" {
		return fmt.Errorf("both -user and -pass are required")
	}

	u, err := a.svcs.Auth.Login(ctx, services.Credentials{Identifier: *user, Password: *pass})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", u.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.svcs.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) feed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	pages := fs.Int("pages", 1, "pages to print")
	lat := fs.Float64("lat", 0, "latitude for geo ranking")
	lng := fs.Float64("lng", 0, "longitude for geo ranking")
	_ = fs.Parse(args)

	params := services.FeedParams{Limit: 10}
	if *lat != 0 || *lng != 0 {
		a.locator = geo.NewLocator(geo.Static(geo.Coordinates{Lat: *lat, Lng: *lng}),
			geo.WithTimeout(time.Duration(a.cfg.GeoTimeoutSeconds)*time.Second),
			geo.WithMaxAge(time.Duration(a.cfg.GeoMaxAgeSeconds)*time.Second))
		coords, err := a.locator.Current(ctx)
		if err == nil {
			params.Lat, params.Lng, params.HasGeo = coords.Lat, coords.Lng, true
			if place, gerr := a.whereAmI(ctx, coords); gerr == nil && place.Label != "" {
				fmt.Printf("Feed near %s\n", place.Label)
			}
		}
	}

	pager := a.queries.Feed(params)
	for i := 0; i < *pages && pager.HasMore(); i++ {
		view := viewstate.Resolve(ctx, func(ctx context.Context) (models.FeedPage, error) {
			return pager.Next(ctx)
		}, func(p models.FeedPage) bool { return len(p.Content) == 0 })

		switch view.Phase() {
		case viewstate.Errored:
			return fmt.Errorf("%s", view.Message())
		case viewstate.Empty:
			fmt.Println("Nothing on the block yet.")
			return nil
		case viewstate.Ready:
			for _, p := range view.Value().Content {
				printPost(p)
			}
		}
	}
	return nil
}

// whereAmI labels the current position, preferring the backend's preview
// endpoint and falling back to the public geocoder when it is down.
func (a *app) whereAmI(ctx context.Context, coords geo.Coordinates) (geo.Place, error) {
	backend := geo.GeocoderFunc(func(ctx context.Context, c geo.Coordinates) (geo.Place, error) {
		p, err := a.svcs.Geo.ReverseGeocode(ctx, c.Lat, c.Lng)
		if err != nil {
			return geo.Place{}, err
		}
		return geo.Place{Label: p.Label, Neighborhood: p.Neighborhood, City: p.City}, nil
	})
	return geo.Fallback(backend, geo.NewPublicGeocoder(nil)).ReverseGeocode(ctx, coords)
}

func printPost(p models.Post) {
	name := p.Author.Username
	if name == "" {
		name = "someone"
	}
	fmt.Printf("— @%s: %s  [♥ %d  💬 %d]\n", name, strings.TrimSpace(p.Content), p.LikesCount, p.CommentsCount)
}

func (a *app) post(ctx context.Context, args []string) error {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		return fmt.Errorf("post content is required")
	}
	p, err := a.queries.CreatePost(ctx, content)
	if err != nil {
		return err
	}
	fmt.Printf("Posted (id %s)\n", p.ID)
	return nil
}

func (a *app) follow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("follow", flag.ExitOnError)
	id := fs.String("id", "", "target user id")
	username := fs.String("user", "", "target username")
	_ = fs.Parse(args)
	if *id == "" || *username == "" {
		return fmt.Errorf("both -id and -user are required")
	}

	outcome, err := a.queries.ToggleFollow(ctx, models.ID(*id), *username)
	if err != nil {
		return err
	}
	fmt.Printf("Follow toggled: %s\n", outcome)
	return nil
}

func (a *app) gossip(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gossip", flag.ExitOnError)
	dtype := fs.String("type", "", "discussion type filter")
	tag := fs.String("tag", "", "tag filter")
	_ = fs.Parse(args)

	page, err := a.queries.GossipPage(ctx, services.GossipParams{
		Page: 1, Limit: 10, DiscussionType: *dtype, Tag: *tag,
	})
	if err != nil {
		return err
	}
	if len(page.Content) == 0 {
		fmt.Println("No gossip. Quiet block.")
		return nil
	}
	for _, g := range page.Content {
		fmt.Printf("— %s (%s): %s\n", g.DisplayName(), g.DiscussionType, strings.TrimSpace(g.Body))
	}
	return nil
}

func (a *app) watch(ctx context.Context) error {
	if !a.store.Authenticated() {
		return fmt.Errorf("log in first")
	}

	bridge := realtime.New(strings.TrimRight(a.cfg.SocketHost, "/")+"/socket", a.store, a.queries,
		realtime.Options{
			MaxRetries: a.cfg.SocketMaxRetries,
			RetryDelay: time.Duration(a.cfg.SocketRetryDelay) * time.Second,
		})
	if err := bridge.Start(ctx); err != nil {
		return err
	}
	defer bridge.Close()

	fmt.Println("Watching realtime events; press enter to stop.")
	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(done)
	}()
	select {
	case <-done:
	case <-bridge.Done():
		fmt.Println("Connection lost for good.")
	}
	return nil
}
