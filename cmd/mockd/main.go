// Command mockd runs the in-memory mock backend for local development. It
// serves the same API surface the client targets, including the websocket
// event stream and the legacy response shapes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stoop/internal/mockapi"
)

func main() {
	var (
		addr      = flag.String("addr", ":8375", "listen address")
		users     = flag.Int("users", 12, "seeded user count")
		posts     = flag.Int("posts", 40, "seeded post count")
		gossip    = flag.Int("gossip", 15, "seeded gossip count")
		fixtures  = flag.String("fixtures", "", "YAML fixtures file (skips random seeding)")
		pushEvery = flag.Duration("push-every", 0, "broadcast a post-update at this interval (0 disables)")
	)
	flag.Parse()

	srv := mockapi.New(mockapi.Options{})

	if *fixtures != "" {
		f, err := os.Open(*fixtures)
		if err != nil {
			log.Fatalf("Failed to open fixtures: %v", err)
		}
		err = srv.LoadFixtures(f)
		_ = f.Close()
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		log.Printf("Loaded fixtures from %s", *fixtures)
	} else {
		if err := srv.Seed(mockapi.SeedOptions{NumUsers: *users, NumPosts: *posts, NumGossip: *gossip}); err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
		log.Printf("Seeded %d users, %d posts, %d gossip items (password: password123)", *users, *posts, *gossip)
	}

	app := srv.App()

	if *pushEvery > 0 {
		go func() {
			ticker := time.NewTicker(*pushEvery)
			defer ticker.Stop()
			for range ticker.C {
				srv.Push("post-update", "")
			}
		}()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down mock backend...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Mock backend listening on %s", *addr)
	log.Fatal(app.Listen(*addr))
}
