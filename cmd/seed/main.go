// Package main seeds the configured store with demo users and tales.
//
// Configuration comes from the environment, the same variables the server
// reads (DATA_PATH, STORE_BACKEND, ...). Run it while the server is stopped;
// the server rebuilds its search index from the store on the next start.
//
// Usage:
//
//	DATA_PATH=~/talesmith go run ./cmd/seed
//	STORE_BACKEND=sqlite go run ./cmd/seed --likes=false
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/config"
	"github.com/talesmith/talesmith-server/internal/di/providers"
	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/engagement"
	"github.com/talesmith/talesmith-server/internal/id"
	"github.com/talesmith/talesmith-server/internal/logger"
	"github.com/talesmith/talesmith-server/internal/store"
)

var (
	password  = flag.String("password", "storytime", "Password for every demo user")
	withLikes = flag.Bool("likes", true, "Have demo users like each other's public tales")
)

type demoUser struct {
	name  string
	email string
}

var demoUsers = []demoUser{
	{"Maya Storyteller", "maya@talesmith.local"},
	{"Otto Lantern", "otto@talesmith.local"},
	{"Priya Quill", "priya@talesmith.local"},
}

type demoTale struct {
	title    string
	topic    string
	ageRange domain.AgeRange
	public   bool
	content  string
}

var demoTales = []demoTale{
	{
		title:    "The Sleepy Cloud",
		topic:    "bedtime",
		ageRange: domain.AgeRange3to5,
		public:   true,
		content:  "A little cloud named Puff was too sleepy to rain. The sun hummed a song, the wind tucked Puff in, and the whole sky whispered goodnight.",
	},
	{
		title:    "Benny Counts the Ducks",
		topic:    "counting",
		ageRange: domain.AgeRange3to5,
		public:   false,
		content:  "One duck, two ducks, three ducks in a row. Benny counted them all the way to the pond and then counted them all the way home.",
	},
	{
		title:    "The Robot Who Loved Gardens",
		topic:    "robots",
		ageRange: domain.AgeRange6to8,
		public:   true,
		content:  "Bolt was built to sweep floors, but every night he slipped outside to water the roses. One spring the roses bloomed in the shape of a smile.",
	},
	{
		title:    "Mira and the Lost Compass",
		topic:    "adventure",
		ageRange: domain.AgeRange6to8,
		public:   true,
		content:  "When Mira found a compass that pointed at whatever she missed most, she followed it across the hills and found her grandfather's old boat.",
	},
	{
		title:    "The Library at the Edge of the Map",
		topic:    "mystery",
		ageRange: domain.AgeRange9to12,
		public:   true,
		content:  "Every book in the library was blank until someone who needed it walked in. Theo needed one badly, and the pages began to fill.",
	},
	{
		title:    "Signals from Station Nine",
		topic:    "space",
		ageRange: domain.AgeRange9to12,
		public:   false,
		content:  "The relay station had been silent for forty years. Then, on the night of the eclipse, it started counting backwards in perfect prime numbers.",
	},
}

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
		Service:     "talesmith-seed",
	})

	handle, err := providers.OpenStore(cfg, lg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer handle.Close()

	fmt.Printf("Seeding %s store at: %s\n", handle.Backend, handle.Path)

	ctx := context.Background()

	users, err := seedUsers(ctx, handle.Store)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	tales, err := seedTales(ctx, handle.Store, users)
	if err != nil {
		log.Fatalf("Failed to seed tales: %v", err)
	}

	if *withLikes {
		ledger := engagement.NewLedger(handle.Store, nil, lg.Logger)
		likes := seedLikes(ctx, ledger, users, tales)
		fmt.Printf("Recorded %d likes\n", likes)
	}

	fmt.Printf("Done: %d users, %d tales\n", len(users), len(tales))
}

// seedUsers creates the demo users, reusing any that already exist.
func seedUsers(ctx context.Context, s store.Store) ([]*domain.User, error) {
	hash, err := auth.HashPassword(*password)
	if err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		existing, err := s.GetUserByEmail(ctx, du.email)
		if err == nil {
			fmt.Printf("  user %s already exists\n", du.email)
			users = append(users, existing)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		u := &domain.User{
			ID:           id.MustGenerate(id.PrefixUser),
			Name:         du.name,
			Email:        du.email,
			PasswordHash: hash,
		}
		u.InitTimestamps()
		if err := s.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", du.email, err)
		}
		fmt.Printf("  created user %s (%s)\n", du.email, u.ID)
		users = append(users, u)
	}
	return users, nil
}

// seedTales spreads the demo tales across the demo users.
func seedTales(ctx context.Context, s store.Store, users []*domain.User) ([]*domain.Tale, error) {
	tales := make([]*domain.Tale, 0, len(demoTales))
	for i, dt := range demoTales {
		author := users[i%len(users)]
		t := &domain.Tale{
			ID:         id.MustGenerate(id.PrefixTale),
			Title:      dt.title,
			Content:    dt.content,
			AgeRange:   dt.ageRange,
			Topic:      dt.topic,
			IsPublic:   dt.public,
			AuthorID:   author.ID,
			AuthorName: author.Name,
		}
		t.InitTimestamps()
		if err := s.CreateTale(ctx, t); err != nil {
			return nil, fmt.Errorf("create tale %q: %w", dt.title, err)
		}
		fmt.Printf("  created tale %q by %s (public=%t)\n", t.Title, author.Name, t.IsPublic)
		tales = append(tales, t)
	}
	return tales, nil
}

// seedLikes has each user like a random half of the public tales written by others.
func seedLikes(ctx context.Context, ledger *engagement.Ledger, users []*domain.User, tales []*domain.Tale) int {
	count := 0
	for _, u := range users {
		principal := &auth.Principal{ID: u.ID}
		for _, t := range tales {
			if !t.IsPublic || t.AuthorID == u.ID || rand.IntN(2) == 0 {
				continue
			}
			if _, err := ledger.Like(ctx, principal, t.ID); err != nil {
				fmt.Printf("  like %s -> %s skipped: %v\n", u.ID, t.ID, err)
				continue
			}
			count++
		}
	}
	return count
}
