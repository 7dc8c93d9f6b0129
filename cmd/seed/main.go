package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/petroslamb/movierama/db"
	"github.com/petroslamb/movierama/internal/config"
	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
	"github.com/petroslamb/movierama/internal/store"
	"github.com/petroslamb/movierama/internal/voting"
)

type fixture struct {
	Users  []userEntry  `json:"users"`
	Movies []movieEntry `json:"movies"`
	Votes  []voteEntry  `json:"votes"`
}

type userEntry struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

type movieEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

type voteEntry struct {
	Voter string `json:"voter"`
	Movie string `json:"movie"`
	Vote  string `json:"vote"`
}

func main() {
	var (
		data    = flag.String("data", "db/seed.json", "path to fixture file")
		migrate = flag.Bool("migrate", true, "apply migrations before seeding")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}
	var payload fixture
	if err := json.Unmarshal(file, &payload); err != nil {
		log.Fatalf("parse fixture: %v", err)
	}

	logger := log.New(os.Stdout, "[movierama-seed] ", log.LstdFlags)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:               4,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 log.New(io.Discard, "", 0),
	})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	if *migrate {
		if err := st.Migrate(ctx, db.Migrations); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
	}

	if err := seed(ctx, repository.New(st), payload, logger); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

// seed loads the fixture. Existing users and movies are reused so the
// command can run repeatedly.
func seed(ctx context.Context, repo *repository.Repository, payload fixture, logger *log.Logger) error {
	users := make(map[string]domain.User, len(payload.Users))
	for _, u := range payload.Users {
		user, err := repo.Users.Create(ctx, repository.UserCreateParams{
			Username: u.Username,
			Password: u.Password,
			IsAdmin:  u.Admin,
		})
		if errors.Is(err, repository.ErrDuplicateUsername) {
			user, err = repo.Users.GetByUsername(ctx, u.Username)
		}
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Username, err)
		}
		users[u.Username] = user
	}

	movies := make(map[string]int64, len(payload.Movies))
	for _, m := range payload.Movies {
		owner, ok := users[m.Owner]
		if !ok {
			return fmt.Errorf("movie %q: unknown owner %q", m.Title, m.Owner)
		}
		movie, err := repo.Movies.Create(ctx, repository.MovieCreateParams{
			Title:       m.Title,
			Description: m.Description,
			OwnerID:     owner.ID,
		})
		if errors.Is(err, repository.ErrDuplicateTitle) {
			movie, err = repo.Movies.GetByTitle(ctx, m.Title)
		}
		if err != nil {
			return fmt.Errorf("movie %q: %w", m.Title, err)
		}
		movies[m.Title] = movie.ID
	}

	votes := voting.New(repo.Votes, logger)
	for _, v := range payload.Votes {
		voter, ok := users[v.Voter]
		if !ok {
			return fmt.Errorf("vote: unknown voter %q", v.Voter)
		}
		movieID, ok := movies[v.Movie]
		if !ok {
			return fmt.Errorf("vote: unknown movie %q", v.Movie)
		}
		action, err := domain.ParseAction(v.Vote)
		if err != nil {
			return fmt.Errorf("vote by %s on %q: %w", v.Voter, v.Movie, err)
		}
		if _, err := votes.Vote(ctx, movieID, voter.ID, action); err != nil {
			if errors.Is(err, voting.ErrSelfVote) {
				logger.Printf("skipping self vote by %s on %q", v.Voter, v.Movie)
				continue
			}
			return fmt.Errorf("vote by %s on %q: %w", v.Voter, v.Movie, err)
		}
	}

	logger.Printf("seeded %d users, %d movies, %d votes", len(users), len(movies), len(payload.Votes))
	return nil
}
