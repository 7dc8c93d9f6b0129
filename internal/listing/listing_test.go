package listing

import (
	"context"
	"testing"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
	"github.com/petroslamb/movierama/internal/testutil"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name               string
		total, requested   int
		wantNumber, wantOf int
	}{
		{"empty", 0, 1, 1, 1},
		{"first", 12, 1, 1, 3},
		{"middle", 12, 2, 2, 3},
		{"exact last", 10, 2, 2, 2},
		{"past end", 12, 9, 3, 3},
		{"zero", 12, 0, 3, 3},
		{"negative", 12, -4, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, numPages := clampPage(tt.total, 5, tt.requested)
			if number != tt.wantNumber || numPages != tt.wantOf {
				t.Fatalf("clampPage(%d, 5, %d) = %d/%d, want %d/%d",
					tt.total, tt.requested, number, numPages, tt.wantNumber, tt.wantOf)
			}
		})
	}
}

type fixture struct {
	repo  *repository.Repository
	svc   *Service
	alice domain.User
	bob   domain.User
	carol domain.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewWithPool(testutil.NewPool(t))

	f := fixture{repo: repo, svc: NewFromRepository(repo, 2)}
	f.alice = mustUser(t, repo, "alice")
	f.bob = mustUser(t, repo, "bob")
	f.carol = mustUser(t, repo, "carol")

	for _, m := range []struct {
		title string
		owner int64
	}{
		{"Alien", f.alice.ID},
		{"Brazil", f.alice.ID},
		{"Casablanca", f.alice.ID},
		{"Dune", f.bob.ID},
	} {
		if _, err := repo.Movies.Create(ctx, repository.MovieCreateParams{
			Title:       m.title,
			Description: m.title + " description",
			OwnerID:     m.owner,
		}); err != nil {
			t.Fatalf("create movie %s: %v", m.title, err)
		}
	}
	return f
}

func mustUser(t *testing.T, repo *repository.Repository, name string) domain.User {
	t.Helper()
	u, err := repo.Users.Create(context.Background(), repository.UserCreateParams{Username: name, Password: "password123"})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f fixture) movie(t *testing.T, title string) domain.MovieSummary {
	t.Helper()
	all, err := f.svc.AllMovies(context.Background(), title)
	if err != nil || len(all) != 1 {
		t.Fatalf("lookup %q: %v (%d results)", title, err, len(all))
	}
	return all[0]
}

func (f fixture) vote(t *testing.T, movieID, voterID int64, state domain.VoteState) {
	t.Helper()
	_, err := f.repo.Votes.Apply(context.Background(), movieID, voterID, func(int64, domain.VoteState) (domain.VoteState, error) {
		return state, nil
	})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
}

func summaryTitles(items []domain.MovieSummary) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func movieTitles(items []domain.Movie) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAllMoviesNewestFirst(t *testing.T) {
	f := newFixture(t)

	all, err := f.svc.AllMovies(context.Background(), "")
	if err != nil {
		t.Fatalf("all movies: %v", err)
	}
	want := []string{"Dune", "Casablanca", "Brazil", "Alien"}
	if got := summaryTitles(all); !equal(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}

	filtered, err := f.svc.AllMovies(context.Background(), "BRAZ")
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if got := summaryTitles(filtered); !equal(got, []string{"Brazil"}) {
		t.Fatalf("filtered titles = %v", got)
	}
}

func TestOwnMovies(t *testing.T) {
	f := newFixture(t)

	own, err := f.svc.OwnMovies(context.Background(), f.bob.ID)
	if err != nil {
		t.Fatalf("own movies: %v", err)
	}
	if got := summaryTitles(own); !equal(got, []string{"Dune"}) {
		t.Fatalf("bob's movies = %v", got)
	}

	none, err := f.svc.OwnMovies(context.Background(), f.carol.ID)
	if err != nil {
		t.Fatalf("own movies: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("carol has %d movies, want 0", len(none))
	}
}

func TestMoviesByOwnerFiltersAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page, err := f.svc.MoviesByOwner(ctx, &f.alice.ID, 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if page.TotalItems != 3 || page.NumPages != 2 || page.Number != 1 {
		t.Fatalf("unexpected page meta: %+v", page)
	}
	if got := summaryTitles(page.Items); !equal(got, []string{"Casablanca", "Brazil"}) {
		t.Fatalf("page 1 titles = %v", got)
	}
	for _, m := range page.Items {
		if m.OwnerID != f.alice.ID {
			t.Fatalf("movie %q owned by %d, want %d", m.Title, m.OwnerID, f.alice.ID)
		}
	}

	last, err := f.svc.MoviesByOwner(ctx, &f.alice.ID, 99)
	if err != nil {
		t.Fatalf("page 99: %v", err)
	}
	if last.Number != 2 || !equal(summaryTitles(last.Items), []string{"Alien"}) {
		t.Fatalf("page 99 = %d %v", last.Number, summaryTitles(last.Items))
	}

	bobs, err := f.svc.MoviesByOwner(ctx, &f.bob.ID, 1)
	if err != nil {
		t.Fatalf("bob page: %v", err)
	}
	for _, m := range bobs.Items {
		if m.OwnerID == f.alice.ID {
			t.Fatalf("filter by bob returned alice's movie %q", m.Title)
		}
	}

	empty, err := f.svc.MoviesByOwner(ctx, &f.carol.ID, 3)
	if err != nil {
		t.Fatalf("carol page: %v", err)
	}
	if empty.Number != 1 || empty.NumPages != 1 || len(empty.Items) != 0 {
		t.Fatalf("empty page = %+v", empty)
	}
}

func TestMoviesByOwnerUnfilteredGroupsByOwner(t *testing.T) {
	f := newFixture(t)
	f.svc = NewFromRepository(f.repo, 10)

	page, err := f.svc.MoviesByOwner(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("unfiltered: %v", err)
	}
	want := []string{"Casablanca", "Brazil", "Alien", "Dune"}
	if got := summaryTitles(page.Items); !equal(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
}

func TestUsersWithMovies(t *testing.T) {
	f := newFixture(t)

	grouped, err := f.svc.UsersWithMovies(context.Background())
	if err != nil {
		t.Fatalf("users with movies: %v", err)
	}
	if len(grouped) != 3 {
		t.Fatalf("got %d users, want 3", len(grouped))
	}
	if grouped[0].User.Username != "alice" || len(grouped[0].Movies) != 3 {
		t.Fatalf("alice group = %s %v", grouped[0].User.Username, movieTitles(grouped[0].Movies))
	}
	if grouped[1].User.Username != "bob" || !equal(movieTitles(grouped[1].Movies), []string{"Dune"}) {
		t.Fatalf("bob group = %s %v", grouped[1].User.Username, movieTitles(grouped[1].Movies))
	}
	if grouped[2].User.Username != "carol" || len(grouped[2].Movies) != 0 {
		t.Fatalf("carol group = %s %v", grouped[2].User.Username, movieTitles(grouped[2].Movies))
	}
}

func TestVoteableMoviesAnnotatesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alien := f.movie(t, "Alien")
	brazil := f.movie(t, "Brazil")

	f.vote(t, alien.ID, f.bob.ID, domain.Liked)
	f.vote(t, brazil.ID, f.bob.ID, domain.Disliked)
	f.vote(t, alien.ID, f.carol.ID, domain.Disliked)

	voteable, err := f.svc.VoteableMovies(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("voteable: %v", err)
	}
	want := map[string]domain.VoteState{
		"Casablanca": domain.NotVoted,
		"Brazil":     domain.Disliked,
		"Alien":      domain.Liked,
	}
	if len(voteable) != len(want) {
		t.Fatalf("got %d voteable movies, want %d", len(voteable), len(want))
	}
	for _, m := range voteable {
		if m.OwnerID == f.bob.ID {
			t.Fatalf("own movie %q listed as voteable", m.Title)
		}
		if m.MyVote != want[m.Title] {
			t.Fatalf("%q state = %s, want %s", m.Title, m.MyVote, want[m.Title])
		}
		if m.Title == "Alien" && (m.Counts != domain.VoteCounts{Up: 1, Down: 1}) {
			t.Fatalf("Alien counts = %+v", m.Counts)
		}
	}
}

func TestUserVotes(t *testing.T) {
	f := newFixture(t)
	alien := f.movie(t, "Alien")
	dune := f.movie(t, "Dune")

	f.vote(t, alien.ID, f.bob.ID, domain.Liked)
	f.vote(t, alien.ID, f.carol.ID, domain.Disliked)
	f.vote(t, dune.ID, f.carol.ID, domain.Liked)

	votes, err := f.svc.UserVotes(context.Background())
	if err != nil {
		t.Fatalf("user votes: %v", err)
	}
	byName := make(map[string]domain.UserVotes, len(votes))
	for _, v := range votes {
		byName[v.User.Username] = v
	}

	if v := byName["alice"]; len(v.Liked) != 0 || len(v.Disliked) != 0 {
		t.Fatalf("alice votes = %v / %v", movieTitles(v.Liked), movieTitles(v.Disliked))
	}
	if v := byName["bob"]; !equal(movieTitles(v.Liked), []string{"Alien"}) || len(v.Disliked) != 0 {
		t.Fatalf("bob votes = %v / %v", movieTitles(v.Liked), movieTitles(v.Disliked))
	}
	if v := byName["carol"]; !equal(movieTitles(v.Liked), []string{"Dune"}) || !equal(movieTitles(v.Disliked), []string{"Alien"}) {
		t.Fatalf("carol votes = %v / %v", movieTitles(v.Liked), movieTitles(v.Disliked))
	}
}
