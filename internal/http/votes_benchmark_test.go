package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
)

func BenchmarkHandleVote(b *testing.B) {
	srv := buildTestServer(b)
	owner := mustUser(b, srv, "bench-owner", false)
	voter := mustUser(b, srv, "bench-voter", false)
	movie := mustMovie(b, srv, "Benchmark Movie", owner)
	cookie := loginCookie(b, srv, voter)
	path := fmt.Sprintf("/movies/movie_vote/%d/", movie.ID)
	votes := []string{"like", "dislike", "remove"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := doRequest(srv, http.MethodPost, path, url.Values{"vote": {votes[i%len(votes)]}}, cookie)
		if rec.Code != http.StatusFound {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkListMovies(b *testing.B) {
	srv := buildTestServer(b)
	owner := mustUser(b, srv, "bench-owner", false)
	for i := 0; i < 50; i++ {
		mustMovie(b, srv, fmt.Sprintf("Benchmark Movie %d", i), owner)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := doRequest(srv, http.MethodGet, "/movies/", nil, nil)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
