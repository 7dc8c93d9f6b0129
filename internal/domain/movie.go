package domain

import "time"

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Movie represents a user-submitted movie.
type Movie struct {
	ID          int64
	Title       string
	Description string
	OwnerID     int64
	// OwnerName is filled by list queries that join the owner.
	OwnerName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether userID submitted the movie.
func (m Movie) OwnedBy(userID int64) bool {
	return m.OwnerID == userID
}

// MovieSummary is a movie with its live vote counts.
type MovieSummary struct {
	Movie
	Counts VoteCounts
}

// VoteableMovie is a movie annotated with the requesting user's vote state.
type VoteableMovie struct {
	MovieSummary
	MyVote VoteState
}

// Page is one page of a numbered, fixed-size listing.
type Page[T any] struct {
	Items      []T
	Number     int
	NumPages   int
	TotalItems int
	PerPage    int
}

// HasPrevious reports whether a page exists before this one.
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a page exists after this one.
func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

// PreviousNumber is the number of the preceding page.
func (p Page[T]) PreviousNumber() int { return p.Number - 1 }

// NextNumber is the number of the following page.
func (p Page[T]) NextNumber() int { return p.Number + 1 }
