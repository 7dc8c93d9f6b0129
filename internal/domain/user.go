package domain

import "time"

// User is an account that may submit movies and vote on others' movies.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	IsAdmin      bool
	JoinedAt     time.Time
}

// CanManage reports whether the user may edit or delete the movie.
func (u User) CanManage(m Movie) bool {
	return u.IsAdmin || m.OwnedBy(u.ID)
}

// UserMovies groups a user's submitted movies.
type UserMovies struct {
	User   User
	Movies []Movie
}

// UserVotes groups the movies a user liked and disliked.
type UserVotes struct {
	User     User
	Liked    []Movie
	Disliked []Movie
}
