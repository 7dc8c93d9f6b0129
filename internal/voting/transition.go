package voting

import (
	"fmt"

	"github.com/petroslamb/movierama/internal/domain"
)

// Transition returns the state that follows current when action is applied.
//
//	NotVoted --like--> Liked      NotVoted --dislike--> Disliked
//	Liked --dislike--> Disliked   Disliked --like--> Liked
//	Liked/Disliked --remove--> NotVoted
//
// Repeating the current position (like on Liked, dislike on Disliked,
// remove on NotVoted) leaves the state unchanged.
func Transition(current domain.VoteState, action domain.Action) (domain.VoteState, error) {
	switch action {
	case domain.Like:
		return domain.Liked, nil
	case domain.Dislike:
		return domain.Disliked, nil
	case domain.RemoveVote:
		return domain.NotVoted, nil
	default:
		return current, fmt.Errorf("%w: %q", ErrInvalidAction, string(action))
	}
}
