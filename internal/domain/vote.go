package domain

import (
	"fmt"
	"strings"
)

// Direction is the polarity of a stored vote. The values match the votes.direction column.
type Direction int16

const (
	Down Direction = -1
	Up   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int16(d))
	}
}

// Action is what a user asks the ledger to do with their vote.
type Action string

const (
	Like       Action = "like"
	Dislike    Action = "dislike"
	RemoveVote Action = "remove"
)

// ParseAction maps a submitted form value to an Action.
func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case Like, Dislike, RemoveVote:
		return a, nil
	default:
		return "", fmt.Errorf("unknown vote action %q", raw)
	}
}

// Label is the human-readable choice shown on the vote form.
func (a Action) Label() string {
	switch a {
	case Like:
		return "Like"
	case Dislike:
		return "Dislike"
	case RemoveVote:
		return "Remove existing vote"
	default:
		return string(a)
	}
}

// Actions lists the vote form choices in display order.
func Actions() []Action {
	return []Action{Like, Dislike, RemoveVote}
}

// VoteState is a user's current position on one movie.
type VoteState int

const (
	NotVoted VoteState = iota
	Liked
	Disliked
)

func (s VoteState) String() string {
	switch s {
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	default:
		return "have not voted"
	}
}

// StateOf converts a stored direction into a vote state.
func StateOf(d Direction) VoteState {
	switch d {
	case Up:
		return Liked
	case Down:
		return Disliked
	default:
		return NotVoted
	}
}

// Direction returns the stored direction for the state; ok is false for NotVoted.
func (s VoteState) Direction() (Direction, bool) {
	switch s {
	case Liked:
		return Up, true
	case Disliked:
		return Down, true
	default:
		return 0, false
	}
}

// Vote is one user's vote on one movie.
type Vote struct {
	MovieID   int64
	VoterID   int64
	Direction Direction
}

// VoteCounts is derived from the live vote records of a movie.
type VoteCounts struct {
	Up   int64
	Down int64
}
