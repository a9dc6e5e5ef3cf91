package game

import (
	"time"

	"github.com/jkwon/parlor/internal/packets"
)

// GameState tracks a room's match lifecycle. Transitions only move forward:
// None -> Starting (master requests) -> Playing (every player confirmed) ->
// None again once the result goes out or a player leaves mid-match.
type GameState int

const (
	GameStateNone GameState = iota
	GameStateStarting
	GameStatePlaying
)

func (s GameState) String() string {
	switch s {
	case GameStateStarting:
		return "starting"
	case GameStatePlaying:
		return "playing"
	default:
		return "none"
	}
}

// Hand is one rock-paper-scissors selection.
type Hand uint8

const (
	HandRock Hand = iota
	HandPaper
	HandScissors
)

func (h Hand) Valid() bool {
	return h <= HandScissors
}

// Beats reports whether h wins against other: paper covers rock, scissors
// cut paper, rock breaks scissors.
func (h Hand) Beats(other Hand) bool {
	return (other+1)%3 == h
}

func (h Hand) String() string {
	switch h {
	case HandRock:
		return "rock"
	case HandPaper:
		return "paper"
	case HandScissors:
		return "scissors"
	default:
		return "invalid"
	}
}

// Game is the per-room match state machine. Players are identified by their
// user pool index, captured at start time so later joins do not disturb a
// running match.
type Game struct {
	state     GameState
	players   map[int]struct{}
	confirmed map[int]struct{}
	hands     map[int]Hand
	deadline  time.Time
}

func NewGame() *Game {
	return &Game{
		players:   make(map[int]struct{}),
		confirmed: make(map[int]struct{}),
		hands:     make(map[int]Hand),
	}
}

func (g *Game) State() GameState { return g.state }

// Participates reports whether the user was enrolled when the match started.
func (g *Game) Participates(userIndex int) bool {
	_, ok := g.players[userIndex]
	return ok
}

// Start enrolls the current room members and moves to Starting, where the
// match waits for every player's confirmation.
func (g *Game) Start(playerIndexes []int) packets.ErrorCode {
	if g.state != GameStateNone {
		return packets.ErrGameInvalidState
	}
	if len(playerIndexes) != 2 {
		// Rock-paper-scissors is strictly head-to-head.
		return packets.ErrRoomInvalidUserCount
	}

	for _, idx := range playerIndexes {
		g.players[idx] = struct{}{}
	}
	g.state = GameStateStarting
	return packets.ErrNone
}

// Confirm records one player's readiness. The second return value reports
// whether every player has now confirmed, at which point the caller begins
// the match.
func (g *Game) Confirm(userIndex int) (bool, packets.ErrorCode) {
	if g.state != GameStateStarting {
		return false, packets.ErrGameInvalidState
	}
	if !g.Participates(userIndex) {
		return false, packets.ErrGameInvalidState
	}
	if _, ok := g.confirmed[userIndex]; ok {
		return false, packets.ErrGameAlreadyConfirmed
	}

	g.confirmed[userIndex] = struct{}{}
	return len(g.confirmed) == len(g.players), packets.ErrNone
}

// Begin moves a fully-confirmed match to Playing and arms the selection
// deadline.
func (g *Game) Begin(deadline time.Time) {
	g.state = GameStatePlaying
	g.deadline = deadline
}

// Select records one player's hand. The second return value reports whether
// every hand is now in and the match can be resolved.
func (g *Game) Select(userIndex int, hand Hand) (bool, packets.ErrorCode) {
	if g.state != GameStatePlaying {
		return false, packets.ErrGameInvalidState
	}
	if !g.Participates(userIndex) {
		return false, packets.ErrGameInvalidState
	}
	if !hand.Valid() {
		return false, packets.ErrGameInvalidHand
	}
	if _, ok := g.hands[userIndex]; ok {
		return false, packets.ErrGameAlreadySelected
	}

	g.hands[userIndex] = hand
	return len(g.hands) == len(g.players), packets.ErrNone
}

// DeadlineExceeded reports whether a running match has outlived its
// selection window.
func (g *Game) DeadlineExceeded(now time.Time) bool {
	return g.state == GameStatePlaying && now.After(g.deadline)
}

// Result resolves the match from the hands received so far. Players who
// never selected forfeit: if exactly one player selected, that player wins
// outright. Equal hands (or no hands at all) are a draw. The winner is
// reported by user pool index, noIndex on a draw.
func (g *Game) Result() (winnerIndex int, draw bool) {
	type selection struct {
		userIndex int
		hand      Hand
	}
	selections := make([]selection, 0, len(g.hands))
	for idx, hand := range g.hands {
		selections = append(selections, selection{idx, hand})
	}

	switch len(selections) {
	case 0:
		return noIndex, true
	case 1:
		return selections[0].userIndex, false
	}

	a, b := selections[0], selections[1]
	switch {
	case a.hand.Beats(b.hand):
		return a.userIndex, false
	case b.hand.Beats(a.hand):
		return b.userIndex, false
	default:
		return noIndex, true
	}
}

// Reset abandons any match in progress and returns to None.
func (g *Game) Reset() {
	g.state = GameStateNone
	g.deadline = time.Time{}
	for idx := range g.players {
		delete(g.players, idx)
	}
	for idx := range g.confirmed {
		delete(g.confirmed, idx)
	}
	for idx := range g.hands {
		delete(g.hands, idx)
	}
}
