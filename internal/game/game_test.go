package game

import (
	"testing"
	"time"

	"github.com/jkwon/parlor/internal/packets"
)

func TestHandBeats(t *testing.T) {
	tests := []struct {
		hand    Hand
		against Hand
		wins    bool
	}{
		{HandRock, HandScissors, true},
		{HandScissors, HandPaper, true},
		{HandPaper, HandRock, true},
		{HandScissors, HandRock, false},
		{HandPaper, HandScissors, false},
		{HandRock, HandPaper, false},
		{HandRock, HandRock, false},
		{HandPaper, HandPaper, false},
		{HandScissors, HandScissors, false},
	}
	for _, tt := range tests {
		if got := tt.hand.Beats(tt.against); got != tt.wins {
			t.Errorf("%v.Beats(%v) = %v, want %v", tt.hand, tt.against, got, tt.wins)
		}
	}
}

func startedGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame()
	if code := g.Start([]int{10, 20}); code != packets.ErrNone {
		t.Fatalf("Start: error(%d)", code)
	}
	return g
}

func playingGame(t *testing.T) *Game {
	t.Helper()
	g := startedGame(t)
	if _, code := g.Confirm(10); code != packets.ErrNone {
		t.Fatalf("Confirm(10): error(%d)", code)
	}
	all, code := g.Confirm(20)
	if code != packets.ErrNone || !all {
		t.Fatalf("Confirm(20): all(%v) error(%d)", all, code)
	}
	g.Begin(time.Now().Add(time.Minute))
	return g
}

func TestGameFullRound(t *testing.T) {
	g := playingGame(t)

	if all, code := g.Select(10, HandRock); code != packets.ErrNone || all {
		t.Fatalf("first select: all(%v) error(%d)", all, code)
	}
	all, code := g.Select(20, HandScissors)
	if code != packets.ErrNone || !all {
		t.Fatalf("second select: all(%v) error(%d)", all, code)
	}

	winner, draw := g.Result()
	if draw || winner != 10 {
		t.Errorf("rock vs scissors: winner(%d) draw(%v), want winner 10", winner, draw)
	}

	g.Reset()
	if g.State() != GameStateNone {
		t.Errorf("state after reset: %v", g.State())
	}
	if code := g.Start([]int{10, 20}); code != packets.ErrNone {
		t.Errorf("restart after reset: error(%d)", code)
	}
}

func TestGameDraw(t *testing.T) {
	g := playingGame(t)
	g.Select(10, HandPaper)
	g.Select(20, HandPaper)

	if winner, draw := g.Result(); !draw || winner != noIndex {
		t.Errorf("equal hands: winner(%d) draw(%v), want a draw", winner, draw)
	}
}

func TestGameForfeitResolution(t *testing.T) {
	g := playingGame(t)
	g.Select(10, HandScissors)

	// Only one hand in: that player wins outright.
	if winner, draw := g.Result(); draw || winner != 10 {
		t.Errorf("single hand: winner(%d) draw(%v), want winner 10", winner, draw)
	}
}

func TestGameNoHandsIsDraw(t *testing.T) {
	g := playingGame(t)
	if winner, draw := g.Result(); !draw || winner != noIndex {
		t.Errorf("no hands: winner(%d) draw(%v), want a draw", winner, draw)
	}
}

func TestGameStartGuards(t *testing.T) {
	g := NewGame()
	if code := g.Start([]int{10}); code != packets.ErrRoomInvalidUserCount {
		t.Errorf("one player: error(%d), want %d", code, packets.ErrRoomInvalidUserCount)
	}
	if code := g.Start([]int{10, 20, 30}); code != packets.ErrRoomInvalidUserCount {
		t.Errorf("three players: error(%d), want %d", code, packets.ErrRoomInvalidUserCount)
	}

	g = startedGame(t)
	if code := g.Start([]int{10, 20}); code != packets.ErrGameInvalidState {
		t.Errorf("double start: error(%d), want %d", code, packets.ErrGameInvalidState)
	}
}

func TestGameConfirmGuards(t *testing.T) {
	g := NewGame()
	if _, code := g.Confirm(10); code != packets.ErrGameInvalidState {
		t.Errorf("confirm before start: error(%d)", code)
	}

	g = startedGame(t)
	if _, code := g.Confirm(99); code != packets.ErrGameInvalidState {
		t.Errorf("confirm by non-player: error(%d)", code)
	}
	g.Confirm(10)
	if _, code := g.Confirm(10); code != packets.ErrGameAlreadyConfirmed {
		t.Errorf("double confirm: error(%d)", code)
	}
}

func TestGameSelectGuards(t *testing.T) {
	g := startedGame(t)
	if _, code := g.Select(10, HandRock); code != packets.ErrGameInvalidState {
		t.Errorf("select before begin: error(%d)", code)
	}

	g = playingGame(t)
	if _, code := g.Select(99, HandRock); code != packets.ErrGameInvalidState {
		t.Errorf("select by non-player: error(%d)", code)
	}
	if _, code := g.Select(10, Hand(7)); code != packets.ErrGameInvalidHand {
		t.Errorf("invalid hand: error(%d)", code)
	}
	g.Select(10, HandRock)
	if _, code := g.Select(10, HandPaper); code != packets.ErrGameAlreadySelected {
		t.Errorf("double select: error(%d)", code)
	}
}

func TestGameDeadline(t *testing.T) {
	g := startedGame(t)
	now := time.Now()
	if g.DeadlineExceeded(now.Add(time.Hour)) {
		t.Error("deadline reported before the match began")
	}

	g.Confirm(10)
	g.Confirm(20)
	g.Begin(now.Add(time.Second))

	if g.DeadlineExceeded(now) {
		t.Error("deadline reported before it passed")
	}
	if !g.DeadlineExceeded(now.Add(2 * time.Second)) {
		t.Error("deadline not reported after it passed")
	}

	g.Reset()
	if g.DeadlineExceeded(now.Add(time.Hour)) {
		t.Error("deadline reported after reset")
	}
}
