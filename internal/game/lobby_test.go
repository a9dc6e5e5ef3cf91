package game

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/sirupsen/logrus"

	"github.com/jkwon/parlor/internal/packets"
)

type sentFrame struct {
	SessionIndex int
	SessionSeq   uint64
	ID           uint16
}

type recordingSender struct {
	frames []sentFrame
}

func (r *recordingSender) Send(sessionIndex int, sessionSeq uint64, id uint16, body []byte) error {
	r.frames = append(r.frames, sentFrame{sessionIndex, sessionSeq, id})
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testUser(index, sessionIndex int, id string) *User {
	u := &User{index: index}
	u.bind(sessionIndex, uint64(1000+sessionIndex), id)
	return u
}

func TestLobbyEnterAndLeave(t *testing.T) {
	registry := NewLobbyRegistry(1, 2, 1, 2)
	lobby := registry.Lobby(0)

	alice := testUser(0, 10, "alice")
	bob := testUser(1, 11, "bob")
	carol := testUser(2, 12, "carol")

	if code := lobby.Enter(alice); code != packets.ErrNone {
		t.Fatalf("Enter(alice): error(%d)", code)
	}
	if alice.Domain() != DomainInLobby || alice.LobbyIndex() != 0 {
		t.Errorf("alice after enter: domain(%v) lobby(%d)", alice.Domain(), alice.LobbyIndex())
	}

	if code := lobby.Enter(alice); code != packets.ErrLobbyDuplicateEnter {
		t.Errorf("double enter: error(%d)", code)
	}
	if code := lobby.Enter(bob); code != packets.ErrNone {
		t.Fatalf("Enter(bob): error(%d)", code)
	}
	if code := lobby.Enter(carol); code != packets.ErrLobbyFull {
		t.Errorf("over-capacity enter: error(%d)", code)
	}

	if code := lobby.Leave(alice.Index()); code != packets.ErrNone {
		t.Fatalf("Leave(alice): error(%d)", code)
	}
	if alice.Domain() != DomainLoggedIn || alice.LobbyIndex() != noIndex {
		t.Errorf("alice after leave: domain(%v) lobby(%d)", alice.Domain(), alice.LobbyIndex())
	}
	if code := lobby.Leave(alice.Index()); code != packets.ErrLobbyUserNotFound {
		t.Errorf("double leave: error(%d)", code)
	}

	// The freed slot admits a new user.
	if code := lobby.Enter(carol); code != packets.ErrNone {
		t.Errorf("enter after leave: error(%d)", code)
	}
}

func TestLobbyRegistryBounds(t *testing.T) {
	registry := NewLobbyRegistry(2, 4, 1, 2)
	if registry.Lobby(-1) != nil || registry.Lobby(2) != nil {
		t.Error("out-of-range lobby index resolved")
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d, want 2", registry.Count())
	}
}

// Broadcasts reach lobby-floor users only: not the excluded sender and not
// users who have moved into a room.
func TestLobbyBroadcastScope(t *testing.T) {
	sender := &recordingSender{}
	registry := NewLobbyRegistry(1, 4, 1, 2)
	registry.SetNetwork(sender, quietLogger())
	lobby := registry.Lobby(0)

	alice := testUser(0, 10, "alice")
	bob := testUser(1, 11, "bob")
	carol := testUser(2, 12, "carol")
	for _, u := range []*User{alice, bob, carol} {
		if code := lobby.Enter(u); code != packets.ErrNone {
			t.Fatalf("Enter(%s): error(%d)", u.ID(), code)
		}
	}

	room := lobby.Room(0)
	room.Create("den")
	room.Enter(carol)

	lobby.Broadcast(packets.LobbyEnterNotify, nil, alice.Index())

	expected := []sentFrame{{bob.SessionIndex(), bob.SessionSeq(), packets.LobbyEnterNotify}}
	if diff := deep.Equal(expected, sender.frames); diff != nil {
		t.Errorf("broadcast recipients: %v", diff)
	}
}

func TestRoomLifecycle(t *testing.T) {
	sender := &recordingSender{}
	registry := NewLobbyRegistry(1, 4, 2, 2)
	registry.SetNetwork(sender, quietLogger())
	lobby := registry.Lobby(0)

	alice := testUser(0, 10, "alice")
	bob := testUser(1, 11, "bob")
	carol := testUser(2, 12, "carol")
	for _, u := range []*User{alice, bob, carol} {
		lobby.Enter(u)
	}

	room := lobby.AvailableRoom()
	if room == nil {
		t.Fatal("no available room in a fresh lobby")
	}
	if code := room.Create("den"); code != packets.ErrNone {
		t.Fatalf("Create: error(%d)", code)
	}
	if code := room.Create("den again"); code != packets.ErrRoomAlreadyUsed {
		t.Errorf("double create: error(%d)", code)
	}

	if code := room.Enter(alice); code != packets.ErrNone {
		t.Fatalf("Enter(alice): error(%d)", code)
	}
	if !room.IsMaster(alice.Index()) {
		t.Error("first entrant is not master")
	}
	if alice.Domain() != DomainInRoom || alice.RoomIndex() != room.Index() {
		t.Errorf("alice after enter: domain(%v) room(%d)", alice.Domain(), alice.RoomIndex())
	}

	if code := room.Enter(bob); code != packets.ErrNone {
		t.Fatalf("Enter(bob): error(%d)", code)
	}
	if code := room.Enter(bob); code != packets.ErrRoomDuplicateEnter {
		t.Errorf("double enter: error(%d)", code)
	}
	if code := room.Enter(carol); code != packets.ErrRoomFull {
		t.Errorf("over-capacity enter: error(%d)", code)
	}

	// Master leaves: mastership passes to the oldest remaining member.
	if code := room.Leave(alice.Index()); code != packets.ErrNone {
		t.Fatalf("Leave(alice): error(%d)", code)
	}
	if !room.IsMaster(bob.Index()) {
		t.Error("mastership did not pass to bob")
	}
	if alice.Domain() != DomainInLobby || alice.RoomIndex() != noIndex {
		t.Errorf("alice after leave: domain(%v) room(%d)", alice.Domain(), alice.RoomIndex())
	}

	// Last member out resets the room for reuse.
	if code := room.Leave(bob.Index()); code != packets.ErrNone {
		t.Fatalf("Leave(bob): error(%d)", code)
	}
	if room.Used() || room.Title() != "" || room.UserCount() != 0 {
		t.Errorf("room not reset: used(%v) title(%q) users(%d)",
			room.Used(), room.Title(), room.UserCount())
	}
	if code := room.Enter(carol); code != packets.ErrRoomInvalidIndex {
		t.Errorf("enter of reset room: error(%d)", code)
	}
}

func TestRoomLeaveAbandonsGame(t *testing.T) {
	registry := NewLobbyRegistry(1, 4, 1, 2)
	registry.SetNetwork(&recordingSender{}, quietLogger())
	lobby := registry.Lobby(0)

	alice := testUser(0, 10, "alice")
	bob := testUser(1, 11, "bob")
	lobby.Enter(alice)
	lobby.Enter(bob)

	room := lobby.Room(0)
	room.Create("den")
	room.Enter(alice)
	room.Enter(bob)

	g := room.Game()
	if code := g.Start([]int{alice.Index(), bob.Index()}); code != packets.ErrNone {
		t.Fatalf("Start: error(%d)", code)
	}

	room.Leave(bob.Index())
	if g.State() != GameStateNone {
		t.Errorf("game not abandoned after a player left: %v", g.State())
	}
}
