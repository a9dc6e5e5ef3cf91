package game

import (
	"github.com/sirupsen/logrus"

	"github.com/jkwon/parlor/internal/packets"
)

// Sender is the transport surface the domain needs to push packets: the
// {sessionIndex, sessionSeq} pair addresses exactly one connection lifetime.
type Sender interface {
	Send(sessionIndex int, sessionSeq uint64, id uint16, body []byte) error
}

// Lobby is a chat-and-matchmaking space with a fixed user capacity and a
// fixed set of owned rooms. Users are tracked in a slot array (stable
// positions for the lifetime of a visit) plus dual maps for O(1) lookup.
type Lobby struct {
	index    int
	maxUsers int

	slots   []*User
	rooms   []*Room
	byIndex map[int]*User
	byID    map[string]*User

	net    Sender
	logger *logrus.Logger
}

func newLobby(index, maxUsers, roomCount, maxRoomUsers int) *Lobby {
	l := &Lobby{
		index:    index,
		maxUsers: maxUsers,
		slots:    make([]*User, maxUsers),
		rooms:    make([]*Room, roomCount),
		byIndex:  make(map[int]*User, maxUsers),
		byID:     make(map[string]*User, maxUsers),
	}
	for i := 0; i < roomCount; i++ {
		l.rooms[i] = newRoom(i, maxRoomUsers)
	}
	return l
}

func (l *Lobby) setNetwork(net Sender, logger *logrus.Logger) {
	l.net = net
	l.logger = logger
	for _, room := range l.rooms {
		room.net = net
		room.logger = logger
	}
}

func (l *Lobby) Index() int     { return l.index }
func (l *Lobby) MaxUsers() int  { return l.maxUsers }
func (l *Lobby) RoomCount() int { return len(l.rooms) }
func (l *Lobby) UserCount() int { return len(l.byIndex) }

// Enter admits a user into the first empty slot.
func (l *Lobby) Enter(u *User) packets.ErrorCode {
	if _, ok := l.byIndex[u.index]; ok {
		return packets.ErrLobbyDuplicateEnter
	}

	slot := -1
	for i, occupant := range l.slots {
		if occupant == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return packets.ErrLobbyFull
	}

	l.slots[slot] = u
	l.byIndex[u.index] = u
	l.byID[u.id] = u
	u.enterLobby(l.index)
	return packets.ErrNone
}

// Leave removes the user from the lobby. Users inside a room keep their
// lobby membership until the room releases them, so callers cascade
// room-leave first.
func (l *Lobby) Leave(userIndex int) packets.ErrorCode {
	u, ok := l.byIndex[userIndex]
	if !ok {
		return packets.ErrLobbyUserNotFound
	}

	for i, occupant := range l.slots {
		if occupant == u {
			l.slots[i] = nil
			break
		}
	}
	delete(l.byIndex, userIndex)
	delete(l.byID, u.id)
	u.leaveLobby()
	return packets.ErrNone
}

func (l *Lobby) FindUser(userIndex int) *User {
	return l.byIndex[userIndex]
}

// Room returns the owned room at roomIndex, or nil when out of range.
func (l *Lobby) Room(roomIndex int) *Room {
	if roomIndex < 0 || roomIndex >= len(l.rooms) {
		return nil
	}
	return l.rooms[roomIndex]
}

// AvailableRoom returns the first unused room, or nil when every room is
// taken.
func (l *Lobby) AvailableRoom() *Room {
	for _, room := range l.rooms {
		if !room.used {
			return room
		}
	}
	return nil
}

// Broadcast sends one packet to every user currently in the lobby proper.
// Users who have moved on into a room are skipped; excludeUserIndex (pass
// noIndex-style -1 for none) lets the triggering user be left out.
func (l *Lobby) Broadcast(id uint16, body []byte, excludeUserIndex int) {
	for _, u := range l.byIndex {
		if u.index == excludeUserIndex || u.domain != DomainInLobby {
			continue
		}
		if err := l.net.Send(u.sessionIndex, u.sessionSeq, id, body); err != nil {
			l.logger.Warnf("[LOBBY] dropping broadcast to user %s: %v", u.id, err)
		}
	}
}

// LobbyRegistry owns every lobby. Lobbies are created up front from config
// and never resized.
type LobbyRegistry struct {
	lobbies []*Lobby
}

func NewLobbyRegistry(maxLobbies, maxLobbyUsers, roomsPerLobby, maxRoomUsers int) *LobbyRegistry {
	r := &LobbyRegistry{lobbies: make([]*Lobby, maxLobbies)}
	for i := 0; i < maxLobbies; i++ {
		r.lobbies[i] = newLobby(i, maxLobbyUsers, roomsPerLobby, maxRoomUsers)
	}
	return r
}

// SetNetwork wires the transport into every lobby and room. Must be called
// before any Broadcast.
func (r *LobbyRegistry) SetNetwork(net Sender, logger *logrus.Logger) {
	for _, l := range r.lobbies {
		l.setNetwork(net, logger)
	}
}

// Lobby returns the lobby at index, or nil when out of range.
func (r *LobbyRegistry) Lobby(index int) *Lobby {
	if index < 0 || index >= len(r.lobbies) {
		return nil
	}
	return r.lobbies[index]
}

func (r *LobbyRegistry) Lobbies() []*Lobby {
	return r.lobbies
}

func (r *LobbyRegistry) Count() int {
	return len(r.lobbies)
}
