// Package game holds the pooled domain entities behind the dispatcher:
// users, lobbies, rooms, and the per-room game state machine. Everything in
// this package is mutated from a single goroutine; nothing here locks.
package game

// Domain is a user's current phase of interaction. Every request is valid in
// exactly one domain.
type Domain int

const (
	DomainNone Domain = iota
	DomainLoggedIn
	DomainInLobby
	DomainInRoom
)

func (d Domain) String() string {
	switch d {
	case DomainLoggedIn:
		return "logged-in"
	case DomainInLobby:
		return "in-lobby"
	case DomainInRoom:
		return "in-room"
	default:
		return "none"
	}
}

// noIndex marks an unset lobby/room back-reference.
const noIndex = -1

// User is the domain entity bound 1:1 to a session while connected. The
// lobby and room fields are non-owning indexes into the owning collections,
// cleared on leave before the referenced entity can be reused.
type User struct {
	index        int
	sessionIndex int
	sessionSeq   uint64
	id           string
	domain       Domain
	lobbyIndex   int
	roomIndex    int
}

func (u *User) Index() int        { return u.index }
func (u *User) SessionIndex() int { return u.sessionIndex }
func (u *User) SessionSeq() uint64 {
	return u.sessionSeq
}
func (u *User) ID() string      { return u.id }
func (u *User) Domain() Domain  { return u.domain }
func (u *User) LobbyIndex() int { return u.lobbyIndex }
func (u *User) RoomIndex() int  { return u.roomIndex }

func (u *User) bind(sessionIndex int, sessionSeq uint64, id string) {
	u.sessionIndex = sessionIndex
	u.sessionSeq = sessionSeq
	u.id = id
	u.domain = DomainLoggedIn
	u.lobbyIndex = noIndex
	u.roomIndex = noIndex
}

func (u *User) enterLobby(lobbyIndex int) {
	u.domain = DomainInLobby
	u.lobbyIndex = lobbyIndex
}

func (u *User) leaveLobby() {
	u.domain = DomainLoggedIn
	u.lobbyIndex = noIndex
}

func (u *User) enterRoom(roomIndex int) {
	u.domain = DomainInRoom
	u.roomIndex = roomIndex
}

func (u *User) leaveRoom() {
	u.domain = DomainInLobby
	u.roomIndex = noIndex
}

func (u *User) clear() {
	u.sessionIndex = 0
	u.sessionSeq = 0
	u.id = ""
	u.domain = DomainNone
	u.lobbyIndex = noIndex
	u.roomIndex = noIndex
}
