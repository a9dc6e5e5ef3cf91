package game

import (
	"github.com/sirupsen/logrus"

	"github.com/jkwon/parlor/internal/packets"
)

// Room is one match space owned by a lobby. An unused room has no title and
// no members; the first user to create it becomes the master, and mastership
// passes to the oldest remaining member when the master leaves.
type Room struct {
	index    int
	maxUsers int

	used        bool
	title       string
	members     []*User
	masterIndex int

	game *Game

	net    Sender
	logger *logrus.Logger
}

func newRoom(index, maxUsers int) *Room {
	return &Room{
		index:       index,
		maxUsers:    maxUsers,
		members:     make([]*User, 0, maxUsers),
		masterIndex: noIndex,
		game:        NewGame(),
	}
}

func (r *Room) Index() int     { return r.index }
func (r *Room) Used() bool     { return r.used }
func (r *Room) Title() string  { return r.title }
func (r *Room) MaxUsers() int  { return r.maxUsers }
func (r *Room) UserCount() int { return len(r.members) }
func (r *Room) Game() *Game    { return r.game }

func (r *Room) IsMaster(userIndex int) bool {
	return r.used && r.masterIndex == userIndex
}

// Create claims an unused room and titles it. The caller enters afterwards
// and becomes master by virtue of being first in.
func (r *Room) Create(title string) packets.ErrorCode {
	if r.used {
		return packets.ErrRoomAlreadyUsed
	}
	r.used = true
	r.title = title
	return packets.ErrNone
}

// Enter admits a user to a populated room. Matches in progress do not block
// entry; the newcomer simply is not part of the running game.
func (r *Room) Enter(u *User) packets.ErrorCode {
	if !r.used {
		return packets.ErrRoomInvalidIndex
	}
	if len(r.members) >= r.maxUsers {
		return packets.ErrRoomFull
	}
	if r.findMember(u.index) != nil {
		return packets.ErrRoomDuplicateEnter
	}

	if len(r.members) == 0 {
		r.masterIndex = u.index
	}
	r.members = append(r.members, u)
	u.enterRoom(r.index)
	return packets.ErrNone
}

// Leave removes a member and reassigns mastership or resets the room as
// needed. A game the leaver was part of is abandoned.
func (r *Room) Leave(userIndex int) packets.ErrorCode {
	member := r.findMember(userIndex)
	if member == nil {
		return packets.ErrRoomUserNotFound
	}

	for i, m := range r.members {
		if m == member {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	member.leaveRoom()

	if r.game.Participates(userIndex) {
		r.game.Reset()
	}

	if len(r.members) == 0 {
		r.clear()
	} else if r.masterIndex == userIndex {
		r.masterIndex = r.members[0].index
	}
	return packets.ErrNone
}

// Members returns the member list in entry order. Callers must not mutate it.
func (r *Room) Members() []*User {
	return r.members
}

func (r *Room) findMember(userIndex int) *User {
	for _, m := range r.members {
		if m.index == userIndex {
			return m
		}
	}
	return nil
}

func (r *Room) clear() {
	r.used = false
	r.title = ""
	r.masterIndex = noIndex
	r.members = r.members[:0]
	r.game.Reset()
}

// Broadcast sends one packet to every member, in entry order.
// excludeUserIndex leaves out the triggering member; pass a negative value
// for none.
func (r *Room) Broadcast(id uint16, body []byte, excludeUserIndex int) {
	for _, m := range r.members {
		if m.index == excludeUserIndex || m.domain != DomainInRoom {
			continue
		}
		if err := r.net.Send(m.sessionIndex, m.sessionSeq, id, body); err != nil {
			r.logger.Warnf("[ROOM] dropping broadcast to user %s: %v", m.id, err)
		}
	}
}
