package game

import (
	"github.com/jkwon/parlor/internal/packets"
)

// UserRegistry owns the fixed pool of User entities. Slots come off a FIFO
// free list on login and go back on logout or disconnect; the dual maps give
// O(1) lookup by session index and by user id.
type UserRegistry struct {
	pool      []*User
	free      []int
	bySession map[int]*User
	byID      map[string]*User
}

func NewUserRegistry(maxUsers int) *UserRegistry {
	r := &UserRegistry{
		pool:      make([]*User, maxUsers),
		free:      make([]int, maxUsers),
		bySession: make(map[int]*User, maxUsers),
		byID:      make(map[string]*User, maxUsers),
	}
	for i := 0; i < maxUsers; i++ {
		r.pool[i] = &User{index: i, lobbyIndex: noIndex, roomIndex: noIndex}
		r.free[i] = i
	}
	return r
}

// Add binds a user id to a session, enforcing both uniqueness dimensions: at
// most one user per session and at most one session per id.
func (r *UserRegistry) Add(sessionIndex int, sessionSeq uint64, id string) (*User, packets.ErrorCode) {
	if _, ok := r.bySession[sessionIndex]; ok {
		return nil, packets.ErrLoginDuplicateID
	}
	if _, ok := r.byID[id]; ok {
		return nil, packets.ErrLoginDuplicateID
	}
	if len(r.free) == 0 {
		return nil, packets.ErrLoginUserPoolFull
	}

	index := r.free[0]
	r.free = r.free[1:]

	u := r.pool[index]
	u.bind(sessionIndex, sessionSeq, id)
	r.bySession[sessionIndex] = u
	r.byID[id] = u
	return u, packets.ErrNone
}

// Remove unbinds whatever user occupies the session, if any, and returns the
// slot to the free list.
func (r *UserRegistry) Remove(sessionIndex int) packets.ErrorCode {
	u, ok := r.bySession[sessionIndex]
	if !ok {
		return packets.ErrSessionNotFound
	}

	delete(r.bySession, sessionIndex)
	delete(r.byID, u.id)
	index := u.index
	u.clear()
	r.free = append(r.free, index)
	return packets.ErrNone
}

// Get resolves a session to its user, rejecting references whose sequence
// number no longer matches: a frame queued before a disconnect must not act
// on behalf of the slot's next occupant.
func (r *UserRegistry) Get(sessionIndex int, sessionSeq uint64) (*User, packets.ErrorCode) {
	u, ok := r.bySession[sessionIndex]
	if !ok || u.sessionSeq != sessionSeq {
		return nil, packets.ErrSessionNotFound
	}
	return u, packets.ErrNone
}

// FindByID returns the logged-in user with the given id, or nil.
func (r *UserRegistry) FindByID(id string) *User {
	return r.byID[id]
}

func (r *UserRegistry) ActiveCount() int {
	return len(r.bySession)
}
