package game

import (
	"testing"

	"github.com/jkwon/parlor/internal/packets"
)

func TestUserRegistryAddAndGet(t *testing.T) {
	registry := NewUserRegistry(4)

	u, code := registry.Add(7, 100, "alice")
	if code != packets.ErrNone {
		t.Fatalf("Add: error(%d)", code)
	}
	if u.Domain() != DomainLoggedIn {
		t.Errorf("fresh user domain: %v", u.Domain())
	}
	if u.LobbyIndex() != noIndex || u.RoomIndex() != noIndex {
		t.Errorf("fresh user has dangling back-references: lobby(%d) room(%d)",
			u.LobbyIndex(), u.RoomIndex())
	}

	got, code := registry.Get(7, 100)
	if code != packets.ErrNone || got != u {
		t.Fatalf("Get returned (%v, %d), want the added user", got, code)
	}
	if registry.FindByID("alice") != u {
		t.Error("FindByID did not resolve the added user")
	}
}

// A frame carrying a stale sequence number must not resolve to the slot's
// current occupant.
func TestUserRegistryGetRejectsStaleSeq(t *testing.T) {
	registry := NewUserRegistry(4)
	registry.Add(7, 100, "alice")

	if _, code := registry.Get(7, 99); code != packets.ErrSessionNotFound {
		t.Errorf("stale seq resolved: error(%d)", code)
	}
	if _, code := registry.Get(8, 100); code != packets.ErrSessionNotFound {
		t.Errorf("unknown session resolved: error(%d)", code)
	}
}

func TestUserRegistryUniqueness(t *testing.T) {
	registry := NewUserRegistry(4)
	registry.Add(7, 100, "alice")

	if _, code := registry.Add(8, 101, "alice"); code != packets.ErrLoginDuplicateID {
		t.Errorf("duplicate id admitted: error(%d)", code)
	}
	if _, code := registry.Add(7, 100, "bob"); code != packets.ErrLoginDuplicateID {
		t.Errorf("second login on one session admitted: error(%d)", code)
	}
}

func TestUserRegistryPoolExhaustionAndReuse(t *testing.T) {
	registry := NewUserRegistry(2)
	registry.Add(1, 100, "alice")
	registry.Add(2, 101, "bob")

	if _, code := registry.Add(3, 102, "carol"); code != packets.ErrLoginUserPoolFull {
		t.Fatalf("over-capacity login admitted: error(%d)", code)
	}

	if code := registry.Remove(1); code != packets.ErrNone {
		t.Fatalf("Remove: error(%d)", code)
	}
	if registry.FindByID("alice") != nil {
		t.Error("removed user still resolvable by id")
	}

	if _, code := registry.Add(3, 102, "carol"); code != packets.ErrNone {
		t.Errorf("freed slot not reusable: error(%d)", code)
	}
	if registry.ActiveCount() != 2 {
		t.Errorf("ActiveCount() = %d, want 2", registry.ActiveCount())
	}
}

func TestUserRegistryRemoveUnknownSession(t *testing.T) {
	registry := NewUserRegistry(2)
	if code := registry.Remove(5); code != packets.ErrSessionNotFound {
		t.Errorf("Remove of unknown session: error(%d)", code)
	}
}
