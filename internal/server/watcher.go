package server

import (
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
)

type watchEntry struct {
	seq  uint64
	done bool
}

// loginWatcher tracks sessions that have connected but not yet authenticated
// and reports the ones that outlive the login deadline. The cache is built
// without a janitor goroutine; expirations only surface from sweep(), which
// the logic goroutine calls, so the expired callback never races domain
// state.
type loginWatcher struct {
	enabled bool
	entries *cache.Cache
	expired func(sessionIndex int, sessionSeq uint64)
}

func newLoginWatcher(enabled bool, timeout time.Duration, expired func(int, uint64)) *loginWatcher {
	w := &loginWatcher{enabled: enabled, expired: expired}
	if !enabled {
		return w
	}

	w.entries = cache.New(timeout, -1)
	w.entries.OnEvicted(func(key string, value interface{}) {
		entry := value.(watchEntry)
		if entry.done {
			return
		}
		sessionIndex, err := strconv.Atoi(key)
		if err != nil {
			return
		}
		w.expired(sessionIndex, entry.seq)
	})
	return w
}

// track starts the login clock for a freshly-connected session.
func (w *loginWatcher) track(sessionIndex int, sessionSeq uint64) {
	if !w.enabled {
		return
	}
	w.entries.SetDefault(strconv.Itoa(sessionIndex), watchEntry{seq: sessionSeq})
}

// settle stops the clock for a session that logged in or disconnected on its
// own. The entry is tombstoned before removal because Delete runs the
// eviction callback.
func (w *loginWatcher) settle(sessionIndex int, sessionSeq uint64) {
	if !w.enabled {
		return
	}
	key := strconv.Itoa(sessionIndex)
	value, ok := w.entries.Get(key)
	if !ok {
		return
	}
	entry := value.(watchEntry)
	if entry.seq != sessionSeq {
		return
	}
	entry.done = true
	w.entries.SetDefault(key, entry)
	w.entries.Delete(key)
}

// sweep evicts every expired entry, invoking the expired callback for each
// on the caller's goroutine.
func (w *loginWatcher) sweep() {
	if !w.enabled {
		return
	}
	w.entries.DeleteExpired()
}
