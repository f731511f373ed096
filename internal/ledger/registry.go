package ledger

import (
	"time"

	"moneytracker/internal/auth"
	"moneytracker/internal/cache"
)

// Ledgers keeps one ledger per signed-in user. Idle or surplus ledgers
// are discarded, and the next request reloads them from the store.
type Ledgers struct {
	gw    Gateway
	cache *cache.LRUCache[*Ledger]
}

func NewLedgers(gw Gateway, size int, ttl time.Duration) *Ledgers {
	c := cache.NewLRUCache[*Ledger](size, ttl)
	c.OnEvict(func(_ string, l *Ledger) { l.Discard() })
	return &Ledgers{gw: gw, cache: c}
}

// For returns the user's ledger, creating an empty one when needed.
func (r *Ledgers) For(userID string) *Ledger {
	return r.cache.GetOrCreate(userID, func() *Ledger { return New(userID, r.gw) })
}

// Drop discards the user's ledger.
func (r *Ledgers) Drop(userID string) {
	r.cache.Delete(userID)
}

func (r *Ledgers) Size() int { return r.cache.Size() }

// Cleaner exposes the backing cache for periodic expiry sweeps.
func (r *Ledgers) Cleaner() cache.Cleaner { return r.cache }

// Watch drops a user's ledger as soon as they sign out.
func (r *Ledgers) Watch(s *auth.Sessions) (unsubscribe func()) {
	return s.Subscribe(func(evt auth.Event) {
		if evt.Kind == auth.SignedOut {
			r.Drop(evt.Session.UserID)
		}
	})
}
