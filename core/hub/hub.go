// Package hub hands out the session/cart store pair for the calling
// browser session. Each pair is a singleton per session: the session
// store is built first, the cart store wired to it with a read-only
// reference, exactly one pair per hub key.
package hub

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/buywell/storefront/core/cart"
	"github.com/buywell/storefront/core/session"
	"github.com/buywell/storefront/random"
	"github.com/sirupsen/logrus"
)

// hubKey is where the hub key lives inside the scs session data.
const hubKey = "hub"

// Remote is everything the stores need from the upstream API; the
// shopapi client satisfies it.
type Remote interface {
	session.Remote
	cart.Remote
}

type Hub struct {
	remote  Remote
	sm      *scs.SessionManager
	log     logrus.FieldLogger
	dataDir string
	expiry  time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	session    *session.Store
	cart       *cart.Store
	lastAccess time.Time
}

func New(remote Remote, sm *scs.SessionManager, log logrus.FieldLogger, dataDir string, expiry time.Duration) *Hub {
	h := &Hub{
		remote:  remote,
		sm:      sm,
		log:     log,
		dataDir: dataDir,
		expiry:  expiry,
		entries: make(map[string]*entry),
	}
	go h.sweep()
	return h
}

// Session returns the session store for the calling browser session.
func (h *Hub) Session(ctx context.Context) *session.Store {
	return h.get(ctx).session
}

// Cart returns the cart store for the calling browser session.
func (h *Hub) Cart(ctx context.Context) *cart.Store {
	return h.get(ctx).cart
}

func (h *Hub) get(ctx context.Context) *entry {
	key := h.sm.GetString(ctx, hubKey)
	if key == "" {
		k, err := random.StringSecure(24)
		if err != nil {
			h.log.WithField("error", err).Warn("secure hub key unavailable")
			k = random.String(24)
		}
		key = k
		h.sm.Put(ctx, hubKey, key)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.entries[key]; ok {
		e.lastAccess = time.Now()
		return e
	}

	keeper := session.NewFileKeeper(filepath.Join(h.dataDir, key+".json"))
	sess := session.New(h.remote, keeper, h.log)
	crt := cart.New(h.remote, sess, h.log)

	sess.Watch(func(ctx context.Context, id *session.Identity) {
		if id == nil {
			crt.Reset()
			return
		}
		crt.Load(ctx)
	})

	// Restore ran before the watcher was wired; load the cart for a
	// persisted identity by hand.
	if _, ok := sess.Current(); ok {
		crt.Load(ctx)
	}

	e := &entry{
		session:    sess,
		cart:       crt,
		lastAccess: time.Now(),
	}
	h.entries[key] = e
	return e
}

// sweep drops store pairs idle past the expiry. The identity file
// stays behind so a returning session restores cleanly.
func (h *Hub) sweep() {
	for {
		time.Sleep(time.Minute)

		h.mu.Lock()
		for key, e := range h.entries {
			if time.Since(e.lastAccess) > h.expiry {
				delete(h.entries, key)
			}
		}
		h.mu.Unlock()
	}
}
