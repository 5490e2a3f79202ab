package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"easybake/internal/apiclient"
	"easybake/internal/cache"
	applog "easybake/internal/log"
	"easybake/internal/mutations"
	"easybake/internal/notify"
	"easybake/internal/uistate"
)

type Config struct {
	Client      apiclient.Config
	VATRate     decimal.Decimal
	DeliveryFee decimal.Decimal
	// IdleTTL evicts sessions that made no request for this long.
	IdleTTL time.Duration
}

// Manager owns every live Session.
type Manager struct {
	cfg     Config
	l2      cache.Backend
	now     func() time.Time
	copts   []apiclient.Option
	factory func() (apiclient.API, *apiclient.Client, error)

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Manager)

// WithBackend shares public catalog queries through b.
func WithBackend(b cache.Backend) Option { return func(m *Manager) { m.l2 = b } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithClientOptions is passed to every session's apiclient.
func WithClientOptions(opts ...apiclient.Option) Option {
	return func(m *Manager) { m.copts = append(m.copts, opts...) }
}

// WithAPI makes every session talk to api instead of a real client.
func WithAPI(api apiclient.API) Option {
	return func(m *Manager) {
		m.factory = func() (apiclient.API, *apiclient.Client, error) { return api, nil, nil }
	}
}

func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	if cfg.VATRate.IsZero() {
		cfg.VATRate = decimal.RequireFromString("0.10")
	}
	m := &Manager{cfg: cfg, now: time.Now, sessions: map[string]*Session{}}
	for _, o := range opts {
		o(m)
	}
	if m.factory == nil {
		m.factory = func() (apiclient.API, *apiclient.Client, error) {
			c, err := apiclient.New(m.cfg.Client, m.copts...)
			return c, c, err
		}
	}
	return m
}

// Get returns the live session id and marks it used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// Create starts a new session with its own backend client and cache.
func (m *Manager) Create() (*Session, error) {
	api, client, err := m.factory()
	if err != nil {
		return nil, err
	}
	storeOpts := []cache.StoreOption{cache.WithClock(m.now)}
	if m.l2 != nil {
		storeOpts = append(storeOpts, cache.WithBackend(m.l2))
	}
	s := &Session{
		ID:       uuid.NewString(),
		client:   client,
		api:      api,
		Store:    cache.New(storeOpts...),
		Notices:  &notify.Buffer{},
		UI:       &uistate.Flags{},
		vat:      m.cfg.VATRate,
		delivery: m.cfg.DeliveryFee,
	}
	s.Mut = mutations.New(api, s.Store, s.Notices, s,
		mutations.WithVATRate(m.cfg.VATRate),
		mutations.WithCartAddedHook(s.UI.OpenCart),
	)
	s.touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Sweep drops idle sessions and evicts expired cache entries of the rest.
func (m *Manager) Sweep() (sessions, entries int) {
	now := m.now()
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s.idleSince(now) >= m.cfg.IdleTTL {
			delete(m.sessions, id)
			sessions++
			continue
		}
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		entries += s.Store.Sweep()
	}
	if sessions > 0 || entries > 0 {
		applog.Debug().Int("sessions", sessions).Int("entries", entries).Msg("storefront: sweep")
	}
	return sessions, entries
}

// Run sweeps every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
