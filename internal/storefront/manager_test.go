package storefront

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybake/internal/apiclient/apitest"
	"easybake/internal/checkout"
	"easybake/internal/domain"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newManager(api *apitest.Fake, clk *clock) *Manager {
	return NewManager(Config{IdleTTL: time.Hour}, WithAPI(api), WithClock(clk.now))
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newManager(apitest.New(), &clock{t: time.Now()})
	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	a.UI.OpenCart()
	assert.False(t, b.UI.Snapshot().CartOpen)

	got, ok := m.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	clk := &clock{t: time.Now()}
	m := newManager(apitest.New(), clk)
	idle, _ := m.Create()
	active, _ := m.Create()

	clk.advance(50 * time.Minute)
	_, ok := m.Get(active.ID)
	require.True(t, ok)
	clk.advance(20 * time.Minute)

	evicted, _ := m.Sweep()
	assert.Equal(t, 1, evicted)
	_, ok = m.Get(idle.ID)
	assert.False(t, ok)
	_, ok = m.Get(active.ID)
	assert.True(t, ok)
}

func TestAddToCartOpensSessionDrawer(t *testing.T) {
	api := apitest.New()
	api.Seed(1, "Bread", "0.200")
	m := newManager(api, &clock{t: time.Now()})
	s, _ := m.Create()

	_, err := s.Mut.AddToCart(context.Background(), domain.AddCartItem{ProductID: 1, Quantity: 1}, nil)
	require.NoError(t, err)
	assert.True(t, s.UI.Snapshot().CartOpen)
}

func TestBeginCheckoutGuards(t *testing.T) {
	api := apitest.New()
	api.Seed(1, "Bread", "0.200")
	m := newManager(api, &clock{t: time.Now()})
	s, _ := m.Create()
	ctx := context.Background()

	_, err := s.BeginCheckout(ctx)
	var ge *checkout.GuardError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, checkout.LoginLocation, ge.Location)
	assert.False(t, s.SignedIn())
	assert.Zero(t, s.Notices.Len())

	_, err = s.Mut.Login(ctx, domain.Credentials{Email: "noor@example.bh", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, s.SignedIn())

	_, err = s.BeginCheckout(ctx)
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, checkout.CartLocation, ge.Location)

	_, err = s.Mut.AddToCart(ctx, domain.AddCartItem{ProductID: 1, Quantity: 2}, nil)
	require.NoError(t, err)
	api.AddAddress(domain.Address{ID: 3, IsDefault: true})

	f, err := s.BeginCheckout(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), *f.View().SavedAddressID)
	got, ok := s.Checkout()
	require.True(t, ok)
	assert.Same(t, f, got)
}
