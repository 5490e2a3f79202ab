// Package storefront composes the sync layer for one browser session and
// keeps a registry of live sessions.
package storefront

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"easybake/internal/apiclient"
	"easybake/internal/cache"
	"easybake/internal/checkout"
	"easybake/internal/domain"
	"easybake/internal/mutations"
	"easybake/internal/notify"
	"easybake/internal/queries"
	"easybake/internal/uistate"
)

// Session is everything the storefront keeps for one browser.
type Session struct {
	ID string

	client  *apiclient.Client
	api     apiclient.API
	Store   *cache.Store
	Mut     *mutations.Mutations
	Notices *notify.Buffer
	UI      *uistate.Flags

	signedIn atomic.Bool
	authSeen atomic.Bool
	lastSeen atomic.Int64

	vat      decimal.Decimal
	delivery decimal.Decimal

	mu   sync.Mutex
	flow *checkout.Flow
}

// SetSignedIn records whether the backend session looks authenticated.
func (s *Session) SetSignedIn(v bool) {
	s.signedIn.Store(v)
	s.authSeen.Store(true)
}

func (s *Session) SignedIn() bool { return s.signedIn.Load() }

// AuthState reports the sign-in state and whether it was ever learned.
func (s *Session) AuthState() (signedIn, known bool) {
	return s.signedIn.Load(), s.authSeen.Load()
}

func (s *Session) API() apiclient.API { return s.api }

// HasCartToken reports whether the backend has issued a guest cart token.
func (s *Session) HasCartToken() bool {
	return s.client != nil && s.client.HasCookie(apiclient.CartTokenCookie)
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Notifier returns the session's notice sink.
func (s *Session) Notifier() notify.Notifier { return s.Notices }

// User runs the current-user query.
func (s *Session) User(ctx context.Context) queries.Result[*domain.User] {
	return queries.Run(ctx, s.Store, s.Notices, queries.CurrentUser(s.api, s))
}

// Cart runs the cart query.
func (s *Session) Cart(ctx context.Context) queries.Result[domain.Cart] {
	return queries.Run(ctx, s.Store, s.Notices, queries.Cart(s.api))
}

// BeginCheckout starts a fresh checkout from the current user, cart and
// saved addresses. Guard failures come back as *checkout.GuardError.
func (s *Session) BeginCheckout(ctx context.Context) (*checkout.Flow, error) {
	user := s.User(ctx)
	if user.Err != nil {
		return nil, user.Err
	}
	if user.Data == nil {
		return nil, &checkout.GuardError{Location: checkout.LoginLocation, Reason: "sign in required"}
	}
	cart := s.Cart(ctx)
	if cart.Err != nil {
		return nil, cart.Err
	}
	if cart.Data.Empty() {
		return nil, &checkout.GuardError{Location: checkout.CartLocation, Reason: "cart is empty"}
	}
	addrs := queries.Run(ctx, s.Store, s.Notices, queries.Addresses(s.api))
	if addrs.Err != nil {
		return nil, addrs.Err
	}
	f, err := checkout.Begin(user.Data, cart.Data, addrs.Data,
		checkout.WithVATRate(s.vat), checkout.WithDeliveryFee(s.delivery))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.flow = f
	s.mu.Unlock()
	return f, nil
}

// Checkout returns the checkout in progress, if any.
func (s *Session) Checkout() (*checkout.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow, s.flow != nil
}

func (s *Session) EndCheckout() {
	s.mu.Lock()
	s.flow = nil
	s.mu.Unlock()
}
