// Package mutations performs every state-changing backend call and keeps the
// query cache consistent with it.
//
// Each mutation follows the same sequence: optional optimistic write, network
// call, commit of the server's answer or rollback of the optimistic write,
// then invalidation of the dependent queries, which runs whatever the
// outcome.
package mutations

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"easybake/internal/apiclient"
	"easybake/internal/cache"
	applog "easybake/internal/log"
	"easybake/internal/notify"
	"easybake/internal/pricing"
	"easybake/internal/queries"
	"easybake/internal/validate"
)

type Mutations struct {
	api      apiclient.API
	store    *cache.Store
	notify   notify.Notifier
	presence queries.Presence

	vatRate     decimal.Decimal
	onCartAdded func()
}

type Option func(*Mutations)

func WithVATRate(r decimal.Decimal) Option { return func(m *Mutations) { m.vatRate = r } }

// WithCartAddedHook runs fn after an add-to-cart succeeds.
func WithCartAddedHook(fn func()) Option { return func(m *Mutations) { m.onCartAdded = fn } }

func New(api apiclient.API, store *cache.Store, n notify.Notifier, p queries.Presence, opts ...Option) *Mutations {
	if n == nil {
		n = notify.Discard
	}
	m := &Mutations{api: api, store: store, notify: n, presence: p, vatRate: pricing.DefaultVATRate}
	for _, o := range opts {
		o(m)
	}
	return m
}

// call runs fn, reports a failure and invalidates keys in every case.
func call[T any](ctx context.Context, m *Mutations, name string, fn func(context.Context) (T, error), keys ...cache.Key) (T, error) {
	v, err := fn(ctx)
	for _, k := range keys {
		m.store.Invalidate(k)
	}
	if err != nil {
		m.fail(ctx, name, err)
	}
	return v, err
}

// fail reports err to the user unless the caller went away.
func (m *Mutations) fail(ctx context.Context, name string, err error) {
	ae := apiclient.As(err)
	applog.Debug().Str("mutation", name).Str("kind", ae.Kind.String()).Int("status", ae.Status).Msg("mutation failed")
	if ctx.Err() != nil || ae.Kind == apiclient.KindCanceled {
		return
	}
	m.notify.Notify(notify.Notice{Level: notify.LevelError, Message: ae.Display(), Fields: ae.Fields})
}

func (m *Mutations) success(msg string) {
	m.notify.Notify(notify.Notice{Level: notify.LevelSuccess, Message: msg})
}

// invalid turns pre-validation failures into a 422-shaped error and reports
// it. It returns nil when errs is empty.
func (m *Mutations) invalid(ctx context.Context, name string, errs validate.Errors) error {
	if errs.Empty() {
		return nil
	}
	err := apiclient.Validation(errs)
	m.fail(ctx, name, err)
	return err
}

func (m *Mutations) signedIn(v bool) {
	if m.presence != nil {
		m.presence.SetSignedIn(v)
	}
}

// ErrPendingLine is returned for edits of a cart line the server has not
// confirmed yet.
var ErrPendingLine = errors.New("mutations: cart line is still being saved")
