// Package queries declares every cached read of backend data: its key,
// fetcher and freshness policy.
package queries

import (
	"context"
	"errors"
	"time"

	"easybake/internal/apiclient"
	"easybake/internal/cache"
	"easybake/internal/domain"
	applog "easybake/internal/log"
	"easybake/internal/notify"
)

// Def is one cached query.
type Def[T any] struct {
	Key   cache.Key
	Fetch func(context.Context) (T, error)
	cache.Options
	// Silent suppresses the user notification for an error.
	Silent func(error) bool
}

// Result is what a view gets back from a query. Data holds the last good
// value even when Status is StatusError.
type Result[T any] struct {
	Data   T
	Status cache.Status
	Err    error
	Stale  bool
}

func (r Result[T]) OK() bool { return r.Status == cache.StatusSuccess }

// Run serves d from s, fetching when the cached value is not fresh.
// Failures are reported to n unless silent or the caller gave up.
func Run[T any](ctx context.Context, s *cache.Store, n notify.Notifier, d Def[T]) Result[T] {
	v, err := cache.Fetch(ctx, s, d.Key, d.Options, d.Fetch)
	if err == nil {
		snap := s.Peek(d.Key)
		return Result[T]{Data: v, Status: cache.StatusSuccess, Stale: snap.Stale}
	}

	res := Result[T]{Status: cache.StatusError, Err: err}
	snap := s.Peek(d.Key)
	if last, ok := snap.Value.(T); ok && snap.HasValue {
		res.Data = last
		res.Stale = true
	}
	if canceled(ctx, err) {
		return res
	}
	if d.Silent != nil && d.Silent(err) {
		return res
	}
	ae := apiclient.As(err)
	applog.Debug().Str("key", d.Key.String()).Str("kind", ae.Kind.String()).Int("status", ae.Status).Msg("query failed")
	if n != nil {
		n.Notify(notify.Notice{Level: notify.LevelError, Message: ae.Display(), Fields: ae.Fields})
	}
	return res
}

func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || apiclient.IsKind(err, apiclient.KindCanceled)
}

// Presence is the advisory "probably signed in" flag mirrored in the
// easybake_auth cookie.
type Presence interface {
	SetSignedIn(bool)
}

const (
	minute = time.Minute
	hour   = time.Hour
)

func Cart(api apiclient.API) Def[domain.Cart] {
	return Def[domain.Cart]{
		Key:     CartKey,
		Fetch:   api.Cart,
		Options: cache.Options{Fresh: 0, Retain: 5 * minute},
	}
}

// CurrentUser resolves to nil for guests. A 401 is not an error here: it
// clears the presence flag and is never shown to the user.
func CurrentUser(api apiclient.API, p Presence) Def[*domain.User] {
	return Def[*domain.User]{
		Key: UserKey,
		Fetch: func(ctx context.Context) (*domain.User, error) {
			u, err := api.CurrentUser(ctx)
			if apiclient.IsKind(err, apiclient.KindUnauthorized) {
				if p != nil {
					p.SetSignedIn(false)
				}
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			if p != nil {
				p.SetSignedIn(true)
			}
			return &u, nil
		},
		Options: cache.Options{Fresh: 5 * minute, Retain: 10 * minute},
		Silent:  func(err error) bool { return apiclient.IsKind(err, apiclient.KindUnauthorized) },
	}
}

func Orders(api apiclient.API, page int) Def[domain.Page[domain.Order]] {
	page = max(page, 1)
	return Def[domain.Page[domain.Order]]{
		Key:     OrdersPageKey(page),
		Fetch:   func(ctx context.Context) (domain.Page[domain.Order], error) { return api.Orders(ctx, page) },
		Options: cache.Options{Fresh: 5 * minute, Retain: 10 * minute},
	}
}

func Order(api apiclient.API, id int64) Def[domain.Order] {
	return Def[domain.Order]{
		Key:     OrderKey(id),
		Fetch:   func(ctx context.Context) (domain.Order, error) { return api.Order(ctx, id) },
		Options: cache.Options{Fresh: 5 * minute, Retain: 10 * minute},
	}
}

func Addresses(api apiclient.API) Def[[]domain.Address] {
	return Def[[]domain.Address]{
		Key:     AddressesKey,
		Fetch:   api.Addresses,
		Options: cache.Options{Fresh: 10 * minute, Retain: 30 * minute},
	}
}

func Wishlist(api apiclient.API) Def[[]domain.WishlistItem] {
	return Def[[]domain.WishlistItem]{
		Key:     WishlistKey,
		Fetch:   api.Wishlist,
		Options: cache.Options{Fresh: 5 * minute, Retain: 10 * minute},
	}
}

// localized pins the fetch to locale regardless of the caller's context so
// the cached payload always matches its key.
func localized[T any](locale string, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return fn(apiclient.WithLocale(ctx, locale))
	}
}

func Products(api apiclient.API, locale string, q domain.ProductQuery) Def[domain.Page[domain.Product]] {
	locale = apiclient.NormalizeLocale(locale)
	return Def[domain.Page[domain.Product]]{
		Key: ProductListKey(locale, q),
		Fetch: localized(locale, func(ctx context.Context) (domain.Page[domain.Product], error) {
			return api.Products(ctx, q)
		}),
		Options: cache.Options{Fresh: 30 * minute, Retain: hour, Shared: true},
	}
}

func Product(api apiclient.API, locale string, id int64) Def[domain.Product] {
	locale = apiclient.NormalizeLocale(locale)
	return Def[domain.Product]{
		Key: ProductKey(locale, id),
		Fetch: localized(locale, func(ctx context.Context) (domain.Product, error) {
			return api.Product(ctx, id)
		}),
		Options: cache.Options{Fresh: 30 * minute, Retain: hour, Shared: true},
	}
}

func Featured(api apiclient.API, locale string) Def[[]domain.Product] {
	locale = apiclient.NormalizeLocale(locale)
	return Def[[]domain.Product]{
		Key:     FeaturedKey(locale),
		Fetch:   localized(locale, api.FeaturedProducts),
		Options: cache.Options{Fresh: hour, Retain: 2 * hour, Shared: true},
	}
}

func Popular(api apiclient.API, locale string) Def[[]domain.Product] {
	locale = apiclient.NormalizeLocale(locale)
	return Def[[]domain.Product]{
		Key:     PopularKey(locale),
		Fetch:   localized(locale, api.PopularProducts),
		Options: cache.Options{Fresh: 45 * minute, Retain: 2 * hour, Shared: true},
	}
}

func Categories(api apiclient.API, locale string) Def[[]domain.Category] {
	locale = apiclient.NormalizeLocale(locale)
	return Def[[]domain.Category]{
		Key:     CategoriesKey(locale),
		Fetch:   localized(locale, api.Categories),
		Options: cache.Options{Fresh: hour, Retain: 2 * hour, Shared: true},
	}
}

func Category(api apiclient.API, locale, idOrSlug string) Def[domain.Category] {
	locale = apiclient.NormalizeLocale(locale)
	return Def[domain.Category]{
		Key: CategoryDetailKey(locale, idOrSlug),
		Fetch: localized(locale, func(ctx context.Context) (domain.Category, error) {
			return api.Category(ctx, idOrSlug)
		}),
		Options: cache.Options{Fresh: hour, Retain: 2 * hour, Shared: true},
	}
}

func Reviews(api apiclient.API, locale string, productID int64, page int) Def[domain.Page[domain.Review]] {
	locale = apiclient.NormalizeLocale(locale)
	page = max(page, 1)
	return Def[domain.Page[domain.Review]]{
		Key: ReviewsPageKey(productID, locale, page),
		Fetch: localized(locale, func(ctx context.Context) (domain.Page[domain.Review], error) {
			return api.ProductReviews(ctx, productID, page)
		}),
		Options: cache.Options{Fresh: 10 * minute, Retain: 30 * minute},
	}
}
