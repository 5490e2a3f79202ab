package mutations

import (
	"context"

	"easybake/internal/apiclient"
	"easybake/internal/domain"
	"easybake/internal/queries"
	"easybake/internal/validate"
)

// Login signs the customer in. The guest cart is merged by the backend, so
// the cached cart is refetched.
func (m *Mutations) Login(ctx context.Context, in domain.Credentials) (domain.User, error) {
	if err := m.invalid(ctx, "auth.login", validate.Credentials(&in)); err != nil {
		return domain.User{}, err
	}
	return m.authenticate(ctx, "auth.login", func(ctx context.Context) (domain.User, error) {
		return m.api.Login(ctx, in)
	})
}

func (m *Mutations) Register(ctx context.Context, in domain.Registration) (domain.User, error) {
	if err := m.invalid(ctx, "auth.register", validate.Registration(&in)); err != nil {
		return domain.User{}, err
	}
	return m.authenticate(ctx, "auth.register", func(ctx context.Context) (domain.User, error) {
		return m.api.Register(ctx, in)
	})
}

// authenticate runs a login or registration call. A 401 only means the
// visitor is still a guest and is returned without a notice.
func (m *Mutations) authenticate(ctx context.Context, name string, fn func(context.Context) (domain.User, error)) (domain.User, error) {
	u, err := fn(ctx)
	m.store.Invalidate(queries.UserKey)
	m.store.Invalidate(queries.CartKey)
	if err != nil {
		if !apiclient.IsKind(err, apiclient.KindUnauthorized) {
			m.fail(ctx, name, err)
		}
		return u, err
	}
	m.signedIn(true)
	m.store.Set(queries.UserKey, &u)
	return u, nil
}

// Logout ends the session. An already expired session counts as logged out.
// Private data of the previous user is dropped from the cache, not just
// marked stale.
func (m *Mutations) Logout(ctx context.Context) error {
	err := m.api.Logout(ctx)
	if err != nil && !apiclient.IsKind(err, apiclient.KindUnauthorized) {
		m.store.Invalidate(queries.UserKey)
		m.fail(ctx, "auth.logout", err)
		return err
	}
	m.signedIn(false)
	m.store.Remove(queries.OrdersKey)
	m.store.Remove(queries.AddressesKey)
	m.store.Remove(queries.WishlistKey)
	m.store.Remove(queries.CartKey)
	m.store.Set(queries.UserKey, (*domain.User)(nil))
	return nil
}

func (m *Mutations) ChangePassword(ctx context.Context, in domain.PasswordChange) error {
	if err := m.invalid(ctx, "auth.password", validate.PasswordChange(in)); err != nil {
		return err
	}
	_, err := call(ctx, m, "auth.password", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.api.ChangePassword(ctx, in)
	})
	if err == nil {
		m.success("Your password has been changed.")
	}
	return err
}

func (m *Mutations) CreateAddress(ctx context.Context, in domain.AddressInput) (domain.Address, error) {
	if err := m.invalid(ctx, "address.create", validate.Address(&in)); err != nil {
		return domain.Address{}, err
	}
	return call(ctx, m, "address.create", func(ctx context.Context) (domain.Address, error) {
		return m.api.CreateAddress(ctx, in)
	}, queries.AddressesKey)
}

func (m *Mutations) SetDefaultAddress(ctx context.Context, id int64) (domain.Address, error) {
	return call(ctx, m, "address.default", func(ctx context.Context) (domain.Address, error) {
		return m.api.SetDefaultAddress(ctx, id)
	}, queries.AddressesKey)
}

func (m *Mutations) DeleteAddress(ctx context.Context, id int64) error {
	_, err := call(ctx, m, "address.delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.api.DeleteAddress(ctx, id)
	}, queries.AddressesKey)
	return err
}

func (m *Mutations) ToggleWishlist(ctx context.Context, productID int64) (domain.WishlistToggle, error) {
	return call(ctx, m, "wishlist.toggle", func(ctx context.Context) (domain.WishlistToggle, error) {
		return m.api.ToggleWishlist(ctx, productID)
	}, queries.WishlistKey)
}
