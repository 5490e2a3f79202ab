package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybake/internal/domain"
)

type placer struct {
	got domain.PlaceOrder
	err error
}

func (p *placer) CreateOrder(_ context.Context, in domain.PlaceOrder) (domain.Order, error) {
	p.got = in
	if p.err != nil {
		return domain.Order{}, p.err
	}
	return domain.Order{ID: 1, OrderNumber: "EB-000001"}, nil
}

var (
	user = &domain.User{ID: 1, Name: "Noor"}
	cart = domain.Cart{Items: []domain.CartItem{
		{ID: 1, ProductID: 1, Quantity: 3, PriceSnapshot: decimal.RequireFromString("0.500")},
		{ID: 2, ProductID: 2, Quantity: 2, PriceSnapshot: decimal.RequireFromString("1.250")},
	}}
)

func begin(t *testing.T, addrs ...domain.Address) *Flow {
	t.Helper()
	f, err := Begin(user, cart, addrs)
	require.NoError(t, err)
	return f
}

func TestGuards(t *testing.T) {
	_, err := Begin(nil, cart, nil)
	var ge *GuardError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "/login?redirect=/checkout", ge.Location)

	_, err = Begin(user, domain.Cart{}, nil)
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "/cart", ge.Location)
}

func TestDefaultAddressSelection(t *testing.T) {
	f := begin(t, domain.Address{ID: 1}, domain.Address{ID: 2, IsDefault: true})
	assert.Equal(t, int64(2), *f.View().SavedAddressID)

	f = begin(t, domain.Address{ID: 1})
	assert.Equal(t, int64(1), *f.View().SavedAddressID)

	f = begin(t)
	assert.Nil(t, f.View().SavedAddressID)
	assert.ErrorIs(t, f.ConfirmAddress(), ErrNoAddress)
}

func TestSavedAndNewAddressAreExclusive(t *testing.T) {
	f := begin(t, domain.Address{ID: 1, IsDefault: true}, domain.Address{ID: 2})

	require.NoError(t, f.UseNewAddress(domain.AddressInput{RecipientName: "Noor"}))
	v := f.View()
	assert.Nil(t, v.SavedAddressID)
	require.NotNil(t, v.NewAddress)

	require.NoError(t, f.SelectSaved(2))
	v = f.View()
	assert.Nil(t, v.NewAddress)
	assert.Equal(t, int64(2), *v.SavedAddressID)

	assert.ErrorIs(t, f.SelectSaved(99), ErrUnknownAddress)
}

func TestNewAddressIsValidatedOnConfirm(t *testing.T) {
	f := begin(t)
	require.NoError(t, f.UseNewAddress(domain.AddressInput{RecipientName: "Noor", Phone: "bad"}))
	var ae *AddressError
	require.ErrorAs(t, f.ConfirmAddress(), &ae)
	assert.Contains(t, ae.Fields, "phone")
	assert.Contains(t, ae.Fields, "street")
	assert.Equal(t, StateSelectingAddress, f.State())
}

func TestPaymentAvailability(t *testing.T) {
	f := begin(t, domain.Address{ID: 1})
	assert.ErrorIs(t, f.SelectPayment(PaymentCashOnDelivery), ErrWrongStep)
	require.NoError(t, f.ConfirmAddress())

	assert.ErrorIs(t, f.SelectPayment(PaymentCard), ErrPaymentUnavailable)
	assert.ErrorIs(t, f.SelectPayment(PaymentBenefitPay), ErrPaymentUnavailable)
	assert.ErrorIs(t, f.SelectPayment("crypto"), ErrUnknownPayment)
	require.NoError(t, f.SelectPayment(PaymentCashOnDelivery))
	assert.Equal(t, StateReviewing, f.State())
}

func TestSummaryUsesSnapshotPrices(t *testing.T) {
	f, err := Begin(user, cart, nil, WithDeliveryFee(decimal.RequireFromString("1.000")))
	require.NoError(t, err)
	s := f.Summary()
	assert.Equal(t, "4.000", s.Subtotal.StringFixed(3))
	assert.Equal(t, "0.400", s.VAT.StringFixed(3))
	assert.Equal(t, "5.400", s.Total.StringFixed(3))
}

func TestSubmitFailureKeepsChoices(t *testing.T) {
	f := begin(t, domain.Address{ID: 4, IsDefault: true})
	require.NoError(t, f.ConfirmAddress())
	require.NoError(t, f.SelectPayment(PaymentCashOnDelivery))
	require.NoError(t, f.SetNotes("Ring twice"))

	boom := errors.New("backend down")
	_, err := f.Submit(context.Background(), &placer{err: boom})
	require.ErrorIs(t, err, boom)

	v := f.View()
	assert.Equal(t, StateReviewing, v.State)
	assert.Equal(t, "Ring twice", v.Notes)
	assert.ErrorIs(t, v.Err, boom)

	p := &placer{}
	o, err := f.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "EB-000001", o.OrderNumber)
	assert.Equal(t, int64(4), *p.got.AddressID)
	assert.Nil(t, p.got.ShippingAddress)
	assert.Equal(t, "Ring twice", p.got.Notes)

	v = f.View()
	assert.Equal(t, StateSucceeded, v.State)
	assert.Equal(t, "EB-000001", v.OrderNumber)
	assert.NoError(t, v.Err)
	assert.ErrorIs(t, f.SetNotes("late"), ErrWrongStep)
}

func TestSubmitWithNewAddress(t *testing.T) {
	f := begin(t)
	require.NoError(t, f.UseNewAddress(domain.AddressInput{
		RecipientName: "Noor", Phone: "36001234", Area: "Juffair", Street: "Road 4012", Building: "1204",
	}))
	require.NoError(t, f.ConfirmAddress())
	require.NoError(t, f.SelectPayment(PaymentCashOnDelivery))

	p := &placer{}
	_, err := f.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.Nil(t, p.got.AddressID)
	assert.Equal(t, "Juffair", p.got.ShippingAddress.Area)
}

func TestNotesLimit(t *testing.T) {
	f := begin(t)
	assert.ErrorIs(t, f.SetNotes(strings.Repeat("x", 501)), ErrNotesTooLong)
	assert.NoError(t, f.SetNotes(strings.Repeat("x", 500)))
}

func TestSubmitOutsideReview(t *testing.T) {
	f := begin(t, domain.Address{ID: 1})
	_, err := f.Submit(context.Background(), &placer{})
	assert.ErrorIs(t, err, ErrWrongStep)
}
