package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"easybake/internal/domain"
)

func TestEmail(t *testing.T) {
	got, ok := Email("  sara@example.bh ")
	assert.True(t, ok)
	assert.Equal(t, "sara@example.bh", got)

	for _, bad := range []string{"", "sara", "sara@", "@example.com", "a@b.c"} {
		_, ok := Email(bad)
		assert.False(t, ok, bad)
	}
}

func TestQtyClamp(t *testing.T) {
	cases := map[string]int{"": 1, "x": 1, "0": 1, "-3": 1, "4": 4, " 7 ": 7, "100": MaxQty}
	for in, want := range cases {
		assert.Equal(t, want, Qty(in), in)
	}
}

func TestPasswordPolicy(t *testing.T) {
	assert.True(t, Password("Bakery2024"))
	assert.False(t, Password("short1A"))
	assert.False(t, Password("alllowercase1"))
	assert.False(t, Password("NoDigitsHere"))
	assert.False(t, Password(strings.Repeat("Aa1", 30)))
}

func TestPhone(t *testing.T) {
	for _, ok := range []string{"36001234", "+973 3600 1234", "973 36001234"} {
		_, valid := Phone(ok)
		assert.True(t, valid, ok)
	}
	_, valid := Phone("12345")
	assert.False(t, valid)
}

func TestQAcceptsArabic(t *testing.T) {
	got, ok := Q("  كعك ")
	assert.True(t, ok)
	assert.Equal(t, "كعك", got)

	_, ok = Q("<script>")
	assert.False(t, ok)
}

func TestRegistrationCollectsFieldErrors(t *testing.T) {
	in := domain.Registration{Name: " ", Email: "bad", Password: "Bakery2024", PasswordConfirmation: "Bakery2025"}
	errs := Registration(&in)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password_confirmation")
	assert.NotContains(t, errs, "password")
}

func TestAddressTrimsAndRequires(t *testing.T) {
	in := domain.AddressInput{RecipientName: " Sara ", Phone: "36001234", Area: "Seef", Street: " ", Building: "12"}
	errs := Address(&in)
	assert.Equal(t, "Sara", in.RecipientName)
	assert.Equal(t, []string{"This field is required."}, errs["street"])
	assert.Len(t, errs, 1)
}

func TestReviewRating(t *testing.T) {
	for _, r := range []int{0, 6} {
		errs := Review(&domain.NewReview{Rating: r, Comment: "lovely"})
		assert.Contains(t, errs, "rating")
	}
	assert.True(t, Review(&domain.NewReview{Rating: 5, Comment: "lovely"}).Empty())
}

func TestNotesLength(t *testing.T) {
	assert.True(t, Notes(strings.Repeat("ب", MaxNotes)))
	assert.False(t, Notes(strings.Repeat("a", MaxNotes+1)))
}
