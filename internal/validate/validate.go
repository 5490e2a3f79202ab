package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"easybake/internal/domain"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	// Bahraini numbers with optional +973, spaces allowed between groups.
	rePhone = regexp.MustCompile(`^(\+?973)?[ ]?[0-9]{4}[ ]?[0-9]{4}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'\-]{1,50}$`)
	reSlug  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

const (
	MaxQty    = 99
	MaxNotes  = 500
	MaxName   = 100
	MinRating = 1
	MaxRating = 5
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 255 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if utf8.RuneCountInString(s) > 50 {
		s = string([]rune(s)[:50])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a quantity and clamps it to [1, MaxQty].
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return ClampQty(n)
}

func ClampQty(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQty {
		return MaxQty
	}
	return n
}

// Slug validates a category slug or numeric id.
func Slug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSlug.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxName {
		return "", false
	}
	return s, true
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && rePhone.MatchString(s)
}

// Password enforces length and character-class rules for new passwords.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 72 {
		return false
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

func Rating(n int) bool { return n >= MinRating && n <= MaxRating }

func Notes(s string) bool { return utf8.RuneCountInString(s) <= MaxNotes }

// Errors collects messages per field, in the backend's 422 shape.
type Errors map[string][]string

func (e Errors) Add(field, msg string) { e[field] = append(e[field], msg) }

func (e Errors) Empty() bool { return len(e) == 0 }

func Credentials(in *domain.Credentials) Errors {
	errs := Errors{}
	email, ok := Email(in.Email)
	if !ok {
		errs.Add("email", "Please enter a valid email address.")
	}
	in.Email = email
	if in.Password == "" {
		errs.Add("password", "Please enter your password.")
	}
	return errs
}

func Registration(in *domain.Registration) Errors {
	errs := Errors{}
	if name, ok := Name(in.Name); ok {
		in.Name = name
	} else {
		errs.Add("name", "Please enter your name.")
	}
	if email, ok := Email(in.Email); ok {
		in.Email = email
	} else {
		errs.Add("email", "Please enter a valid email address.")
	}
	if in.Phone != "" {
		if phone, ok := Phone(in.Phone); ok {
			in.Phone = phone
		} else {
			errs.Add("phone", "Please enter a valid phone number.")
		}
	}
	newPassword(errs, in.Password, in.PasswordConfirmation)
	return errs
}

func PasswordChange(in domain.PasswordChange) Errors {
	errs := Errors{}
	if in.CurrentPassword == "" {
		errs.Add("current_password", "Please enter your current password.")
	}
	newPassword(errs, in.Password, in.PasswordConfirmation)
	return errs
}

func newPassword(errs Errors, pw, confirm string) {
	if !Password(pw) {
		errs.Add("password", "Password must be 8 to 72 characters with upper and lower case letters and a digit.")
	}
	if pw != confirm {
		errs.Add("password_confirmation", "Passwords do not match.")
	}
}

func Address(in *domain.AddressInput) Errors {
	errs := Errors{}
	required := map[string]*string{
		"recipient_name": &in.RecipientName,
		"area":           &in.Area,
		"street":         &in.Street,
		"building":       &in.Building,
	}
	for field, v := range required {
		*v = strings.TrimSpace(*v)
		if *v == "" {
			errs.Add(field, "This field is required.")
		}
	}
	if phone, ok := Phone(in.Phone); ok {
		in.Phone = phone
	} else {
		errs.Add("phone", "Please enter a valid phone number.")
	}
	if !Notes(in.Notes) {
		errs.Add("notes", "Notes may not exceed 500 characters.")
	}
	return errs
}

func Review(in *domain.NewReview) Errors {
	errs := Errors{}
	if !Rating(in.Rating) {
		errs.Add("rating", "Rating must be between 1 and 5.")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if in.Comment == "" {
		errs.Add("comment", "Please write a comment.")
	} else if utf8.RuneCountInString(in.Comment) > 2000 {
		errs.Add("comment", "Comment may not exceed 2000 characters.")
	}
	return errs
}
