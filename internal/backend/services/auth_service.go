package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"easybake/internal/backend/repos"
	"easybake/internal/domain"
	"easybake/internal/validate"
)

const msgBadCredentials = "These credentials do not match our records."

type AuthService struct {
	Users *repos.UserRepo
	Carts *repos.CartRepo
	// Cost is the bcrypt cost for new hashes. Zero means bcrypt.DefaultCost.
	Cost int
}

func NewAuthService(users *repos.UserRepo, carts *repos.CartRepo) *AuthService {
	return &AuthService{Users: users, Carts: carts}
}

func (s *AuthService) hash(pw string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(h), err
}

// Login checks the credentials, binds the user to the session and moves the
// guest cart, if any, into the user's cart.
func (s *AuthService) Login(sid, cartToken string, in domain.Credentials) (domain.User, error) {
	if err := invalid(validate.Credentials(&in)); err != nil {
		return domain.User{}, err
	}
	u, err := s.Users.ByEmail(in.Email)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return domain.User{}, fieldError("email", msgBadCredentials)
		}
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(in.Password)) != nil {
		return domain.User{}, fieldError("email", msgBadCredentials)
	}
	return s.signIn(sid, cartToken, u)
}

func (s *AuthService) Register(sid, cartToken, locale string, in domain.Registration) (domain.User, error) {
	if err := invalid(validate.Registration(&in)); err != nil {
		return domain.User{}, err
	}
	h, err := s.hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.Users.Create(in.Name, in.Email, in.Phone, locale, h)
	if errors.Is(err, repos.ErrDuplicate) {
		return domain.User{}, fieldError("email", "The email has already been taken.")
	}
	if err != nil {
		return domain.User{}, err
	}
	return s.signIn(sid, cartToken, u)
}

func (s *AuthService) signIn(sid, cartToken string, u *repos.UserRow) (domain.User, error) {
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return domain.User{}, err
	}
	if err := s.Carts.MergeGuest(cartToken, u.ID, validate.MaxQty); err != nil {
		return domain.User{}, err
	}
	return u.User(), nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

// Current returns the session's user or ErrUnauthenticated.
func (s *AuthService) Current(sid string) (domain.User, error) {
	if sid == "" {
		return domain.User{}, ErrUnauthenticated
	}
	u, err := s.Users.SessionUser(sid)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.User{}, ErrUnauthenticated
	}
	if err != nil {
		return domain.User{}, err
	}
	return u.User(), nil
}

func (s *AuthService) ChangePassword(userID int64, in domain.PasswordChange) error {
	if err := invalid(validate.PasswordChange(in)); err != nil {
		return err
	}
	u, err := s.Users.ByID(userID)
	if err != nil {
		return mapRepo(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(in.CurrentPassword)) != nil {
		return fieldError("current_password", "The current password is incorrect.")
	}
	h, err := s.hash(in.Password)
	if err != nil {
		return err
	}
	return s.Users.SetPassword(userID, h)
}
