package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"coffeehub/internal/domain"
	"coffeehub/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users     *repos.UserRepo
	Reconcile *ReconcileService
}

// Login authenticates and binds the session, then runs cart
// reconciliation. The returned flag tells the caller to route the user
// through the explicit cart choice.
func (s *AuthService) Login(sid, email, password string) (*domain.User, bool, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, false, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, false, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, false, err
	}
	pending, err := s.Reconcile.OnLogin(sid, u.ID)
	if err != nil {
		return nil, false, err
	}
	return u, pending, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
