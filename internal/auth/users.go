package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// ErrDirectoryUnavailable wraps failures of the remote demo-user API.
var ErrDirectoryUnavailable = errors.New("user directory unavailable")

// User is a remote demo account. Passwords are never decoded.
type User struct {
	ID       int      `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Name     UserName `json:"name"`
	Phone    string   `json:"phone"`
	Address  Address  `json:"address"`
}

type UserName struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func (a Address) toSession() *Address {
	if a == (Address{}) {
		return nil
	}
	return &a
}

// Users lists the remote demo accounts.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("%w: no remote configured", ErrDirectoryUnavailable)
	}
	var users []User
	if err := s.remote.GetJSON(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// UpdateProfile replaces the phone and address of the signed-in user.
// Remote demo sessions are echoed through the remote API first; every other
// session is updated locally only.
func (s *Service) UpdateProfile(ctx context.Context, form ProfileForm) (Session, error) {
	if err := form.Validate(); err != nil {
		return Session{}, err
	}
	cur, ok := s.Current()
	if !ok {
		return Session{}, ErrNotSignedIn
	}

	next := cur
	next.Phone = form.Phone
	next.Address = nil
	if form.Address != nil {
		next.Address = form.Address.address().toSession()
	}

	if cur.Mode == ModeFakeStore && s.remote != nil {
		id, err := strconv.Atoi(cur.UserID)
		if err != nil {
			return Session{}, fmt.Errorf("%w: user id %q", ErrDirectoryUnavailable, cur.UserID)
		}
		var echoed User
		err = s.remote.PutJSON(ctx, "/users/"+cur.UserID, User{
			ID:      id,
			Email:   cur.Email,
			Name:    UserName{Firstname: cur.FirstName, Lastname: cur.LastName},
			Phone:   next.Phone,
			Address: form.Address.address(),
		}, &echoed)
		if err != nil {
			return Session{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
		}
	}

	s.mu.Lock()
	if s.session == nil || s.session.UserID != cur.UserID {
		s.mu.Unlock()
		return Session{}, ErrNotSignedIn
	}
	s.session = &next
	s.saveMu.Lock()
	s.mu.Unlock()

	err := s.persist(ctx, &next)
	s.saveMu.Unlock()
	if err != nil {
		s.log.Warn("session save failed", zap.Error(err))
	}
	s.hub.Publish("profile")
	s.log.Info("profile updated", zap.String("user_id", next.UserID), zap.String("mode", string(next.Mode)))
	return next, nil
}
