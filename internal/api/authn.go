package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"GlobalStore/internal/auth"
	"GlobalStore/pkg/kit"
)

type ctxKey string

const sessionKey ctxKey = "session"

func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	v, ok := ctx.Value(sessionKey).(auth.Session)
	return v, ok
}

// RequireSession rejects requests while nobody is signed in. A bearer token,
// when sent, must be the current session's.
func RequireSession(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := svc.Current()
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, auth.ErrNotSignedIn.Error(), nil)
				return
			}
			if authz := r.Header.Get("Authorization"); authz != "" {
				tok, found := strings.CutPrefix(authz, "Bearer ")
				if !found || subtle.ConstantTimeCompare([]byte(tok), []byte(sess.Token)) != 1 {
					kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
					return
				}
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type sessionView struct {
	auth.Session
	FullName string `json:"fullName"`
	Initials string `json:"initials"`
}

func newSessionView(s auth.Session) sessionView {
	return sessionView{Session: s, FullName: s.FullName(), Initials: s.Initials()}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var form auth.LoginForm
	if err := kit.DecodeJSON(w, r, &form); err != nil {
		badJSON(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	sess, err := s.App.Auth.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var form auth.RegisterForm
	if err := kit.DecodeJSON(w, r, &form); err != nil {
		badJSON(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	sess, err := s.App.Auth.Register(r.Context(), form.Email, form.Password, form.FirstName, form.LastName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) mockLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.App.Auth.MockLogin(r.Context())
	if err != nil {
		s.Log.Warn("mock login failed", zap.Error(err))
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.App.Auth.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		s.fail(w, r, auth.ErrNotSignedIn)
		return
	}
	kit.WriteJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var form auth.ProfileForm
	if err := kit.DecodeJSON(w, r, &form); err != nil {
		badJSON(w, r, err)
		return
	}

	sess, err := s.App.Auth.UpdateProfile(r.Context(), form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, newSessionView(sess))
}

// usersResponse is labelled demo: the directory is the public demo API.
type usersResponse struct {
	Demo  bool        `json:"demo"`
	Users []auth.User `json:"users"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.App.Auth.Users(r.Context())
	if err != nil {
		s.Log.Warn("user directory failed", zap.Error(err))
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, usersResponse{Demo: true, Users: users})
}
