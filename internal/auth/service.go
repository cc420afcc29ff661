// Package auth owns the signed-in session. Sign-in is a demo: see Mode.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"GlobalStore/internal/events"
	"GlobalStore/internal/httpx"
	"GlobalStore/internal/storage"
	"GlobalStore/pkg/kit"
)

const (
	DefaultTokenTTL      = 24 * time.Hour
	DefaultRegisterDelay = 1 * time.Second

	demoLastName = "User"
)

var (
	ErrMockLoginFailed = errors.New("mock login failed")
	ErrNotSignedIn     = errors.New("not signed in")
)

// DemoUser is the remote account used by MockLogin.
type DemoUser struct {
	ID       int
	Username string
	Password string
}

var DefaultDemoUser = DemoUser{ID: 1, Username: "johnd", Password: "m38rmF$"}

type Options struct {
	Mode          Mode
	Tokens        *TokenMaker
	TokenTTL      time.Duration
	RegisterDelay time.Duration
	// Remote is the demo-user API used by MockLogin.
	Remote   *httpx.Client
	DemoUser DemoUser
	Log      *zap.Logger
}

type Service struct {
	store    storage.Store
	accounts *Accounts
	mode     Mode
	tokens   *TokenMaker
	ttl      time.Duration
	delay    time.Duration
	remote   *httpx.Client
	demo     DemoUser
	log      *zap.Logger
	hub      *events.Hub
	now      func() time.Time

	mu      sync.RWMutex
	session *Session
	saveMu  sync.Mutex
}

func New(store storage.Store, opts Options) *Service {
	s := &Service{
		store:    store,
		accounts: NewAccounts(store),
		mode:     opts.Mode,
		tokens:   opts.Tokens,
		ttl:      opts.TokenTTL,
		delay:    opts.RegisterDelay,
		remote:   opts.Remote,
		demo:     opts.DemoUser,
		log:      kit.OrNop(opts.Log),
		hub:      events.NewHub(events.TopicSession),
		now:      time.Now,
	}
	if s.mode == "" {
		s.mode = ModeDemo
	}
	if s.tokens == nil {
		s.tokens = NewTokenMaker(rand.Text())
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.delay < 0 {
		s.delay = 0
	}
	if s.demo == (DemoUser{}) {
		s.demo = DefaultDemoUser
	}
	return s
}

func (s *Service) Mode() Mode { return s.mode }

func (s *Service) Subscribe() (<-chan events.Change, func()) { return s.hub.Subscribe() }

// Load restores the stored session. Locally minted sessions whose token no
// longer verifies are dropped.
func (s *Service) Load(ctx context.Context) error {
	var stored Session
	found, err := storage.LoadJSON(ctx, s.store, storage.KeySession, &stored)
	switch {
	case err == nil:
	case storage.IsUnparsable(err):
		s.log.Warn("stored session unreadable, signed out", zap.Error(err))
		found = false
	default:
		return fmt.Errorf("load session: %w", err)
	}

	var sess *Session
	if found && stored.UserID != "" {
		sess = &stored
		if stored.Mode != ModeFakeStore {
			if _, err := s.tokens.Parse(stored.Token); err != nil {
				s.log.Info("stored session token rejected, signed out", zap.Error(err))
				sess = nil
			}
		}
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return nil
}

func (s *Service) Flush(ctx context.Context) error {
	s.mu.RLock()
	sess := s.session
	s.saveMu.Lock()
	s.mu.RUnlock()
	defer s.saveMu.Unlock()

	return s.persist(ctx, sess)
}

func (s *Service) persist(ctx context.Context, sess *Session) error {
	if sess == nil {
		return s.store.Remove(ctx, storage.KeySession)
	}
	return storage.SaveJSON(ctx, s.store, storage.KeySession, sess)
}

// Login signs in. In demo mode any credentials are accepted and the user is
// made up from the email; in local mode they must match a registered account.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	var sess Session
	switch s.mode {
	case ModeLocal:
		acc, err := s.accounts.Verify(ctx, email, password)
		if err != nil {
			return Session{}, err
		}
		sess = Session{UserID: acc.ID, Email: acc.Email, FirstName: acc.FirstName, LastName: acc.LastName}
	default:
		sess = Session{UserID: newUserID(), Email: email, FirstName: localPart(email), LastName: demoLastName}
	}
	return s.start(ctx, sess)
}

func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (Session, error) {
	if err := kit.Sleep(ctx, s.delay); err != nil {
		return Session{}, err
	}

	sess := Session{
		UserID:    newUserID(),
		Email:     normalizeEmail(email),
		FirstName: firstName,
		LastName:  lastName,
	}

	if s.mode == ModeLocal {
		acc, err := s.accounts.Create(ctx, Account{
			ID:        sess.UserID,
			Email:     sess.Email,
			FirstName: firstName,
			LastName:  lastName,
			CreatedAt: s.now().UTC(),
		}, password)
		if err != nil {
			return Session{}, err
		}
		sess.UserID = acc.ID
	}
	return s.start(ctx, sess)
}

func (s *Service) start(ctx context.Context, sess Session) (Session, error) {
	sess.Mode = s.mode
	sess.CreatedAt = s.now().UTC()

	tok, err := s.tokens.New(sess, s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	sess.Token = tok

	s.set(ctx, &sess, "login")
	s.log.Info("signed in", zap.String("user_id", sess.UserID), zap.String("mode", string(sess.Mode)))
	return sess, nil
}

type remoteLoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type remoteLoginResp struct {
	Token string `json:"token"`
}

// MockLogin signs in as the remote demo user. Any remote failure is
// reported as ErrMockLoginFailed.
func (s *Service) MockLogin(ctx context.Context) (Session, error) {
	if s.remote == nil {
		return Session{}, fmt.Errorf("%w: no remote configured", ErrMockLoginFailed)
	}

	var lr remoteLoginResp
	err := s.remote.PostJSON(ctx, "/auth/login", remoteLoginReq{
		Username: s.demo.Username,
		Password: s.demo.Password,
	}, &lr)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrMockLoginFailed, err)
	}
	if lr.Token == "" {
		return Session{}, fmt.Errorf("%w: empty token", ErrMockLoginFailed)
	}

	userID := s.demo.ID
	if sub, err := UnverifiedSubject(lr.Token); err == nil {
		if n, err := strconv.Atoi(sub); err == nil {
			userID = n
		}
	}

	var u User
	if err := s.remote.GetJSON(ctx, "/users/"+strconv.Itoa(userID), &u); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrMockLoginFailed, err)
	}

	sess := Session{
		UserID:    strconv.Itoa(u.ID),
		Email:     u.Email,
		FirstName: u.Name.Firstname,
		LastName:  u.Name.Lastname,
		Phone:     u.Phone,
		Address:   u.Address.toSession(),
		Demo:      true,
		Mode:      ModeFakeStore,
		Token:     lr.Token,
		CreatedAt: s.now().UTC(),
	}
	s.set(ctx, &sess, "login")
	s.log.Info("mock login", zap.String("user_id", sess.UserID))
	return sess, nil
}

// Logout clears the session in memory and in storage. It always succeeds.
func (s *Service) Logout(ctx context.Context) {
	s.set(ctx, nil, "logout")
}

func (s *Service) set(ctx context.Context, sess *Session, kind string) {
	s.mu.Lock()
	s.session = sess
	s.saveMu.Lock()
	s.mu.Unlock()

	err := s.persist(ctx, sess)
	s.saveMu.Unlock()
	if err != nil {
		s.log.Warn("session save failed", zap.Error(err))
	}
	s.hub.Publish(kind)
}

func (s *Service) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

func (s *Service) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func newUserID() string { return "u_" + uuid.NewString() }
