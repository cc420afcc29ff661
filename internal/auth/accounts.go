package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"GlobalStore/internal/storage"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Hash      []byte    `json:"hash"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Accounts is the registry used in local mode. It is re-read from storage on
// every call and fully rewritten on Create.
type Accounts struct {
	store storage.Store
	cost  int

	mu sync.Mutex
}

func NewAccounts(store storage.Store) *Accounts {
	return &Accounts{store: store, cost: bcrypt.DefaultCost}
}

func (a *Accounts) load(ctx context.Context) (map[string]Account, error) {
	var list []Account
	if _, err := storage.LoadJSON(ctx, a.store, storage.KeyAccounts, &list); err != nil {
		return nil, err
	}
	out := make(map[string]Account, len(list))
	for _, acc := range list {
		out[acc.Email] = acc
	}
	return out, nil
}

func (a *Accounts) Create(ctx context.Context, acc Account, password string) (Account, error) {
	acc.Email = normalizeEmail(acc.Email)

	a.mu.Lock()
	defer a.mu.Unlock()

	byEmail, err := a.load(ctx)
	if err != nil {
		return Account{}, err
	}
	if _, ok := byEmail[acc.Email]; ok {
		return Account{}, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return Account{}, err
	}
	acc.Hash = hash

	list := make([]Account, 0, len(byEmail)+1)
	for _, existing := range byEmail {
		list = append(list, existing)
	}
	list = append(list, acc)

	if err := storage.SaveJSON(ctx, a.store, storage.KeyAccounts, list); err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (a *Accounts) Verify(ctx context.Context, email, password string) (Account, error) {
	a.mu.Lock()
	byEmail, err := a.load(ctx)
	a.mu.Unlock()
	if err != nil {
		return Account{}, err
	}

	acc, ok := byEmail[normalizeEmail(email)]
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.Hash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}
