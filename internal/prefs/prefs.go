// Package prefs stores the display language and currency.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"GlobalStore/internal/currency"
	"GlobalStore/internal/events"
	"GlobalStore/internal/storage"
	"GlobalStore/pkg/kit"
)

type Language string

const (
	English Language = "en"
	Turkish Language = "tr"
)

const (
	DefaultLanguage = Turkish
	DefaultCurrency = currency.TRY
)

var ErrUnknownLanguage = errors.New("unknown language")

func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case English, Turkish:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

type Prefs struct {
	Language Language      `json:"language"`
	Currency currency.Code `json:"currency"`
}

// Service keeps both values as plain strings in storage.
type Service struct {
	store storage.Store
	log   *zap.Logger
	hub   *events.Hub

	mu     sync.RWMutex
	prefs  Prefs
	saveMu sync.Mutex
}

func New(store storage.Store, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   kit.OrNop(log),
		hub:   events.NewHub(events.TopicPrefs),
		prefs: Prefs{Language: DefaultLanguage, Currency: DefaultCurrency},
	}
}

func (s *Service) Subscribe() (<-chan events.Change, func()) { return s.hub.Subscribe() }

// Load reads both keys. Missing or unrecognised values keep the defaults; a
// failing store is returned and leaves the current values alone.
func (s *Service) Load(ctx context.Context) error {
	p := Prefs{Language: DefaultLanguage, Currency: DefaultCurrency}

	lang, hasLang, err := s.store.Get(ctx, storage.KeyLanguage)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}
	cur, hasCur, err := s.store.Get(ctx, storage.KeyCurrency)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	if hasLang {
		if l, err := ParseLanguage(lang); err == nil {
			p.Language = l
		} else {
			s.log.Warn("ignoring stored language", zap.String("value", lang))
		}
	}
	if hasCur {
		if c, err := currency.ParseCode(cur); err == nil && string(c) == cur {
			p.Currency = c
		} else {
			s.log.Warn("ignoring stored currency", zap.String("value", cur))
		}
	}

	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
	return nil
}

func (s *Service) Flush(ctx context.Context) error {
	s.mu.RLock()
	p := s.prefs
	s.saveMu.Lock()
	s.mu.RUnlock()
	defer s.saveMu.Unlock()

	if err := s.store.Set(ctx, storage.KeyLanguage, string(p.Language)); err != nil {
		return err
	}
	return s.store.Set(ctx, storage.KeyCurrency, string(p.Currency))
}

func (s *Service) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

func (s *Service) Language() Language { return s.Get().Language }

func (s *Service) Currency() currency.Code { return s.Get().Currency }

func (s *Service) SetLanguage(ctx context.Context, l Language) error {
	l, err := ParseLanguage(string(l))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.prefs.Language = l
	s.saveMu.Lock()
	s.mu.Unlock()

	s.save(ctx, storage.KeyLanguage, string(l))
	s.hub.Publish("language")
	return nil
}

func (s *Service) SetCurrency(ctx context.Context, c currency.Code) error {
	c, err := currency.ParseCode(string(c))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.prefs.Currency = c
	s.saveMu.Lock()
	s.mu.Unlock()

	s.save(ctx, storage.KeyCurrency, string(c))
	s.hub.Publish("currency")
	return nil
}

// save runs with saveMu held and releases it.
func (s *Service) save(ctx context.Context, key, value string) {
	defer s.saveMu.Unlock()
	if err := s.store.Set(ctx, key, value); err != nil {
		s.log.Warn("prefs save failed", zap.String("key", key), zap.Error(err))
	}
}
