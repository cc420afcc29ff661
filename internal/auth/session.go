package auth

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Mode says how a session was established.
type Mode string

const (
	// ModeDemo accepts any credentials and fabricates the user.
	ModeDemo Mode = "demo"
	// ModeLocal checks credentials against locally registered accounts.
	ModeLocal Mode = "local"
	// ModeFakeStore is the remote demo-user login.
	ModeFakeStore Mode = "fakestore"
)

func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeDemo, ModeLocal:
		return m, true
	}
	return "", false
}

type Session struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	Demo      bool      `json:"isDemo"`
	Mode      Mode      `json:"mode"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Number  int    `json:"number"`
	Zipcode string `json:"zipcode"`
}

func (s Session) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Initials is the upper-cased first letter of each name part.
func (s Session) Initials() string {
	var b strings.Builder
	for _, part := range []string{s.FirstName, s.LastName} {
		if r, _ := utf8.DecodeRuneInString(part); r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
