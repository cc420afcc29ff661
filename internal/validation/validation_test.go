package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuhn(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"4532015112830366", true},
		{"4532 0151 1283 0366", true},
		{"4532-0151-1283-0367", false},
		{"378282246310005", true},
		{"5555555555554444", true},
		{"123456789012", false},
		{"12345678901234567890", false},
		{"", false},
		{"0004532015112830366", true},
		{"00004532015112830366", false},
		{"4532x0151x1283x0366", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Luhn(tt.in))
		})
	}
}

func TestStruct_LuhnTag(t *testing.T) {
	type card struct {
		Number string `json:"number" validate:"required,luhn"`
	}
	require.NoError(t, Struct(card{Number: "4111 1111 1111 1111"}))

	err := Struct(card{Number: "4111 1111 1111 1112"})
	var ve *Errors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is not a valid card number", ve.Fields["number"])

	err = Struct(card{Number: "4111 1111 1"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is not a valid card number", ve.Fields["number"])
}

func TestExpiryAndCVV(t *testing.T) {
	assert.True(t, ValidExpiry("01/27"))
	assert.True(t, ValidExpiry("12/99"))
	assert.False(t, ValidExpiry("13/27"))
	assert.False(t, ValidExpiry("00/27"))
	assert.False(t, ValidExpiry("1/27"))
	assert.False(t, ValidExpiry("01/2027"))

	assert.True(t, ValidCVV("123"))
	assert.True(t, ValidCVV("1234"))
	assert.False(t, ValidCVV("12"))
	assert.False(t, ValidCVV("12a"))
}

type cardForm struct {
	Number string `json:"cardNumber" validate:"required,luhn"`
	Holder string `json:"cardHolder" validate:"required"`
	Expiry string `json:"expiryDate" validate:"required,expiry"`
	CVV    string `json:"cvv" validate:"required,cvv"`
}

type signupForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Confirm  string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(cardForm{Number: "4532015112830366", Holder: "A", Expiry: "10/28", CVV: "123"}))

	err := Struct(cardForm{Number: "4532015112830367", Expiry: "1/28", CVV: "1"})
	var ve *Errors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{
		"cardNumber": "is not a valid card number",
		"cardHolder": "is required",
		"expiryDate": "must be MM/YY",
		"cvv":        "must be 3 or 4 digits",
	}, ve.Fields)
	assert.Contains(t, err.Error(), "cardHolder: is required")
}

func TestStruct_Signup(t *testing.T) {
	err := Struct(signupForm{Email: "not-an-email", Password: "abc", Confirm: "abd"})
	var ve *Errors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be a valid email address", ve.Fields["email"])
	assert.Equal(t, "must be at least 6 characters", ve.Fields["password"])
	assert.Equal(t, "does not match", ve.Fields["confirmPassword"])

	assert.NoError(t, Struct(signupForm{Email: "a@b.co", Password: "secret", Confirm: "secret"}))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "4111", Digits("41-1 1x"))
}
