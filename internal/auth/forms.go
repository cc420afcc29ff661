package auth

import "GlobalStore/internal/validation"

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (f LoginForm) Validate() error { return validation.Struct(f) }

type RegisterForm struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (f RegisterForm) Validate() error { return validation.Struct(f) }

type AddressForm struct {
	City    string `json:"city" validate:"required"`
	Street  string `json:"street" validate:"required"`
	Number  int    `json:"number" validate:"gt=0"`
	Zipcode string `json:"zipcode" validate:"required"`
}

func (f *AddressForm) address() Address {
	if f == nil {
		return Address{}
	}
	return Address{City: f.City, Street: f.Street, Number: f.Number, Zipcode: f.Zipcode}
}

// ProfileForm replaces both fields; a nil Address clears it.
type ProfileForm struct {
	Phone   string       `json:"phone" validate:"omitempty,min=7,max=32"`
	Address *AddressForm `json:"address"`
}

func (f ProfileForm) Validate() error { return validation.Struct(f) }
