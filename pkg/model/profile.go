package model

import (
	"errors"
	"net/mail"
	"strings"
)

// MaxPasswordLength is the longest password ValidateCredentials accepts, in bytes.
const MaxPasswordLength = 256

// Credential validation errors.
var ErrEmailEmpty = errors.New("email must not be empty")
var ErrEmailInvalid = errors.New("email must be a valid address")
var ErrPasswordEmpty = errors.New("password must not be empty")
var ErrPasswordTooLong = errors.New("password must not exceed 256 bytes")

// UserProfile is the account returned by login. The caller owns it.
type UserProfile struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// ValidateCredentials checks a login pair before it is sent to an account
// check. The session client never calls it: login must not fail locally.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailEmpty
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	if password == "" {
		return ErrPasswordEmpty
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
