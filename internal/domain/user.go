package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUsernameAlreadyExists indicates the the user with the given username already exists.
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrEmailALreadyExists indicates the the user with the given email already exists.
	ErrEmailALreadyExists = errors.New("email already exists")
	// ErrUserNotFound indicates the the user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUsername indicates an empty username.
	ErrInvalidUsername = fmt.Errorf("%w: invalid username", ErrValidation)
	// ErrInvalidEmail indicates a malformed email.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email", ErrValidation)
)

// User holds user data.
//
// KYCVerified selects the withdrawal limit tier.
type User struct {
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	KYCVerified bool      `json:"kyc_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateUserParams is the input data to create a user.
type CreateUserParams struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
