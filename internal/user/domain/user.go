package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrEmailTaken un compte existe déjà pour cet email
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials email ou mot de passe incorrect
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized jeton absent ou inconnu
	ErrUnauthorized = errors.New("invalid authentication token")

	// ErrInvalidSignup champs d'inscription manquants ou invalides
	ErrInvalidSignup = errors.New("invalid signup")
)

// User compte commerçant
type User struct {
	Email        string    `json:"user_email"`
	PasswordHash string    `json:"-"`
	BizName      string    `json:"biz_name"`
	UserName     string    `json:"user_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Signup données d'inscription
type Signup struct {
	Email    string `json:"user_email"`
	Password string `json:"password"`
	BizName  string `json:"biz_name"`
	UserName string `json:"user_name"`
}

// Validate normalise l'email et vérifie les champs obligatoires
func (s *Signup) Validate() error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidSignup)
	}
	if s.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidSignup)
	}
	if strings.TrimSpace(s.BizName) == "" || strings.TrimSpace(s.UserName) == "" {
		return fmt.Errorf("%w: biz_name and user_name are required", ErrInvalidSignup)
	}
	return nil
}
