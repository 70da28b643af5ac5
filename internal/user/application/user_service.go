package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	sharedinfra "bizit/internal/shared/infrastructure"
	"bizit/internal/user/domain"
	"bizit/internal/user/infrastructure"
)

// Session résultat d'une connexion
type Session struct {
	Token    string `json:"token"`
	UserName string `json:"user_name"`
}

// UserService inscription, connexion et authentification des commerçants
type UserService struct {
	repo   *infrastructure.UserRepository
	cost   int
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService crée le service. cost 0 = bcrypt.DefaultCost.
func NewUserService(repo *infrastructure.UserRepository, cost int, logger *zap.Logger) *UserService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:   repo,
		cost:   cost,
		logger: logger,
		now:    time.Now,
	}
}

// Signup crée un compte avec un mot de passe haché
func (s *UserService) Signup(ctx context.Context, in domain.Signup) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, eris.Wrap(err, "hash password")
	}

	u := &domain.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		BizName:      strings.TrimSpace(in.BizName),
		UserName:     strings.TrimSpace(in.UserName),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", u.Email))
	return u, nil
}

// Signin vérifie les identifiants et retourne le jeton (l'email du compte)
func (s *UserService) Signin(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, sharedinfra.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return &Session{Token: u.Email, UserName: u.UserName}, nil
}

// Authenticate résout un jeton en identifiant de commerçant
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	u, err := s.repo.GetByEmail(ctx, token)
	if errors.Is(err, sharedinfra.ErrNotFound) {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
