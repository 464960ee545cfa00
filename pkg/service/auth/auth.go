package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/user"
	"github.com/mywatercloset/api/pkg/repository"
	"github.com/mywatercloset/api/pkg/utils"
)

type contextKey string

const userContextKey contextKey = "user"

// dummyHash is compared against when the identity is unknown so both paths
// cost one bcrypt comparison.
const dummyHash = "$2a$10$.IIxpSc3OElWXLV2Wj517eUGmZ64IQgBNQ4OcFbanW85CTrgrIDQy"

// Strategy decides how credentials become an identity.
type Strategy interface {
	Login(ctx context.Context, email, password string) (*user.User, error)
	GetCurrentUserID(ctx context.Context) (uuid.UUID, error)
	GenerateToken(ctx context.Context, u *user.User) (string, error)
}

type Service struct {
	uow      repository.UnitOfWork
	strategy Strategy
	logger   *slog.Logger
}

func New(
	uow repository.UnitOfWork,
	strategy Strategy,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, strategy: strategy, logger: logger}
}

// NewWithBasic builds a service for the ops CLI: password check only, no tokens.
func NewWithBasic(
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *Service {
	return New(uow, &BasicAuthStrategy{uow: uow, logger: logger}, logger)
}

func NewWithJWT(
	uow repository.UnitOfWork,
	cfg *config.Jwt,
	logger *slog.Logger,
) *Service {
	return New(uow, &JWTStrategy{uow: uow, cfg: cfg, logger: logger}, logger)
}

// Register creates an account. Admins cannot self-register.
func (s *Service) Register(
	ctx context.Context,
	email, password, firstName, lastName string,
	role user.Role,
) (*user.User, error) {
	const op = "auth.Register"
	log := s.logger.With("context", "Register", "email", email)

	u, err := user.NewUser(email, password, firstName, lastName, role)
	if err != nil {
		log.Warn("Invalid registration", "error", err)
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrValidation, err)
	}
	if err := s.uow.UserRepository().Create(ctx, u); err != nil {
		log.Error("Registration failed", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("✅ User registered", "userID", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) Login(
	ctx context.Context,
	email, password string,
) (u *user.User, err error) {
	log := s.logger.With("context", "Login")
	log.Debug("Login called", "email", email)
	u, err = s.strategy.Login(ctx, email, password)
	if err != nil {
		log.Error("Login failed", "email", email, "error", err)
		return
	}
	log.Info("Login successful", "userID", u.ID)
	return
}

func (s *Service) GenerateToken(
	ctx context.Context,
	u *user.User,
) (string, error) {
	log := s.logger.With("userID", u.ID)
	token, err := s.strategy.GenerateToken(ctx, u)
	if err != nil {
		log.Error("GenerateToken failed", "error", err)
		return "", err
	}
	log.Debug("GenerateToken successful")
	return token, nil
}

// GetCurrentUserID extracts the caller from a verified token.
func (s *Service) GetCurrentUserID(token *jwt.Token) (uuid.UUID, error) {
	return s.strategy.GetCurrentUserID(context.WithValue(context.Background(), userContextKey, token))
}

// JWTStrategy issues HS256 tokens carrying user_id, email and role.
type JWTStrategy struct {
	uow    repository.UnitOfWork
	cfg    *config.Jwt
	logger *slog.Logger
}

func NewJWTStrategy(
	uow repository.UnitOfWork,
	cfg *config.Jwt,
	logger *slog.Logger,
) *JWTStrategy {
	return &JWTStrategy{uow: uow, cfg: cfg, logger: logger}
}

func (s *JWTStrategy) GenerateToken(_ context.Context, u *user.User) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = u.ID.String()
	claims["email"] = u.Email
	claims["role"] = string(u.Role)
	claims["exp"] = time.Now().Add(s.cfg.Expiry).Unix()
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *JWTStrategy) Login(ctx context.Context, email, password string) (*user.User, error) {
	return checkCredentials(ctx, s.uow, s.logger, email, password)
}

func (s *JWTStrategy) GetCurrentUserID(ctx context.Context) (uuid.UUID, error) {
	token, ok := ctx.Value(userContextKey).(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("Malformed user_id claim", "error", err)
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

// BasicAuthStrategy checks passwords without issuing tokens.
type BasicAuthStrategy struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func NewBasicAuthStrategy(
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *BasicAuthStrategy {
	return &BasicAuthStrategy{uow: uow, logger: logger}
}

func (s *BasicAuthStrategy) Login(ctx context.Context, email, password string) (*user.User, error) {
	return checkCredentials(ctx, s.uow, s.logger, email, password)
}

func (s *BasicAuthStrategy) GetCurrentUserID(context.Context) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (s *BasicAuthStrategy) GenerateToken(context.Context, *user.User) (string, error) {
	return "", nil
}

func checkCredentials(
	ctx context.Context,
	uow repository.UnitOfWork,
	logger *slog.Logger,
	email, password string,
) (*user.User, error) {
	u, err := uow.UserRepository().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		_ = utils.CheckPasswordHash(password, dummyHash)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("auth.Login: %w", err)
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		logger.Warn("Password mismatch", "userID", u.ID)
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}
