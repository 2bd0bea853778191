package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

// AuthService defines account registration and login.
type AuthService interface {
	// Register creates a new customer account.
	Register(ctx context.Context, email, name, password string) (userID string, err error)
	// Login authenticates by email/password and issues an access token.
	Login(ctx context.Context, email, password string) (model.Tokens, model.User, error)
}

// Claims is the JWT payload; Role lets the HTTP layer gate admin routes
// without a user lookup.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
}

// NewAuthService constructs AuthService.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL}
}

// Register creates a new user with a bcrypt password hash.
func (s *AuthServiceImpl) Register(ctx context.Context, email, name, password string) (string, error) {
	if email == "" || name == "" {
		return "", fmt.Errorf("%w: empty email/name", errs.ErrValidation)
	}
	if len(password) < 6 {
		return "", fmt.Errorf("%w: password too short", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u := &model.User{
		ID:      uid,
		Email:   email,
		Name:    name,
		PwdHash: hash,
		Role:    model.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return uid.String(), nil
}

// Login authenticates and issues an HS256 access token carrying the role.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (model.Tokens, model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// hide account existence on lookup failure
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword(u.PwdHash, []byte(password)) != nil {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}
	access, exp, err := s.issueAccessToken(u.ID, u.Role)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject and role.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID, role model.Role) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: string(role),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// ParsePrincipal validates a bearer token and extracts the caller principal.
func ParsePrincipal(tokenStr string, signKey []byte) (model.Principal, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return signKey, nil
	})
	if err != nil || !tok.Valid {
		return model.Principal{}, errs.ErrUnauthorized
	}
	uid, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Principal{}, errs.ErrUnauthorized
	}
	return model.Principal{UserID: uid, Role: model.Role(claims.Role)}, nil
}
