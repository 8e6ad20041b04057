package jwt

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/orienta/backend/pkg/auth"
	"github.com/orienta/backend/pkg/users"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Blacklist is an append-only set of revoked refresh-token ids (jti).
// It must tolerate concurrent Add/Contains without lost updates.
type Blacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// Claims включает стандартные поля и данные пользователя, чтобы
// downstream-сервисы не ходили в базу за ролью и статусом аккаунта.
// Подпись только защищает целостность — секретов в claims быть не должно.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Role      string `json:"rol"`
	Active    bool   `json:"activo"`
}

// Service issues, refreshes and revokes HS256-signed token pairs.
// Implements auth.TokenService.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	rotate     bool
	blacklist  Blacklist
	now        func() time.Time
}

func NewService(secret, issuer string, accessTTL, refreshTTL time.Duration, rotate bool, blacklist Blacklist) *Service {
	return &Service{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		rotate:     rotate,
		blacklist:  blacklist,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) sign(user users.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TokenType: tokenType,
		UserID:    user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		Active:    user.Active,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssuePair returns an access/refresh pair carrying the user's claim set
// as of issuance time. Role or activation changes require re-issuing.
func (s *Service) IssuePair(ctx context.Context, user users.User) (auth.TokenPair, error) {
	access, err := s.sign(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return auth.TokenPair{}, err
	}
	refresh, err := s.sign(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return auth.TokenPair{}, err
	}
	return auth.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse validates signature, expiry and issuer and returns the claims.
func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, auth.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, auth.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) validRefresh(ctx context.Context, refreshToken string) (*Claims, error) {
	claims, err := s.Parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, auth.ErrInvalidToken
	}
	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is not rotated unless the service was configured to.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.validRefresh(ctx, refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	user, err := claims.User()
	if err != nil {
		return auth.TokenPair{}, err
	}
	access, err := s.sign(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return auth.TokenPair{}, err
	}
	pair := auth.TokenPair{Access: access}
	if s.rotate {
		rotated, err := s.sign(user, TokenTypeRefresh, s.refreshTTL)
		if err != nil {
			return auth.TokenPair{}, err
		}
		pair.Refresh = rotated
	}
	return pair, nil
}

// Revoke records the refresh token's jti in the blacklist until the
// token would have expired on its own. An already invalid token yields
// auth.ErrInvalidToken; callers treat that as "already revoked".
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.validRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return auth.ErrInvalidToken
	}
	return s.blacklist.Add(ctx, claims.ID, ttl)
}

// User reconstructs the user snapshot embedded in the claims.
func (c *Claims) User() (users.User, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return users.User{}, auth.ErrInvalidToken
	}
	return users.User{
		ID:        id,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      users.Role(c.Role),
		Active:    c.Active,
	}, nil
}
