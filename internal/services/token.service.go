package services

import (
	"context"
	"fmt"
	"time"

	"opsflow/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenInfo struct {
	ProfileID uuid.UUID
	Email     string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService verifies the HS256 access tokens issued by the auth platform. The token
// subject is the profile id.
type TokenService struct {
	secret []byte
	issuer string
	log    logger.Logger
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		log:    logger.New("TokenService"),
	}
}

func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*TokenInfo, error) {
	log := s.log.TraceFromContext(ctx).Function("ValidateToken")

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, options...)
	if err != nil {
		log.Debug("token rejected", "error", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	profileID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}

	info := &TokenInfo{ProfileID: profileID, Email: claims.Email}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}

	return info, nil
}

// IssueToken signs a token for profileID. Production tokens come from the auth platform;
// this is used by the seed command and tests.
func (s *TokenService) IssueToken(profileID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
