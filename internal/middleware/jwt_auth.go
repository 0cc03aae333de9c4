package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/session"
	"github.com/golang-jwt/jwt/v4"
)

// TokenTTL is the lifetime of locally issued tokens.
const TokenTTL = 72 * time.Hour

// JWTVerifier accepts HS256 tokens issued by this service.
type JWTVerifier struct {
	Secret string
}

// Verify parses a local token into the identity it was issued for.
func (v JWTVerifier) Verify(_ context.Context, tokenString string) (session.Identity, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(v.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return session.Identity{}, errors.New("invalid token signature")
		}
		return session.Identity{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return session.Identity{}, errors.New("invalid token")
	}

	return session.Identity{
		UID:       fmt.Sprint(claims.UserID),
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.Picture,
	}, nil
}

// IssueToken signs a local token for user.
func IssueToken(secret string, user *models.User, now time.Time) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
