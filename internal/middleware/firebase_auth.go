package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nastani/backend/internal/session"
)

// FirebaseVerifier accepts Firebase ID tokens.
type FirebaseVerifier struct {
	Client *auth.Client
}

// Verify checks the ID token with Firebase and maps its claims to an identity.
func (v FirebaseVerifier) Verify(ctx context.Context, idToken string) (session.Identity, error) {
	token, err := v.Client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return session.Identity{}, fmt.Errorf("invalid or expired ID token: %w", err)
	}
	return IdentityFromFirebase(token), nil
}

// IdentityFromFirebase reads the profile claims of a verified Firebase token.
func IdentityFromFirebase(token *auth.Token) session.Identity {
	id := session.Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		id.AvatarURL = picture
	}
	return id
}
