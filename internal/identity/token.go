package identity

import (
	"fmt"
	"time"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "chirp"

// Claims is the payload of a session token. Profile fields are optional and
// refresh the Directory when present.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for user.
func (t *Tokens) Issue(user models.Author) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("%w: user id is empty", models.ErrValidation)
	}
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		ImageURL: user.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates signature and expiry and returns the caller.
func (t *Tokens) Parse(tokenString string) (models.Author, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return models.Author{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return models.Author{}, fmt.Errorf("%w: token has no user", models.ErrUnauthorized)
	}
	return models.Author{ID: claims.UserID, Username: claims.Username, ImageURL: claims.ImageURL}, nil
}
