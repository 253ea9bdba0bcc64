package auth

import (
	"errors"
	"time"

	"nodal/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer          = "nodal"
	sessionAudience = "nodal-session"
	uploadAudience  = "nodal-upload"
)

var ErrMissingSubject = errors.New("token has no subject")

type AppClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID is the authenticated user's id, carried in the subject claim.
func (c *AppClaims) UserID() string {
	return c.Subject
}

func GenerateJWT(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &AppClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func VerifyJWT(tokenString, secret string) (*AppClaims, error) {
	claims := &AppClaims{}
	if err := parse(tokenString, secret, sessionAudience, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func parse(tokenString, secret, audience string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithAudience(audience), jwt.WithIssuer(issuer))

	if err != nil {
		return err
	}

	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}

	return nil
}
