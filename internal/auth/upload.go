package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UploadClaims is the payload signed at upload-url time and echoed back on
// record-upload, so a client can only register objects the server handed out.
type UploadClaims struct {
	UserID   string `json:"user"`
	Path     string `json:"path"`
	FileType string `json:"fileType"`
	Ext      string `json:"ext"`
	jwt.RegisteredClaims
}

func SignUpload(c UploadClaims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{uploadAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString([]byte(secret))
}

func VerifyUpload(signature, secret string) (*UploadClaims, error) {
	claims := &UploadClaims{}
	if err := parse(signature, secret, uploadAudience, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
