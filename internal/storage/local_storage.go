package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const objectAudience = "nodal-object"

var ErrInvalidObjectPath = errors.New("invalid object path")

// LocalStorage keeps objects on disk and serves the upload and download
// endpoints itself under /files/.
type LocalStorage struct {
	basePath      string
	publicBaseURL string
	secret        string
	ttl           time.Duration
}

type objectClaims struct {
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
	jwt.RegisteredClaims
}

func NewLocalStorage(basePath, publicBaseURL, secret string, ttl time.Duration) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{
		basePath:      basePath,
		publicBaseURL: publicBaseURL,
		secret:        secret,
		ttl:           ttl,
	}, nil
}

func (ls *LocalStorage) Name() string {
	return "local"
}

func (ls *LocalStorage) filePath(objectPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(objectPath))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectPath, objectPath)
	}
	return filepath.Join(ls.basePath, clean), nil
}

func (ls *LocalStorage) UploadURL(ctx context.Context, objectPath, fileType string) (UploadTarget, error) {
	if _, err := ls.filePath(objectPath); err != nil {
		return UploadTarget{}, err
	}
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &objectClaims{
		Path:        objectPath,
		ContentType: fileType,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{objectAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ls.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}).SignedString([]byte(ls.secret))
	if err != nil {
		return UploadTarget{}, err
	}

	return UploadTarget{
		URL:     ls.PublicURL(objectPath) + "?token=" + url.QueryEscape(token),
		Headers: map[string]string{"Content-Type": fileType},
	}, nil
}

// VerifyUploadToken checks that token authorizes a PUT of objectPath and
// returns the content type it was issued for.
func (ls *LocalStorage) VerifyUploadToken(token, objectPath string) (string, error) {
	claims := &objectClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(ls.secret), nil
	}, jwt.WithAudience(objectAudience))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Path != objectPath {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.ContentType, nil
}

func (ls *LocalStorage) PublicURL(objectPath string) string {
	return joinURL(ls.publicBaseURL+"/files", objectPath)
}

func (ls *LocalStorage) Save(objectPath string, data io.Reader) (int64, error) {
	filePath, err := ls.filePath(objectPath)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return io.Copy(file, data)
}

func (ls *LocalStorage) Get(objectPath string) (*os.File, error) {
	filePath, err := ls.filePath(objectPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s not found: %w", objectPath, err)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	filePath, err := ls.filePath(objectPath)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}
