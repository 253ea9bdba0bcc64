package storage

import (
	"context"
	"fmt"
	"strings"

	"nodal/internal/config"

	"github.com/supabase-community/supabase-go"
)

// SupabaseStorage issues signed upload URLs for a Supabase storage bucket.
type SupabaseStorage struct {
	client  *supabase.Client
	baseURL string
	bucket  string
}

func NewSupabaseStorage(cfg config.StorageConfig) (*SupabaseStorage, error) {
	if cfg.Supabase.URL == "" || cfg.Supabase.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase storage requires storage.supabase.url and storage.supabase.service_role_key")
	}
	client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseStorage{
		client:  client,
		baseURL: strings.TrimRight(cfg.Supabase.URL, "/"),
		bucket:  cfg.Bucket,
	}, nil
}

func (s *SupabaseStorage) Name() string {
	return "supabase"
}

func (s *SupabaseStorage) UploadURL(ctx context.Context, objectPath, fileType string) (UploadTarget, error) {
	resp, err := s.client.Storage.CreateSignedUploadUrl(s.bucket, objectPath)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("signing upload for %s: %w", objectPath, err)
	}
	uploadURL := resp.Url
	if strings.HasPrefix(uploadURL, "/") {
		uploadURL = s.baseURL + "/storage/v1" + uploadURL
	}
	return UploadTarget{
		URL:     uploadURL,
		Headers: map[string]string{"Content-Type": fileType},
	}, nil
}

func (s *SupabaseStorage) PublicURL(objectPath string) string {
	return s.client.Storage.GetPublicUrl(s.bucket, objectPath).SignedURL
}

func (s *SupabaseStorage) Delete(ctx context.Context, objectPath string) error {
	_, err := s.client.Storage.RemoveFile(s.bucket, []string{objectPath})
	return err
}
