package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"nodal/internal/models"

	"golang.org/x/sync/errgroup"
)

// maxParallelUploads bounds UploadAll.
const maxParallelUploads = 4

// UploadFile is one file to upload. Open is called once per attempt.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Ext is the extension sent to the upload-url step, without the dot.
func (f UploadFile) Ext() string {
	return strings.TrimPrefix(path.Ext(f.Filename), ".")
}

func (f UploadFile) contentType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if t := mime.TypeByExtension(path.Ext(f.Filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

type ResourceRepository struct {
	api *API
}

func NewResourceRepository(api *API) *ResourceRepository {
	return &ResourceRepository{api: api}
}

// Upload runs the handshake: ask for a slot, PUT the bytes to the provider,
// then record the upload with the slot signature.
func (r *ResourceRepository) Upload(ctx context.Context, f UploadFile) (*models.Resource, error) {
	fileType := f.contentType()
	slot, err := r.api.UploadSlot(ctx, fileType, f.Ext())
	if err != nil {
		return nil, err
	}

	body, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Filename, err)
	}
	err = r.api.PutObject(ctx, slot, body, f.Size)
	body.Close()
	if err != nil {
		return nil, err
	}

	return r.api.RecordUpload(ctx, models.RecordUploadRequest{
		Path:      slot.Path,
		FileType:  fileType,
		FileSize:  f.Size,
		Filename:  f.Filename,
		Signature: slot.Signature,
	})
}

// UploadResult is the outcome of one file in UploadAll. Exactly one of
// Resource and Err is set.
type UploadResult struct {
	Resource *models.Resource
	Err      error
}

// UploadAll uploads files in parallel. Result i belongs to files[i]; each
// upload writes only its own slot, and a failed file does not stop the
// others. The returned error joins every per-file failure.
func (r *ResourceRepository) UploadAll(ctx context.Context, files []UploadFile) ([]UploadResult, error) {
	results := make([]UploadResult, len(files))

	var g errgroup.Group
	g.SetLimit(maxParallelUploads)
	for i, f := range files {
		g.Go(func() error {
			res, err := r.Upload(ctx, f)
			if err != nil {
				results[i].Err = fmt.Errorf("uploading %s: %w", f.Filename, err)
				return nil
			}
			results[i].Resource = res
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, res := range results {
		if res.Err != nil {
			failures = append(failures, res.Err)
		}
	}
	return results, errors.Join(failures...)
}

// Uploaded returns the resources of the successful results, in order.
func Uploaded(results []UploadResult) []models.Resource {
	out := make([]models.Resource, 0, len(results))
	for _, res := range results {
		if res.Resource != nil {
			out = append(out, *res.Resource)
		}
	}
	return out
}

func (r *ResourceRepository) List(ctx context.Context) ([]models.Resource, error) {
	return r.api.Resources(ctx)
}

func (r *ResourceRepository) Get(ctx context.Context, id string) (*models.Resource, error) {
	return r.api.Resource(ctx, id)
}
