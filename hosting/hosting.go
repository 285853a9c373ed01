// Package hosting uploads rendered codes to Cloudinary and prunes old ones.
package hosting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/Rheinmir/qr-generator-module/logging"
)

const (
	Folder         = "qr-generator"
	TagBatch       = "qr-batch"
	TagAutoDelete  = "auto_delete_30d"
	cleanupPageMax = 500
)

var ErrDisabled = errors.New("image hosting is not configured")

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

type adminAPI interface {
	AssetsByTag(ctx context.Context, params admin.AssetsByTagParams) (*admin.AssetsResult, error)
	DeleteAssets(ctx context.Context, params admin.DeleteAssetsParams) (*admin.DeleteAssetsResult, error)
}

// Client wraps the Cloudinary upload and admin APIs.
type Client struct {
	upload uploadAPI
	admin  adminAPI
	now    func() time.Time
}

// New creates a Cloudinary client. It fails with ErrDisabled when any
// credential is empty.
func New(cloudName, apiKey, apiSecret string) (*Client, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrDisabled
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Client{upload: &cld.Upload, admin: &cld.Admin, now: time.Now}, nil
}

// Upload stores png under Folder/publicID and returns its HTTPS URL.
func (c *Client) Upload(ctx context.Context, png []byte, publicID string) (string, error) {
	if c == nil {
		return "", ErrDisabled
	}
	res, err := c.upload.Upload(ctx, bytes.NewReader(png), uploader.UploadParams{
		Folder:       Folder,
		PublicID:     publicID,
		Tags:         api.CldAPIArray{TagBatch, TagAutoDelete},
		ResourceType: "image",
		Overwrite:    api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload %s: %s", publicID, res.Error.Message)
	}
	return res.SecureURL, nil
}

// CleanupOlderThan deletes auto-delete tagged images created more than days
// ago and returns how many were removed.
func (c *Client) CleanupOlderThan(ctx context.Context, days int) (int, error) {
	if c == nil {
		return 0, ErrDisabled
	}
	cutoff := c.now().AddDate(0, 0, -days)

	res, err := c.admin.AssetsByTag(ctx, admin.AssetsByTagParams{
		Tag:        TagAutoDelete,
		MaxResults: cleanupPageMax,
	})
	if err != nil {
		return 0, fmt.Errorf("list tagged assets: %w", err)
	}
	if res.Error.Message != "" {
		return 0, fmt.Errorf("list tagged assets: %s", res.Error.Message)
	}

	var ids api.CldAPIArray
	for _, asset := range res.Assets {
		if asset.CreatedAt.Before(cutoff) {
			ids = append(ids, asset.PublicID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := c.admin.DeleteAssets(ctx, admin.DeleteAssetsParams{PublicIDs: ids}); err != nil {
		return 0, fmt.Errorf("delete assets: %w", err)
	}
	logging.Info("Deleted old QR images", zap.Int("count", len(ids)), zap.Int("days", days))
	return len(ids), nil
}

// RunCleanup calls CleanupOlderThan every interval until ctx is done.
func (c *Client) RunCleanup(ctx context.Context, interval time.Duration, days int) {
	if c == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.CleanupOlderThan(ctx, days); err != nil {
				logging.Error("Image cleanup failed", zap.Error(err))
			}
		}
	}
}
