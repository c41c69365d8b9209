package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// UploadField is the multipart field name the backend reads images from.
const UploadField = "menuImage"

// Image is a local image file to upload.
type Image struct {
	Filename string
	Content  io.Reader
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl" validate:"required"`
}

// UploadAPI covers /api/upload.
type UploadAPI struct{ c *Client }

// MenuItemImage uploads an image and returns the server-relative URL the
// backend assigned to it.
func (u *UploadAPI) MenuItemImage(ctx context.Context, img Image) (string, error) {
	const fallback = "Failed to upload image."

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, filepath.Base(img.Filename))
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("create form file: %w", err))
	}
	if _, err := io.Copy(part, img.Content); err != nil {
		return "", apperrors.InvalidInput(fmt.Sprintf("read image %s: %v", img.Filename, err))
	}
	if err := mw.Close(); err != nil {
		return "", apperrors.Internal(fmt.Errorf("close multipart writer: %w", err))
	}

	var out uploadResponse
	err = u.c.do(ctx, call{
		group: "upload", op: "menu_item_image",
		method: http.MethodPost, path: "/upload/menu-item-image",
		raw: &buf, contentType: mw.FormDataContentType(),
		out: &out, fallback: fallback,
	})
	if err != nil {
		return "", err
	}
	return out.ImageURL, nil
}
