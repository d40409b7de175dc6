package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const UploadDir = "static/uploads"

var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// SaveImage decodes an uploaded image, re-encodes it as jpg under UploadDir
// and writes a 300px-wide thumbnail next to it. It returns the public URL of
// the saved image.
func SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if !SupportedImageTypes[header.Header.Get("Content-Type")] {
		return "", fmt.Errorf("unsupported image type %q", header.Header.Get("Content-Type"))
	}

	img, err := imaging.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	name := NewUUID() + ".jpg"
	thumbDir := filepath.Join(UploadDir, "thumb")
	if err := EnsureDir(UploadDir); err != nil {
		return "", err
	}
	if err := EnsureDir(thumbDir); err != nil {
		return "", err
	}

	if err := imaging.Save(img, filepath.Join(UploadDir, name)); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, name)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return "/static/uploads/" + name, nil
}

// SaveFormImage is a convenience wrapper around SaveImage for a named
// multipart form field; it returns "" when the field is absent.
func SaveFormImage(headers []*multipart.FileHeader) (string, error) {
	if len(headers) == 0 {
		return "", nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return SaveImage(f, headers[0])
}

// SaveFormImages saves every file under a multipart field.
func SaveFormImages(headers []*multipart.FileHeader) ([]string, error) {
	var urls []string
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, err
		}
		url, err := SaveImage(f, h)
		f.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
