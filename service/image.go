package service

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageService stores uploaded base64 payloads under the public directory
// and returns their URL.
type ImageService struct {
	dir     string
	baseURL string
}

func NewImageService(dir, baseURL string) *ImageService {
	return &ImageService{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// StoreBase64 decodes the payload and writes it into folder. Data URL
// prefixes ("data:image/png;base64,...") are accepted.
func (s *ImageService) StoreBase64(data, name, folder string) (string, error) {
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}

	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".png"
	}

	if err := os.MkdirAll(filepath.Join(s.dir, folder), 0o755); err != nil {
		return "", err
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, folder, filename), raw, 0o644); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/public/%s/%s", s.baseURL, folder, filename), nil
}
