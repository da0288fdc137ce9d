package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ScannedImagesRoute is where stored scans are served from
const ScannedImagesRoute = "/images/scanned"

// ImageStorageService handles storing scanned card images
type ImageStorageService struct {
	storageDir string
}

// NewImageStorageService creates the storage directory if needed
func NewImageStorageService(storageDir string, logger *slog.Logger) *ImageStorageService {
	if logger == nil {
		logger = slog.Default()
	}
	if storageDir == "" {
		storageDir = "./data/scanned_images"
	}

	// Writes still fail later if this does
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		logger.Warn("could not create scanned images directory", "dir", storageDir, "error", err)
	}

	return &ImageStorageService{
		storageDir: storageDir,
	}
}

// SaveImage saves image data to disk and returns the filename
func (s *ImageStorageService) SaveImage(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", errors.New("empty image data")
	}

	filename := uuid.New().String() + ".jpg"
	filePath := filepath.Join(s.storageDir, filename)

	if err := os.WriteFile(filePath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return filename, nil
}

// SaveBase64 decodes a base64 JPEG, optionally a data URL, stores it and
// returns the URL it is served under.
func (s *ImageStorageService) SaveBase64(data string) (string, error) {
	data = strings.TrimSpace(data)
	if i := strings.Index(data, ","); strings.HasPrefix(data, "data:") && i >= 0 {
		data = data[i+1:]
	}

	imageData, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("invalid image data: %w", err)
	}

	filename, err := s.SaveImage(imageData)
	if err != nil {
		return "", err
	}
	return ScannedImagesRoute + "/" + filename, nil
}

// GetStorageDir returns the storage directory path
func (s *ImageStorageService) GetStorageDir() string {
	return s.storageDir
}
