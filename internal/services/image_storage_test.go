package services

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageStorage_SaveBase64(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scans")
	svc := NewImageStorageService(dir, nil)

	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	for _, in := range []string{
		base64.StdEncoding.EncodeToString(data),
		"data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
	} {
		url, err := svc.SaveBase64(in)
		if err != nil {
			t.Fatalf("SaveBase64() error: %v", err)
		}
		if !strings.HasPrefix(url, ScannedImagesRoute+"/") || !strings.HasSuffix(url, ".jpg") {
			t.Errorf("unexpected url %q", url)
		}
		stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, ScannedImagesRoute+"/")))
		if err != nil {
			t.Fatalf("stored image: %v", err)
		}
		if string(stored) != string(data) {
			t.Error("stored bytes differ from input")
		}
	}
}

func TestImageStorage_Invalid(t *testing.T) {
	svc := NewImageStorageService(t.TempDir(), nil)
	if _, err := svc.SaveBase64("not base64!!"); err == nil {
		t.Error("expected an error for invalid base64")
	}
	if _, err := svc.SaveImage(nil); err == nil {
		t.Error("expected an error for empty image data")
	}
	if _, err := svc.SaveBase64(""); err == nil {
		t.Error("expected an error for an empty payload")
	}
}
