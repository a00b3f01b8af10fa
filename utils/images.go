package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SaveBase64Image decodes a raw base64 payload or a data URI
// ("data:image/png;base64,...") and writes it under destDir with the given
// file name prefix. Returns the saved path.
func SaveBase64Image(base64Str, destDir, prefix string) (string, error) {
	base64Str = strings.TrimSpace(base64Str)
	if base64Str == "" {
		return "", fmt.Errorf("empty base64 string")
	}

	ext := ""
	if strings.HasPrefix(base64Str, "data:") {
		parts := strings.SplitN(base64Str, ";base64,", 2)
		if len(parts) == 2 {
			base64Str = parts[1]
			switch strings.TrimPrefix(parts[0], "data:") {
			case "image/png":
				ext = ".png"
			case "image/jpeg", "image/jpg":
				ext = ".jpg"
			case "application/pdf":
				ext = ".pdf"
			}
		} else if idx := strings.Index(base64Str, ","); idx != -1 {
			base64Str = base64Str[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(base64Str)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(base64Str)
		if err != nil {
			return "", fmt.Errorf("base64 decode failed: %w", err)
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir failed: %w", err)
	}

	randBytes := make([]byte, 6)
	if _, err := rand.Read(randBytes); err != nil {
		return "", fmt.Errorf("random name: %w", err)
	}
	if prefix == "" {
		prefix = "file"
	}
	name := fmt.Sprintf("%s_%d_%x%s", prefix, time.Now().UnixNano(), randBytes, ext)
	fullpath := filepath.Join(destDir, name)

	if err := os.WriteFile(fullpath, data, 0o644); err != nil {
		return "", fmt.Errorf("write file failed: %w", err)
	}
	return fullpath, nil
}
