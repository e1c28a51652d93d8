package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
)

// Width is the width snapshots are scaled to; height keeps the aspect ratio.
const Width = 800

// Hash calculates the SHA256 hash of the image data.
func Hash(imageData []byte) string {
	hash := sha256.Sum256(imageData)
	return hex.EncodeToString(hash[:])
}

// Save decodes a JPEG or PNG frame, scales it down to Width and writes it as
// <hash>.jpg under dir. It returns the written path.
func Save(dir string, imageData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > Width {
		img = resize.Resize(Width, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	imagePath := filepath.Join(dir, Hash(imageData)+".jpg")
	out, err := os.Create(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, nil); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return imagePath, nil
}
