// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // registered for decode; uploads are re-encoded as JPEG
	"net/http"
	"os"
	"path/filepath"

	"inkwell/internal/models"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

const (
	// ProfilePictureMaxSize bounds both dimensions of a stored profile picture.
	ProfilePictureMaxSize = 125

	profilePictureJPEGQuality = 85
	maxUploadSizeBytes        = 5 * 1024 * 1024
)

var allowedImageMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ImageService stores uploaded profile pictures, downscaled to a thumbnail.
type ImageService struct {
	uploadDir string
}

// NewImageService returns an ImageService writing into uploadDir.
func NewImageService(uploadDir string) *ImageService {
	return &ImageService{uploadDir: uploadDir}
}

// SaveProfilePicture validates, downscales, and stores an uploaded image.
// The stored file is always JPEG under a random name; the returned filename
// is what gets recorded on the user.
func (s *ImageService) SaveProfilePicture(content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if len(content) > maxUploadSizeBytes {
		return "", models.NewValidationError("File too large (max 5MB)")
	}

	if mime := http.DetectContentType(content); !allowedImageMIMEs[mime] {
		return "", models.NewValidationError("Only JPEG and PNG images are allowed")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	thumb := downscale(decoded, ProfilePictureMaxSize)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	filename := uuid.NewString() + ".jpg"
	out, err := os.Create(filepath.Join(s.uploadDir, filename))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: profilePictureJPEGQuality}); err != nil {
		return "", models.NewInternalError(err)
	}

	return filename, nil
}

// Remove deletes a previously stored picture. The default placeholder is
// never removed.
func (s *ImageService) Remove(filename string) {
	if filename == "" || filename == models.DefaultProfileImage {
		return
	}
	_ = os.Remove(filepath.Join(s.uploadDir, filename))
}

// downscale shrinks img so both dimensions fit within maxSize, preserving
// aspect ratio. Images already small enough pass through unscaled.
func downscale(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(w)
	if h > w {
		scale = float64(maxSize) / float64(h)
	}
	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
