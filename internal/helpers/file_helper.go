package helpers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadConfig struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
	UploadBasePath   string
}

var imageMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

func ImageUploadConfig(basePath string, maxSizeBytes int64) UploadConfig {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 5 * 1024 * 1024
	}
	return UploadConfig{
		MaxSizeBytes:     maxSizeBytes,
		AllowedMimeTypes: imageMimeTypes,
		UploadBasePath:   basePath,
	}
}

// UploadFile stores the file under <base>/<uploadType>/ with a random name
// and returns that path relative to the base, using forward slashes.
func UploadFile(c *gin.Context, fileHeader *multipart.FileHeader, uploadType string, config UploadConfig) (string, error) {
	if fileHeader.Size > config.MaxSizeBytes {
		return "", models.NewValidationError("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil {
		return "", models.NewValidationError("could not read uploaded file")
	}
	mimeType := http.DetectContentType(buffer[:n])

	mimeTypeAllowed := false
	for _, allowedType := range config.AllowedMimeTypes {
		if mimeType == allowedType {
			mimeTypeAllowed = true
			break
		}
	}
	if !mimeTypeAllowed {
		return "", models.NewValidationError("invalid file type, allowed types: %s", strings.Join(config.AllowedMimeTypes, ", "))
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))

	uploadPath := filepath.Join(config.UploadBasePath, uploadType)
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if err := c.SaveUploadedFile(fileHeader, filepath.Join(uploadPath, filename)); err != nil {
		return "", err
	}

	return uploadType + "/" + filename, nil
}

func DeleteFile(basePath, relPath string) error {
	return os.Remove(filepath.Join(basePath, filepath.FromSlash(relPath)))
}
