package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UploadBasePath = "./uploads"
	PhotosPath     = "./uploads/photos"
	DocumentsPath  = "./uploads/documents"
	OthersPath     = "./uploads/others"
)

var useLocalStorage = true

func InitLocal() error {
	directories := []string{
		UploadBasePath,
		PhotosPath,
		DocumentsPath,
		OthersPath,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}

func SetLocalMode(local bool) {
	useLocalStorage = local
}

func Mode() string {
	if useLocalStorage {
		return "local"
	}
	return "s3"
}

// Save stores an uploaded file and returns the stored file name.
func Save(file *multipart.FileHeader) (string, error) {
	if useLocalStorage {
		return saveToLocal(file)
	}
	return saveToS3(file)
}

func saveToLocal(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	folder := determineFolder(file.Header.Get("Content-Type"))

	ext := filepath.Ext(file.Filename)
	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102-150405"),
		uuid.New().String()[:8],
		ext,
	)

	dst, err := os.Create(filepath.Join(folder, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}

	return filename, nil
}

func determineFolder(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return PhotosPath
	case strings.HasPrefix(contentType, "application/pdf"),
		strings.HasPrefix(contentType, "application/msword"),
		strings.HasPrefix(contentType, "application/vnd.openxmlformats"):
		return DocumentsPath
	default:
		return OthersPath
	}
}
