package files

import (
	"github.com/fanalyst/trading-api/internal/response"
	"github.com/fanalyst/trading-api/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// UploadHandler relays every part of a multipart request to the storage
// backend and returns the stored file names.
func UploadHandler(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Invalid multipart form", err.Error())
	}

	names := []string{}
	for _, headers := range form.File {
		for _, file := range headers {
			name, err := storage.Save(file)
			if err != nil {
				return response.InternalError(c, "Failed to store file: "+err.Error())
			}
			names = append(names, name)
		}
	}

	return c.JSON(fiber.Map{"message": "success", "files": names})
}
