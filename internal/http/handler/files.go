package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"ragsearch/internal/service"
)

const pendingIndexMessage = "File stored; indexing is pending, call POST /files/reindex to complete it"

// UploadFile stores a .txt file, charges the caller's storage and indexes it.
// When indexing fails after the file was stored the answer is 202 with
// indexed=false; POST /files/reindex finishes the job, and uploading again
// would store and charge a second copy.
//
// @Summary Upload a text file
// @Tags Files
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "UTF-8 .txt file"
// @Success 201 {object} uploadResponse
// @Success 202 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /upload [post]
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerOf(c)
		if err != nil {
			return respondError(c, err)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
		}

		res, err := svc.Upload(c.UserContext(), owner, service.UploadInput{FileName: fh.Filename, Content: content})
		if err != nil {
			return respondError(c, err)
		}

		status, message := fiber.StatusCreated, "File uploaded successfully"
		if !res.File.Indexed() {
			status, message = fiber.StatusAccepted, pendingIndexMessage
		}
		return c.Status(status).JSON(uploadResponse{
			Message:        message,
			FileID:         res.File.ID,
			FileName:       res.File.DisplayName,
			ProjectName:    res.File.ProjectName,
			SizeKB:         res.File.SizeKB,
			Tags:           res.File.Tags,
			TotalStorageKB: res.TotalKB,
			Indexed:        res.File.Indexed(),
		})
	}
}

// ListFiles returns the caller's files in upload order.
//
// @Summary List files
// @Tags Files
// @Security BearerAuth
// @Produce json
// @Success 200 {object} filesResponse
// @Failure 401 {object} errorPayload
// @Router /files [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerOf(c)
		if err != nil {
			return respondError(c, err)
		}

		files, err := svc.List(c.UserContext(), owner)
		if err != nil {
			return respondError(c, err)
		}

		out := filesResponse{Files: make([]fileInfo, 0, len(files)), Count: len(files)}
		for _, f := range files {
			out.Files = append(out.Files, fileInfo{
				ID:          f.ID,
				FileName:    f.DisplayName,
				ProjectName: f.ProjectName,
				SizeKB:      f.SizeKB,
				UploadTime:  f.CreatedAt,
				Tags:        f.Tags,
				Indexed:     f.Indexed(),
			})
		}
		return c.JSON(out)
	}
}

// ReindexFiles retries remote indexing for the caller's pending files.
//
// @Summary Re-index pending files
// @Tags Files
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.ReindexResult
// @Failure 401 {object} errorPayload
// @Router /files/reindex [post]
func ReindexFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerOf(c)
		if err != nil {
			return respondError(c, err)
		}

		res, err := svc.Reindex(c.UserContext(), owner)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// GetStorage returns the caller's storage total.
//
// @Summary Storage usage
// @Tags Storage
// @Security BearerAuth
// @Produce json
// @Success 200 {object} storageResponse
// @Failure 401 {object} errorPayload
// @Router /storage [get]
func GetStorage(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerOf(c)
		if err != nil {
			return respondError(c, err)
		}

		acc, err := svc.Storage(c.UserContext(), owner)
		if err != nil {
			return respondError(c, err)
		}

		res := storageResponse{UserID: owner, TotalStorageKB: acc.TotalKB}
		if !acc.UpdatedAt.IsZero() {
			t := acc.UpdatedAt
			res.LastUpdated = &t
		}
		return c.JSON(res)
	}
}
