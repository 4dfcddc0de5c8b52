// Package media provides the REST endpoints for media upload and deletion.
package media

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/media"
	"github.com/guardpost/guardpost/internal/web/handler"
	"github.com/guardpost/guardpost/internal/web/response"
)

// Path is the base path for media management.
const Path = handler.RootPath + "media"

// Service provides the media endpoints.
type Service struct {
	cfg          *config.Config
	mediaService *media.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. All media operations require authentication.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, mediaService *media.Service,
	authService *auth.Service, tokens *auth.TokenService,
) {
	if app == nil || cfg == nil || mediaService == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.mediaService = mediaService

	requireAuth := auth.RequireAuth(authService, tokens)

	app.Patch(Path+"/file/:folder", requireAuth, s.UploadFile)
	app.Patch(Path+"/files/:folder", requireAuth, s.UploadFiles)

	// object keys contain slashes, so the delete route takes a wildcard
	app.Delete(Path+"/*", requireAuth, s.Delete)
}

// UploadFile stores a single multipart file from the "file" form field.
func (s *Service) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "missing file form field")
	}

	object, err := s.upload(c.Params("folder"), fileHeader)

	switch {
	case errors.Is(err, media.ErrEmptyFile):
		return response.Fail(c, fiber.StatusBadRequest, media.ErrEmptyFile.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to upload file")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusCreated, object)
}

// UploadFiles stores all multipart files from the "files" form field.
func (s *Service) UploadFiles(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid multipart form")
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return response.Fail(c, fiber.StatusBadRequest, "missing files form field")
	}

	objects := make([]*media.Object, 0, len(fileHeaders))

	for _, fileHeader := range fileHeaders {
		object, err := s.upload(c.Params("folder"), fileHeader)

		switch {
		case errors.Is(err, media.ErrEmptyFile):
			return response.Fail(c, fiber.StatusBadRequest, media.ErrEmptyFile.Error())
		case err != nil:
			log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to upload file")

			return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
		}

		objects = append(objects, object)
	}

	return response.Success(c, fiber.StatusCreated, objects)
}

// Delete removes a stored object by its key.
func (s *Service) Delete(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return response.Fail(c, fiber.StatusBadRequest, "missing object key")
	}

	err := s.mediaService.Delete(key)

	switch {
	case errors.Is(err, media.ErrObjectNotFound):
		return response.Fail(c, fiber.StatusNotFound, media.ErrObjectNotFound.Error())
	case err != nil:
		log.Error().Err(err).Str("key", key).Msg("failed to delete object")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (s *Service) upload(folder string, fileHeader *multipart.FileHeader) (*media.Object, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return s.mediaService.Upload(folder, fileHeader.Filename, data)
}
