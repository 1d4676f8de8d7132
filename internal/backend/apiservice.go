package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/closetcam/internal/backend/colour"
	"github.com/jo-hoe/closetcam/internal/backend/database"
	"github.com/jo-hoe/closetcam/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	mimeJPEG = "image/jpeg"

	// maxUploadBytes caps a single multipart image.
	maxUploadBytes = 32 << 20
)

type APIService struct {
	coreService *core.CoreService
}

// PhotoResponse is a photo without image bytes; images are fetched by URL.
type PhotoResponse struct {
	ID                   string                    `json:"id"`
	Description          string                    `json:"description"`
	Object               string                    `json:"object"`
	GeneratedDescription *string                   `json:"generatedDescription,omitempty"`
	ImageURL             string                    `json:"imageUrl"`
	ThumbnailURL         string                    `json:"thumbnailUrl"`
	AssociatedPhotos     []AssociatedPhotoResponse `json:"associatedPhotos"`
}

type AssociatedPhotoResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

type PaletteEntryResponse struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type idsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type countResponse struct {
	Count int `json:"count"`
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	api := e.Group("/api")

	api.GET("/colours", s.paletteHandler)
	api.GET("/colours/classify", s.classifyHandler)
	api.POST("/colours/sample", s.sampleHandler)

	api.GET("/photos", s.listPhotosHandler)
	api.POST("/photos", s.capturePhotoHandler)
	api.DELETE("/photos", s.deletePhotosHandler)
	api.GET("/photos/:id", s.getPhotoHandler)
	api.PATCH("/photos/:id", s.updatePhotoHandler)
	api.GET("/photos/:id/image", s.imageHandler)
	api.GET("/photos/:id/thumbnail", s.thumbnailHandler)
	api.POST("/photos/:id/move", s.movePhotoHandler)
	api.POST("/photos/:id/description", s.generateDescriptionHandler)
	api.DELETE("/photos/:id/associated", s.removeAssociatedHandler)
	api.GET("/photos/:id/associated/:aid/image", s.associatedImageHandler)

	api.POST("/text-photos", s.addTextPhotoHandler)
}

func (s *APIService) paletteHandler(c echo.Context) error {
	palette := s.coreService.Palette()
	response := make([]PaletteEntryResponse, 0, len(palette))
	for _, entry := range palette {
		response = append(response, PaletteEntryResponse{Name: entry.Name, Hex: entry.Hex()})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIService) classifyHandler(c echo.Context) error {
	if hex := c.QueryParam("hex"); hex != "" {
		result, err := s.coreService.ClassifyHex(hex)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, result)
	}

	for _, name := range []string{"r", "g", "b"} {
		if c.QueryParam(name) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "either hex or all of r, g and b are required")
		}
	}
	var sample colour.SampledColor
	err := echo.QueryParamsBinder(c).
		Float64("r", &sample.R).
		Float64("g", &sample.G).
		Float64("b", &sample.B).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid colour channel: %v", err))
	}
	return c.JSON(http.StatusOK, s.coreService.ClassifyColour(sample))
}

func (s *APIService) sampleHandler(c echo.Context) error {
	data, err := readFormImage(c)
	if err != nil {
		return err
	}
	result, err := s.coreService.SampleImage(data)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *APIService) listPhotosHandler(c echo.Context) error {
	photos, err := s.coreService.ListPhotos()
	if err != nil {
		return toHTTPError(err)
	}
	response := make([]PhotoResponse, 0, len(photos))
	for _, photo := range photos {
		response = append(response, toPhotoResponse(photo))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIService) capturePhotoHandler(c echo.Context) error {
	data, err := readFormImage(c)
	if err != nil {
		return err
	}
	photo, err := s.coreService.Capture(c.Request().Context(), data, c.FormValue("object"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toPhotoResponse(photo))
}

func (s *APIService) addTextPhotoHandler(c echo.Context) error {
	data, err := readFormImage(c)
	if err != nil {
		return err
	}
	parentID := c.FormValue("parentId")
	photo, err := s.coreService.AddTextPhoto(c.Request().Context(), data, c.FormValue("text"), parentID)
	if err != nil {
		return toHTTPError(err)
	}
	status := http.StatusCreated
	if parentID != "" {
		status = http.StatusOK
	}
	return c.JSON(status, toPhotoResponse(photo))
}

func (s *APIService) getPhotoHandler(c echo.Context) error {
	photo, err := s.coreService.GetPhoto(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toPhotoResponse(photo))
}

func (s *APIService) updatePhotoHandler(c echo.Context) error {
	var update core.PhotoUpdate
	if err := (&echo.DefaultBinder{}).BindBody(c, &update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	photo, err := s.coreService.UpdatePhoto(c.Param("id"), update)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toPhotoResponse(photo))
}

func (s *APIService) deletePhotosHandler(c echo.Context) error {
	request, err := bindIDs(c)
	if err != nil {
		return err
	}
	deleted, err := s.coreService.DeletePhotos(request.IDs)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: deleted})
}

func (s *APIService) removeAssociatedHandler(c echo.Context) error {
	request, err := bindIDs(c)
	if err != nil {
		return err
	}
	removed, err := s.coreService.RemoveAssociatedPhotos(c.Param("id"), request.IDs)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: removed})
}

func (s *APIService) movePhotoHandler(c echo.Context) error {
	if err := s.coreService.MovePhoto(c.Param("id"), c.QueryParam("dir")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) generateDescriptionHandler(c echo.Context) error {
	photo, err := s.coreService.GenerateDescription(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toPhotoResponse(photo))
}

func (s *APIService) imageHandler(c echo.Context) error {
	data, err := s.coreService.GetImage(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Blob(http.StatusOK, mimeJPEG, data)
}

func (s *APIService) thumbnailHandler(c echo.Context) error {
	data, err := s.coreService.GetThumbnail(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Blob(http.StatusOK, mimeJPEG, data)
}

func (s *APIService) associatedImageHandler(c echo.Context) error {
	data, err := s.coreService.GetAssociatedImage(c.Param("id"), c.Param("aid"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Blob(http.StatusOK, mimeJPEG, data)
}

func bindIDs(c echo.Context) (*idsRequest, error) {
	var request idsRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &request); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	if err := c.Validate(&request); err != nil {
		return nil, err
	}
	return &request, nil
}

func readFormImage(c echo.Context) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		slog.Debug("missing image upload", "error", err)
		return nil, echo.NewHTTPError(http.StatusBadRequest, "multipart field 'image' is required")
	}
	if file.Size > maxUploadBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image is too large")
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("failed to open uploaded file", "error", err, "filename", file.Filename)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		slog.Error("failed to read uploaded file", "error", err, "filename", file.Filename)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to read uploaded file")
	}
	return data, nil
}

func toPhotoResponse(photo *database.Photo) PhotoResponse {
	response := PhotoResponse{
		ID:                   photo.ID,
		Description:          photo.Description,
		Object:               photo.Object,
		GeneratedDescription: photo.GeneratedDescription,
		ImageURL:             "/api/photos/" + photo.ID + "/image",
		ThumbnailURL:         "/api/photos/" + photo.ID + "/thumbnail",
		AssociatedPhotos:     make([]AssociatedPhotoResponse, 0, len(photo.AssociatedPhotos)),
	}
	for _, associated := range photo.AssociatedPhotos {
		response.AssociatedPhotos = append(response.AssociatedPhotos, AssociatedPhotoResponse{
			ID:       associated.ID,
			Text:     associated.Text,
			ImageURL: "/api/photos/" + photo.ID + "/associated/" + associated.ID + "/image",
		})
	}
	return response
}

// toHTTPError maps core errors to status codes; anything unexpected is logged as a 500.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrDescriberUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
