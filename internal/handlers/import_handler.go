package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"claims-service/internal/importer"
	"claims-service/internal/models"
	"claims-service/internal/services"
	"claims-service/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ImportHandler struct {
	importService *services.ImportService
}

func NewImportHandler(importService *services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

func (h *ImportHandler) Register(app *fiber.App) {
	protectedGr := app.Group("claims/protected/api/v1")

	importGroup := protectedGr.Group("/imports")
	importGroup.Post("/", h.Upload)                        // POST   /imports
	importGroup.Get("/", h.ListSessions)                   // GET    /imports
	importGroup.Get("/:id", h.GetSession)                  // GET    /imports/:id
	importGroup.Get("/:id/error-report", h.GetErrorReport) // GET    /imports/:id/error-report
	importGroup.Get("/:id/log", h.GetLogFile)              // GET    /imports/:id/log
}

// tenancy resolves the importing user's country from the gateway headers.
func (h *ImportHandler) tenancy(c fiber.Ctx) (*models.Country, string, error) {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return nil, "", errors.New("User ID is required")
	}
	countryName := c.Get("X-User-Country")
	if countryName == "" {
		return nil, "", errors.New("User country is required")
	}
	country, err := h.importService.ResolveCountry(c.Context(), countryName)
	if err != nil {
		return nil, "", err
	}
	return country, userID, nil
}

// Upload receives the statement/recap file pair and queues an import session
func (h *ImportHandler) Upload(c fiber.Ctx) error {
	country, userID, err := h.tenancy(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", err.Error()))
	}

	statHeader, err := c.FormFile("stat_file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_FILE", "stat_file is required"))
	}
	recapHeader, err := c.FormFile("recap_file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("MISSING_FILE", "recap_file is required"))
	}

	statContent, err := readMultipartFile(statHeader)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("UNREADABLE_FILE", "Failed to read stat_file"))
	}
	recapContent, err := readMultipartFile(recapHeader)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("UNREADABLE_FILE", "Failed to read recap_file"))
	}

	session, err := h.importService.UploadAndStart(c.Context(), services.UploadInput{
		StatFileName:     statHeader.Filename,
		StatContent:      statContent,
		StatContentType:  statHeader.Header.Get("Content-Type"),
		RecapFileName:    recapHeader.Filename,
		RecapContent:     recapContent,
		RecapContentType: recapHeader.Header.Get("Content-Type"),
		CountryID:        country.ID,
		UploadedBy:       userID,
	})
	if err != nil {
		var missingErr *importer.MissingColumnsError
		switch {
		case errors.As(err, &missingErr):
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponseWithDetails("MISSING_COLUMNS", missingErr.Error(), map[string]any{
					"file":            missingErr.FileName,
					"missing_columns": missingErr.Missing,
				}))
		case errors.Is(err, importer.ErrUnsupportedFormat):
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("UNSUPPORTED_FORMAT", "Only xlsx, xls and csv files are supported"))
		case errors.Is(err, importer.ErrEmptyFile):
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("EMPTY_FILE", "Uploaded file contains no rows"))
		default:
			slog.Error("Failed to start import", "user_id", userID, "error", err)
			return c.Status(http.StatusInternalServerError).JSON(
				utils.CreateErrorResponse("IMPORT_START_FAILED", "Failed to start import session"))
		}
	}

	return c.Status(http.StatusAccepted).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"session":         session,
		"stat_file_size":  utils.FormatFileSize(int64(len(statContent))),
		"recap_file_size": utils.FormatFileSize(int64(len(recapContent))),
	}))
}

// GetSession returns one import session with its counters and status
func (h *ImportHandler) GetSession(c fiber.Ctx) error {
	country, _, err := h.tenancy(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", err.Error()))
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_ID", "Invalid session ID format"))
	}

	session, err := h.importService.GetSession(c.Context(), sessionID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", "Import session not found"))
	}
	if session.CountryID != country.ID {
		return c.Status(http.StatusForbidden).JSON(
			utils.CreateErrorResponse("FORBIDDEN", "Session belongs to another country"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"session": session,
	}))
}

// ListSessions returns the country's sessions, newest first
func (h *ImportHandler) ListSessions(c fiber.Ctx) error {
	country, _, err := h.tenancy(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", err.Error()))
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	var status *models.ImportStatus
	if raw := c.Query("status"); raw != "" {
		parsed := models.ImportStatus(raw)
		if !parsed.IsValid() {
			return c.Status(http.StatusBadRequest).JSON(
				utils.CreateErrorResponse("INVALID_STATUS", "Unknown import status"))
		}
		status = &parsed
	}

	sessions, err := h.importService.ListSessions(c.Context(), country.ID, status, limit, offset)
	if err != nil {
		slog.Error("Failed to list import sessions", "country_id", country.ID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve import sessions"))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	}))
}

// GetErrorReport presigns the non-conformity workbook download
func (h *ImportHandler) GetErrorReport(c fiber.Ctx) error {
	return h.presignArtifact(c, h.importService.ErrorReportURL, "error report")
}

// GetLogFile presigns the run log download
func (h *ImportHandler) GetLogFile(c fiber.Ctx) error {
	return h.presignArtifact(c, h.importService.LogFileURL, "log file")
}

func (h *ImportHandler) presignArtifact(c fiber.Ctx, presign func(ctx context.Context, id uuid.UUID) (string, error), label string) error {
	country, _, err := h.tenancy(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(
			utils.CreateErrorResponse("UNAUTHORIZED", err.Error()))
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_ID", "Invalid session ID format"))
	}

	session, err := h.importService.GetSession(c.Context(), sessionID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", "Import session not found"))
	}
	if session.CountryID != country.ID {
		return c.Status(http.StatusForbidden).JSON(
			utils.CreateErrorResponse("FORBIDDEN", "Session belongs to another country"))
	}

	url, err := presign(c.Context(), sessionID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", "Session has no "+label))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"url": url,
	}))
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
