// AngelaMos | 2026
// handler.go

package workflow

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sculptor/internal/core"
	"github.com/carterperez-dev/sculptor/internal/middleware"
	"github.com/carterperez-dev/sculptor/internal/providers"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/workflow", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/documents", h.IngestDocument)
		r.Post("/analyze", h.Analyze)
		r.Put("/entity", h.SelectEntity)

		r.Post("/image", h.GenerateImage)
		r.Get("/image", h.DownloadImage)

		r.Post("/model", h.GenerateModel)
		r.Post("/model/custom", h.GenerateModelFromUpload)
		r.Get("/model", h.DownloadModel)

		r.Get("/state", h.GetState)
	})
}

func (h *Handler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.IngestDocument(r.Context(), userID, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	resp, err := h.service.Analyze(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) SelectEntity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	var req SelectEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.SelectEntity(r.Context(), userID, req.Entity)
	if err != nil {
		respondError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	// Body is optional; an empty body means no style modifiers.
	var req GenerateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil &&
		!errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.GenerateImage(r.Context(), userID, req.Modifiers)
	if err != nil {
		respondError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	png, err := h.service.GetImage(userID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set(
		"Content-Disposition",
		`attachment; filename="generated_image.png"`,
	)
	//nolint:errcheck // best-effort response write
	_, _ = w.Write(png)
}

func (h *Handler) GenerateModel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	var req GenerateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil &&
		!errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.GenerateModel(
		r.Context(),
		userID,
		meshQuality(req.Quality),
		nil,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	core.OK(w, resp)
}

// GenerateModelFromUpload converts a caller-supplied image instead of
// the pipeline image. Quality rides along as an ordinary form field.
func (h *Handler) GenerateModelFromUpload(
	w http.ResponseWriter,
	r *http.Request,
) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		core.BadRequest(w, "invalid multipart body")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		core.BadRequest(w, "image file is required")
		return
	}
	defer file.Close() //nolint:errcheck // read-only file

	source, err := io.ReadAll(file)
	if err != nil {
		core.BadRequest(w, "failed to read image file")
		return
	}
	if len(source) == 0 {
		core.BadRequest(w, "image file is empty")
		return
	}

	req := GenerateModelRequest{Quality: r.FormValue("quality")}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.GenerateModel(
		r.Context(),
		userID,
		meshQuality(req.Quality),
		source,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) DownloadModel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	glb, err := h.service.GetModel(userID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "model/gltf-binary")
	w.Header().Set("Content-Disposition", `attachment; filename="model.glb"`)
	//nolint:errcheck // best-effort response write
	_, _ = w.Write(glb)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	resp, err := h.service.GetState(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	core.OK(w, resp)
}

func meshQuality(quality string) providers.MeshQuality {
	if quality == string(providers.MeshQualityFast) {
		return providers.MeshQualityFast
	}
	return providers.MeshQualityPointAware
}

func respondError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}
	core.InternalServerError(w, err)
}
