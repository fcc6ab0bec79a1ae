package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/geminiservice"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/imagecapture"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/utility"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

// FormField is the multipart field carrying the uploaded image.
const FormField = "image"

var apiStatus = map[error]int{
	geminiservice.ErrInvalidInput:  http.StatusBadRequest,
	geminiservice.ErrInference:     http.StatusBadGateway,
	geminiservice.ErrInvalidOutput: http.StatusBadGateway,
}

// page describes one analysis screen.
type page struct {
	template     string
	failTitle    string
	failMessage  string
	run          func(ctx context.Context, a Analyzer, in geminiservice.ImageInput) (interface{}, error)
	successFlash func(result interface{}) utility.Flash
}

var (
	classificationPage = page{
		template:    "rice_classification.html",
		failTitle:   "Classification Failed",
		failMessage: "Could not classify the rice image. Please try again.",
		run: func(ctx context.Context, a Analyzer, in geminiservice.ImageInput) (interface{}, error) {
			return Classify(ctx, a, in)
		},
		successFlash: func(result interface{}) utility.Flash {
			r := result.(ClassificationResult)
			return utility.Flash{
				Kind:    utility.FlashSuccess,
				Title:   "Classification Complete",
				Message: fmt.Sprintf("Rice classified as %s.", r.Classification),
			}
		},
	}

	diseasePage = page{
		template:    "disease_detection.html",
		failTitle:   "Detection Failed",
		failMessage: "Could not analyze the plant image. Please try again.",
		run: func(ctx context.Context, a Analyzer, in geminiservice.ImageInput) (interface{}, error) {
			return DetectDisease(ctx, a, in)
		},
		successFlash: func(result interface{}) utility.Flash {
			r := result.(DiseaseResult)
			if r.DiseaseDiagnosis.DiseaseDetected {
				return utility.Flash{
					Kind:    utility.FlashSuccess,
					Title:   "Disease Detection Complete",
					Message: "Potential diseases identified. View details below.",
				}
			}
			return utility.Flash{
				Kind:    utility.FlashSuccess,
				Title:   "No Disease Detected",
				Message: "The plant appears to be healthy based on the analysis.",
			}
		},
	}

	healthPage = page{
		template:    "health_check.html",
		failTitle:   "Assessment Failed",
		failMessage: "Could not assess plant health. Please try again.",
		run: func(ctx context.Context, a Analyzer, in geminiservice.ImageInput) (interface{}, error) {
			return AssessHealth(ctx, a, in)
		},
		successFlash: func(result interface{}) utility.Flash {
			r := result.(HealthResult)
			return utility.Flash{
				Kind:    utility.FlashSuccess,
				Title:   "Health Assessment Complete",
				Message: fmt.Sprintf("Plant health score: %g/100.", r.HealthScore),
			}
		},
	}
)

// Handler serves the analysis pages and their JSON API.
type Handler struct {
	analyzer      Analyzer
	sessions      sessions.Store
	maxUploadSize int64
}

func NewHandler(analyzer Analyzer, sessionStore sessions.Store, maxUploadSize int64) *Handler {
	return &Handler{analyzer: analyzer, sessions: sessionStore, maxUploadSize: maxUploadSize}
}

func (h *Handler) ClassificationPage(c echo.Context) error { return h.renderForm(c, classificationPage) }
func (h *Handler) ClassifyHandler(c echo.Context) error    { return h.submit(c, classificationPage) }

func (h *Handler) DiseasePage(c echo.Context) error          { return h.renderForm(c, diseasePage) }
func (h *Handler) DetectDiseaseHandler(c echo.Context) error { return h.submit(c, diseasePage) }

func (h *Handler) HealthPage(c echo.Context) error         { return h.renderForm(c, healthPage) }
func (h *Handler) AssessHealthHandler(c echo.Context) error { return h.submit(c, healthPage) }

func (h *Handler) renderForm(c echo.Context, p page) error {
	return utility.RenderPage(c, h.sessions, http.StatusOK, p.template, nil)
}

// submit runs capture, inference and suggestion lookup for an uploaded image.
// A rejected upload never reaches the model.
func (h *Handler) submit(c echo.Context, p page) error {
	logger := utility.Logger(c)

	fh, err := c.FormFile(FormField)
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			logger.Warn().Err(err).Msg("Could not read uploaded image")
		}
		return h.renderError(c, p, http.StatusBadRequest, "", utility.Flash{
			Kind:    utility.FlashError,
			Title:   "No Image",
			Message: "Please select an image first.",
		})
	}

	dataURI, err := imagecapture.FromFile(fh, h.maxUploadSize)
	if err != nil {
		return h.renderError(c, p, http.StatusBadRequest, "", utility.Flash{
			Kind:    utility.FlashError,
			Title:   "Upload Error",
			Message: err.Error(),
		})
	}

	result, err := p.run(c.Request().Context(), h.analyzer, geminiservice.ImageInput{PhotoDataURI: dataURI})
	if err != nil {
		status := utility.StatusFor(err, apiStatus)
		logger.Error().Err(err).Str("page", p.template).Int("status", status).Msg("Analysis failed")
		return h.renderError(c, p, status, dataURI, utility.Flash{
			Kind:    utility.FlashError,
			Title:   p.failTitle,
			Message: p.failMessage,
		})
	}

	logger.Info().Str("page", p.template).Msg("Analysis complete")
	return utility.RenderPage(c, h.sessions, http.StatusOK, p.template, map[string]interface{}{
		"preview": dataURI,
		"result":  result,
		"flashes": []utility.Flash{p.successFlash(result)},
	})
}

func (h *Handler) renderError(c echo.Context, p page, status int, preview string, f utility.Flash) error {
	data := map[string]interface{}{"flashes": []utility.Flash{f}}
	if preview != "" {
		data["preview"] = preview
	}
	return utility.RenderPage(c, h.sessions, status, p.template, data)
}

// APIClassifyHandler handles POST /api/v1/classify.
func (h *Handler) APIClassifyHandler(c echo.Context) error { return h.api(c, classificationPage) }

// APIDiseaseHandler handles POST /api/v1/disease.
func (h *Handler) APIDiseaseHandler(c echo.Context) error { return h.api(c, diseasePage) }

// APIHealthHandler handles POST /api/v1/health.
func (h *Handler) APIHealthHandler(c echo.Context) error { return h.api(c, healthPage) }

func (h *Handler) api(c echo.Context, p page) error {
	var in geminiservice.ImageInput
	if err := c.Bind(&in); err != nil {
		return utility.JSONError(c, http.StatusBadRequest, "Invalid request")
	}

	result, err := p.run(c.Request().Context(), h.analyzer, in)
	if err != nil {
		status := utility.StatusFor(err, apiStatus)
		if status == http.StatusBadRequest {
			return utility.JSONError(c, status, err.Error())
		}
		utility.Logger(c).Error().Err(err).Str("page", p.template).Msg("API analysis failed")
		return utility.JSONError(c, status, p.failMessage)
	}
	return c.JSON(http.StatusOK, result)
}
