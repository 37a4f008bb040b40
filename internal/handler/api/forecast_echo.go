package api

import (
	"context"
	"errors"
	"fmt"

	"ForecastAPI/internal/domain/models"
	"ForecastAPI/internal/usecase"
	xhttp "ForecastAPI/pkg/http"
	applogger "ForecastAPI/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Public error messages. Internal details stay in the logs.
const (
	msgModelUnavailable = "model is not available on the server"
	msgInferenceFailed  = "internal error while processing the model"
)

// Predictor is the inference side of the service.
type Predictor interface {
	Predict(ctx context.Context, w models.Window) (models.Prediction, error)
	Health() models.HealthStatus
}

// SampleSource returns the latest window of closes.
type SampleSource interface {
	Get(ctx context.Context) models.Series
}

// ForecastEchoHandler serves the forecast endpoints.
type ForecastEchoHandler struct {
	logger    *applogger.Logger
	predictor Predictor
	samples   SampleSource
}

func NewForecastEchoHandler(logger *applogger.Logger, p Predictor, s SampleSource) *ForecastEchoHandler {
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &ForecastEchoHandler{logger: logger, predictor: p, samples: s}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/sample-data", h.SampleData)
	e.POST("/predict", h.Predict)
}

// Health always answers 200; the body says whether the model is usable.
func (h *ForecastEchoHandler) Health(c echo.Context) error {
	st := h.predictor.Health()
	if !st.ModelLoaded {
		return xhttp.SuccessResponse(c, models.HealthResponse{Status: "error", Detail: st.Detail})
	}
	loaded := true
	return xhttp.SuccessResponse(c, models.HealthResponse{Status: "healthy", ModelLoaded: &loaded})
}

func (h *ForecastEchoHandler) SampleData(c echo.Context) error {
	s := h.samples.Get(c.Request().Context())
	res := models.SampleDataResponse{Last60Days: s.Closes, Source: s.Source}
	if s.IsFallback() {
		res.Note = models.FallbackNote
		if s.Reason != "" {
			res.Note = fmt.Sprintf("%s (%s)", models.FallbackNote, s.Reason)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	p, err := h.predictor.Predict(c.Request().Context(), models.Window(req.Last60Days))
	if err != nil {
		return xhttp.AppErrorResponse(c, h.mapError(err))
	}
	h.logger.Info("prediction served",
		applogger.String("ticker", p.Ticker),
		applogger.Float64("price_brl", p.PriceBRL),
	)
	return xhttp.SuccessResponse(c, models.PredictResponse{
		Ticker:            p.Ticker,
		PredictedPriceBRL: p.PriceBRL,
		Status:            p.Status,
	})
}

func (h *ForecastEchoHandler) mapError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrModelUnavailable):
		return xhttp.ServiceUnavailableError(msgModelUnavailable).WithError(err)
	case errors.Is(err, models.ErrWindowLength), errors.Is(err, models.ErrWindowValue):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	default:
		h.logger.Error("predict failed", applogger.Error(err))
		return xhttp.InternalError(msgInferenceFailed).WithError(err)
	}
}
