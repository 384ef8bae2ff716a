package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/toxscore/internal/analyzer"
	"github.com/rs/zerolog"
)

// Analyzer is the pipeline the handler drives.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*analyzer.Result, error)
}

type AnalyzeHandler struct {
	Analyzer Analyzer
	Logger   zerolog.Logger
}

func (h *AnalyzeHandler) Register(g *echo.Group) {
	g.GET("/analyze", h.analyze)
}

func (h *AnalyzeHandler) analyze(c echo.Context) error {
	target := c.QueryParam("url")
	if target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, analyzer.ErrNoURL.Error())
	}

	res, err := h.Analyzer.Analyze(c.Request().Context(), target)
	if err != nil {
		var ae *analyzer.Error
		if errors.As(err, &ae) {
			msg := ae.Error()
			if ae.Kind.HTTPStatus() >= http.StatusInternalServerError {
				h.Logger.Error().Err(err).Str("kind", ae.Kind.String()).Str("url", target).Msg("analysis failed")
			}
			return echo.NewHTTPError(ae.Kind.HTTPStatus(), msg).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, res.Report)
}
