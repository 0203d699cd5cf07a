package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/milhonews/milho/internal/app"
	"github.com/milhonews/milho/internal/digest"
	"github.com/milhonews/milho/internal/types"
)

// New builds the HTTP server for the site and its JSON API
func New(a *app.App, builder *digest.Builder, version string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(ctx, "request completed",
					"component", "server",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"request_id", v.RequestID,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(ctx, "request failed",
					"component", "server",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"request_id", v.RequestID,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	h := &handler{app: a, builder: builder, version: version}

	e.GET("/healthz", h.health)
	e.GET("/api/v1/posts", h.posts)
	e.GET("/api/v1/summary", h.summary)
	e.GET("/", h.index)
	e.GET("/:section", h.section)

	return e
}

type handler struct {
	app     *app.App
	builder *digest.Builder
	version string
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) index(c echo.Context) error {
	return h.render(c, h.app.DefaultSection().Name)
}

func (h *handler) section(c echo.Context) error {
	return h.render(c, c.Param("section"))
}

func (h *handler) render(c echo.Context, section string) error {
	page, err := h.app.Load(c.Request().Context(), section, c.QueryParam("q"))
	if err != nil {
		return toHTTPError(err)
	}

	d, err := h.builder.Build(page, h.app.Sections(), c.QueryParam("theme"))
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, d.HTMLBody)
}

type postsResponse struct {
	Section string       `json:"section"`
	Query   string       `json:"query"`
	Total   int          `json:"total"`
	Posts   []types.Post `json:"posts"`
}

func (h *handler) posts(c echo.Context) error {
	section := c.QueryParam("section")
	if section == "" {
		section = h.app.DefaultSection().Name
	}

	page, err := h.app.Load(c.Request().Context(), section, c.QueryParam("q"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, postsResponse{
		Section: page.Section.Name,
		Query:   page.Query,
		Total:   page.Total,
		Posts:   page.Posts,
	})
}

func (h *handler) summary(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"topics": h.app.Summary(c.Request().Context()),
	})
}

func toHTTPError(err error) error {
	if errors.Is(err, app.ErrUnknownSection) {
		return echo.NewHTTPError(http.StatusNotFound, "section not found")
	}
	return err
}
