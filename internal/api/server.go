// Package api exposes the command bus over HTTP for browser and remote UIs.
package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	historyin "pomodoro/internal/modules/history/adapter/in"
	historydomain "pomodoro/internal/modules/history/domain"
	timerin "pomodoro/internal/modules/timer/adapter/in"
	"pomodoro/internal/platform/bus"
	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/metrics"
)

const heartbeatInterval = 15 * time.Second

// ProblemDetail is the body of every non-command error response.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

type Server struct {
	app     *fiber.App
	bus     *bus.Bus
	addr    string
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewServer(addr string, b *bus.Bus, m *metrics.Metrics, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api").Logger()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})
	s := &Server{app: app, bus: b, addr: addr, logger: logger, metrics: m}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/metrics" {
			return c.Next()
		}
		s.logger.Debug().Str("method", c.Method()).Str("path", path).Msg("api request")
		return c.Next()
	})
}

func (s *Server) setupRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	v1 := s.app.Group("/api/v1")
	v1.Get("/actions", s.actions)
	v1.Post("/commands/:action", s.command)
	v1.Get("/events", s.events)
	v1.Get("/status", s.query(timerin.ActionGetStatus))
	v1.Get("/stats", s.query(historyin.ActionStats))
	v1.Get("/today", s.query(historyin.ActionToday))
	v1.Get("/projects", s.query(historyin.ActionProjectFilter))
	v1.Get("/history", s.history)
	v1.Get("/export/:format", s.export)
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("api server starting")
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	s.logger.Info().Msg("api server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) actions(c *fiber.Ctx) error {
	names := s.bus.Actions()
	sort.Strings(names)
	return c.JSON(fiber.Map{"actions": names})
}

// command runs one bus action. The body, if any, is the action params.
func (s *Server) command(c *fiber.Ctx) error {
	var params json.RawMessage
	if body := c.Body(); len(body) > 0 {
		if !json.Valid(body) {
			return s.respond(c, nil, apperrors.Invalid("body", "must be JSON"))
		}
		params = append(json.RawMessage(nil), body...)
	}
	data, err := s.bus.Exec(c.UserContext(), bus.Request{Action: c.Params("action"), Params: params})
	return s.respond(c, data, err)
}

func (s *Server) query(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := s.bus.Exec(c.UserContext(), bus.Request{Action: action})
		return s.respond(c, data, err)
	}
}

func (s *Server) history(c *fiber.Ctx) error {
	filter := historydomain.Filter{
		Project: c.Query("project"),
		Period:  historydomain.Period(c.Query("period")),
		Kind:    historydomain.Kind(c.Query("type")),
	}
	params, err := json.Marshal(filter)
	if err != nil {
		return err
	}
	data, err := s.bus.Exec(c.UserContext(), bus.Request{Action: historyin.ActionHistory, Params: params})
	return s.respond(c, data, err)
}

// export streams the file itself rather than the bus envelope.
func (s *Server) export(c *fiber.Ctx) error {
	var action string
	switch c.Params("format") {
	case "json":
		action = historyin.ActionExportJSON
	case "csv":
		action = historyin.ActionExportCSV
	default:
		return problem(c, fiber.StatusNotFound, "not_found", "Unknown export format", c.Params("format"))
	}
	var file historyin.ExportPayload
	if err := s.bus.Call(c.UserContext(), action, nil, &file); err != nil {
		return s.respond(c, nil, err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.SendString(file.Content)
}

// events streams bus events as server-sent events until the client leaves
// or the bus closes.
func (s *Server) events(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	id, ch := s.bus.Subscribe(64)
	logger := s.logger
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.bus.Unsubscribe(id)
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil || w.Flush() != nil {
			return
		}
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					logger.Debug().Err(err).Msg("event stream closed")
					return
				}
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil || w.Flush() != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, ev bus.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Server) respond(c *fiber.Ctx, data any, err error) error {
	if err != nil {
		return c.Status(statusFor(err)).JSON(bus.Response{Success: false, Error: err.Error()})
	}
	return c.JSON(bus.Response{Success: true, Data: data})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

func problem(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("unhandled error")
			detail = "An internal error occurred"
		}
		return problem(c, code, "request_error", http.StatusText(code), detail)
	}
}
