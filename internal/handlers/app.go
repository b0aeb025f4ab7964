package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/views"
)

type AppConfig struct {
	Logger *logrus.Logger
	// UploadDir is served under UploadURL when set.
	UploadDir string
	UploadURL string
}

// NewApp builds the Fiber app with every route registered.
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	engine.AddFuncMap(templateFuncs)

	app := fiber.New(fiber.Config{
		Views:                 engine,
		DisableStartupMessage: true,
		BodyLimit:             20 * 1024 * 1024, // inline images
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(gateway.Envelope{
				Status:  gateway.StatusError,
				Code:    http.StatusText(code),
				Message: err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	if cfg.Logger != nil {
		app.Use(logger.New(logger.Config{
			Output: cfg.Logger.WriterLevel(logrus.InfoLevel),
			Format: "${pid} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
		}))
	}

	if cfg.UploadDir != "" && cfg.UploadURL != "" {
		app.Static(cfg.UploadURL, cfg.UploadDir)
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/receipts/:id", h.Receipt)

	api := app.Group("/api/v1")
	api.Get("/health", Health)
	api.Post("/login", h.Login)
	api.Get("/me", h.auth.StaffProtected(), h.GetProfile)

	exec := api.Group("/exec", h.auth.Identify())
	exec.Get("", h.ExecGet)
	exec.Post("", h.ExecPost)

	return app
}
