// Package api exposes the controller over HTTP and WebSocket.
package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/rovcontrol/domain/diagnostic"
	"github.com/open-teleop/rovcontrol/domain/teleop"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/services"
)

// AppName is reported by the root endpoint.
const AppName = "ROV Thrust Controller"

// Services bundles what the routes need. A nil Teleop disables the control
// routes; the control loop then only listens on the serial link.
type Services struct {
	Config      services.VehicleConfigService
	Diagnostics *diagnostic.DiagnosticService
	Teleop      *teleop.TeleopService
	Logger      customlog.Logger
	AccessLog   bool
}

// NewApp builds the Fiber app with all routes registered.
func NewApp(svcs Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               AppName,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	if svcs.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": AppName,
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/thrusters", svcs.Diagnostics.GetStatusHandler)

	RegisterConfigRoutes(app, svcs.Config, svcs.Logger)

	if svcs.Teleop != nil {
		v1.Post("/teleop/command", svcs.Teleop.CommandHandler)

		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
			ControlWebSocketHandler(conn, svcs.Logger, svcs.Teleop)
		}))
	}

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
