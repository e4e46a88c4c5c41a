package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"coffeehub/internal/config"
	"coffeehub/internal/http/handlers"
	applog "coffeehub/internal/log"
	"coffeehub/internal/payments"
	"coffeehub/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	pay := payments.NewStripeClient(cfg.StripeSecretKey, cfg.PaymentTimeout)
	sessionRepo := repos.NewSessionRepo(db)
	deps := handlers.NewDeps(db, cfg, pay)
	authSvc := deps.Auth
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and show a friendly message
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	// An unresolved cart choice blocks page navigation until decided.
	app.Use(func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		p := c.Path()
		if p == "/cart/choice" || p == "/login" || p == "/logout" ||
			strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/api/") ||
			strings.HasPrefix(p, "/checkout/webhook") {
			return c.Next()
		}
		if sid := c.Cookies("sid"); sid != "" {
			if pending, err := sessionRepo.PendingChoice(sid); err == nil && pending {
				return c.Redirect("/cart/choice")
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || p == "/checkout/webhook"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		// The payment processor cannot send a CSRF token; its requests
		// are authenticated by signature instead.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/checkout/webhook"
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")

	// Public pages
	app.Get("/", deps.ProductHandler.List)
	app.Get("/product/:id", deps.ProductHandler.Detail)

	// API
	api := app.Group("/api/v1")
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/availability", availLimiter, deps.ProductHandler.Availability)

	// Cart
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/update", deps.CartHandler.Update)
	app.Post("/cart/remove", deps.CartHandler.Remove)
	app.Get("/cart/choice", deps.CartHandler.ChoiceForm)
	app.Post("/cart/choice", deps.CartHandler.Choose)

	// Checkout
	app.Get("/checkout", deps.CheckoutHandler.Show)
	app.Post("/checkout/cache", deps.CheckoutHandler.Cache)
	app.Post("/checkout/complete", deps.CheckoutHandler.Complete)
	app.Post("/checkout/webhook", deps.WebhookHandler.Handle)

	// Orders
	app.Get("/order/:number", deps.OrderHandler.View)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Error": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Admin
	admin := app.Group("/admin")
	admin.Get("/", handlers.RequireCapability(authSvc, handlers.CapViewDashboard), deps.AdminHandler.Dashboard)
	admin.Get("/orders", handlers.RequireCapability(authSvc, handlers.CapManageOrders), deps.AdminHandler.OrdersPage)
	admin.Post("/orders/status", handlers.RequireCapability(authSvc, handlers.CapManageOrders), deps.AdminHandler.UpdateOrderStatus)
	admin.Get("/inventory", handlers.RequireCapability(authSvc, handlers.CapManageInventory), deps.AdminHandler.Inventory)
	admin.Post("/inventory", handlers.RequireCapability(authSvc, handlers.CapManageInventory), deps.AdminHandler.UpdateVariant)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
