package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dayblocks/internal/auth"
	"dayblocks/internal/config"
	"dayblocks/internal/gateway"
	"dayblocks/internal/google"
	"dayblocks/internal/icloud"
	"dayblocks/internal/locale"
	"dayblocks/internal/models"
	"dayblocks/internal/schedule"
	"dayblocks/internal/session"
	"dayblocks/internal/web"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "dayblocks",
		Usage: "Fill a day of Google Calendar with a fixed routine.",
		Commands: []*cli.Command{
			serveCommand(),
			previewCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web application.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "Address to listen on. Overrides LISTEN_ADDR."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if c.IsSet("listen") {
				cfg.ListenAddr = c.String("listen")
			}
			logger := setupLogger(cfg.LogLevel)

			template, err := loadTemplate(cfg.TemplatePath)
			if err != nil {
				return err
			}
			catalog, err := locale.NewCatalog(cfg.DefaultLanguage)
			if err != nil {
				return fmt.Errorf("failed to load translations: %w", err)
			}

			store := session.NewStore(cfg.SessionTTL, nil)
			sessions := session.NewManager(store, cfg.SessionSecret, cfg.SecureCookie, cfg.SessionTTL, logger)

			oauthConfig := google.NewOAuthConfig(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL)
			provider := google.NewProvider(oauthConfig, logger)
			controller := auth.NewController(oauthConfig, provider.Email, logger)

			var mirror gateway.CalendarService
			if cfg.CalDAV.Enabled() {
				client, err := icloud.NewClient(c.Context, logger, cfg.CalDAV.Endpoint, cfg.CalDAV.Username, cfg.CalDAV.Password, cfg.CalDAV.Calendar)
				if err != nil {
					return fmt.Errorf("failed to create caldav client: %w", err)
				}
				mirror = client
				logger.Info("Mirroring schedules to CalDAV.", "calendar", cfg.CalDAV.Calendar)
			}

			server := web.NewServer(web.Options{
				Sessions: sessions,
				Auth:     controller,
				Gateway:  gateway.NewGateway(logger, gateway.GoogleServices(provider), mirror),
				Catalog:  catalog,
				Template: template,
				Timezone: cfg.Timezone,
				Logger:   logger,
			})

			return serve(c.Context, logger, cfg.ListenAddr, server.Handler())
		},
	}
}

func serve(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening.", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Print the events a day would get without contacting Google.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Day to materialize as YYYY-MM-DD. Defaults to today."},
			&cli.StringFlag{Name: "timezone", Usage: "IANA timezone. Defaults to PRIMARY_TIMEZONE or UTC."},
			&cli.StringFlag{Name: "template", Usage: "YAML schedule template. Defaults to SCHEDULE_TEMPLATE or the built-in day."},
			&cli.BoolFlag{Name: "ics", Usage: "Write an iCalendar document instead of a table."},
		},
		Action: func(c *cli.Context) error {
			tzStr := c.String("timezone")
			if tzStr == "" {
				tzStr = os.Getenv("PRIMARY_TIMEZONE")
			}
			if tzStr == "" {
				tzStr = "UTC"
			}
			loc, err := time.LoadLocation(tzStr)
			if err != nil {
				return fmt.Errorf("invalid timezone '%s': %w", tzStr, err)
			}

			day := time.Now().In(loc)
			if v := c.String("date"); v != "" {
				day, err = time.ParseInLocation(time.DateOnly, v, loc)
				if err != nil {
					return fmt.Errorf("invalid date '%s': %w", v, err)
				}
			}

			path := c.String("template")
			if path == "" {
				path = os.Getenv("SCHEDULE_TEMPLATE")
			}
			template, err := loadTemplate(path)
			if err != nil {
				return err
			}

			events := schedule.Materialize(template, day, loc)
			if c.Bool("ics") {
				return schedule.EncodeICS(os.Stdout, events, time.Now())
			}
			printEvents(events)
			return nil
		},
	}
}

func printEvents(events []models.Event) {
	for _, ev := range events {
		fmt.Printf("%s  %s - %s  %s\n",
			ev.StartTime.Format(time.DateOnly),
			ev.StartTime.Format("15:04"),
			ev.EndTime.Format("15:04"),
			ev.Title)
	}
}

func loadTemplate(path string) ([]models.ScheduleEntry, error) {
	if path == "" {
		return schedule.DefaultTemplate(), nil
	}
	entries, err := schedule.LoadTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule template: %w", err)
	}
	return entries, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
