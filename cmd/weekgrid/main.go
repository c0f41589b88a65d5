package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"weekgrid/internal/capture"
	"weekgrid/internal/config"
	"weekgrid/internal/export"
	applog "weekgrid/internal/log"
	"weekgrid/internal/schedule"
	"weekgrid/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	inputPath  string
	outPath    string
	once       bool
	debug      bool
}

func main() {
	applog.Info("weekgrid starting", "version", version)

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	applog.SetLevel(applog.ParseLevel(conf.LogLevel))

	applog.Info("effective config",
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"pixels_per_hour", conf.Layout.PixelsPerHour,
		"collapse_minutes", conf.Layout.CollapseMinutes,
		"once", flags.once,
	)

	store := schedule.NewStore()
	if flags.inputPath != "" {
		if err := loadInput(store, flags.inputPath); err != nil {
			applog.Error("failed to load input", err, "path", flags.inputPath)
			os.Exit(1)
		}
	}

	captureFn := func(ctx context.Context, url string) ([]byte, error) {
		return capture.GridPNG(ctx, capture.Options{
			URL:     url,
			Width:   conf.Capture.Width,
			Height:  conf.Capture.Height,
			Timeout: time.Duration(conf.Capture.TimeoutSeconds) * time.Second,
		})
	}
	server := web.NewServer(conf, store, captureFn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		applog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	exitCode := 0
	if flags.once {
		// Single-shot pipeline: the server only exists as the render
		// surface for the capture.
		if err := runOnce(ctx, server, conf, flags.outPath); err != nil {
			applog.Error("export pipeline failed", err)
			exitCode = 1
		}
		cancel()
	} else {
		var c *cron.Cron
		if conf.RefreshCron != "" {
			c = cron.New()
			_, err := c.AddFunc(conf.RefreshCron, func() {
				if err := server.RefreshPreview(ctx); err != nil {
					applog.Error("scheduled preview refresh failed", err)
				}
			})
			if err != nil {
				applog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
			} else {
				c.Start()
				applog.Info("preview refresh scheduled", "refresh", conf.RefreshCron)
			}
		}

		select {
		case <-ctx.Done():
		case err := <-serveErr:
			applog.Error("HTTP server failed", err)
			exitCode = 1
		}

		if c != nil {
			c.Stop()
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		applog.Error("HTTP shutdown failed", err)
	}

	applog.Info("weekgrid exiting")
	os.Exit(exitCode)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "weekgrid.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.inputPath, "input", "", "CSV/TSV schedule file to load at startup")
	flag.StringVar(&cfg.outPath, "out", "weekgrid.pdf", "PDF output path (once mode)")
	flag.BoolVar(&cfg.once, "once", false, "Import, render, export a PDF and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func loadInput(store *schedule.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	n, err := store.ReplaceFromText(string(data))
	if err != nil {
		return err
	}
	applog.Info("schedule loaded", "path", path, "events", n)
	return nil
}

// runOnce waits for the HTTP server to come up, captures the grid and
// writes the assembled PDF to outPath.
func runOnce(ctx context.Context, server *web.Server, conf *config.Config, outPath string) error {
	if err := waitForServer(ctx, "http://"+conf.Listen+"/health"); err != nil {
		return err
	}

	if err := server.RefreshPreview(ctx); err != nil {
		return err
	}
	png, ok := server.Preview()
	if !ok {
		return errors.New("capture produced no image")
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	err = export.GridPDF(f, png, export.PDFOptions{
		Orientation: conf.PDF.Orientation,
		PageSize:    conf.PDF.PageSize,
		MarginMM:    conf.PDF.MarginMM,
	})
	if err != nil {
		return err
	}
	applog.Info("PDF written", "path", outPath)
	return nil
}

func waitForServer(ctx context.Context, url string) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("server did not become ready")
}
