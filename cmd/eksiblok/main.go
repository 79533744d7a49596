// Command eksiblok batch-blocks or mutes every user who favorited an Ekşi
// Sözlük entry, with resumable progress and per-request rate limiting.
//
// Usage:
//
//	eksiblok -entry 123456 -action mute -title "başlık"   # run one batch job
//	eksiblok -resume                                      # continue an interrupted job
//	eksiblok -entry 123456 -list                          # dry run: list favoriters
//	eksiblok -serve                                       # control API + SSE progress
//
// A YAML config file (-config) supplies the session cookie, delays, and the
// note template.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sozlukcu/eksiblok/blok"
)

func main() {
	configPath := flag.String("config", "", "path to eksiblok.yaml config file")
	entryID := flag.String("entry", "", "entry id whose favoriters will be processed")
	action := flag.String("action", "mute", "relation to apply: mute or block")
	title := flag.String("title", "", "entry title used in notifications and user notes")
	resume := flag.Bool("resume", false, "resume an interrupted operation")
	list := flag.Bool("list", false, "dry run: list favoriters of -entry and exit")
	serve := flag.Bool("serve", false, "run the control API instead of a one-shot job")
	dbPath := flag.String("db", "", "override the SQLite database path")
	listen := flag.String("listen", "", "override the control API listen address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath, *dbPath, *listen)
	if err != nil {
		logger.Error("eksiblok: config", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, logger, cfg, *entryID, *action, *title, *resume, *list, *serve); err != nil {
		logger.Error("eksiblok: fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path, dbPath, listen string) (*blok.Config, error) {
	cfg := &blok.Config{}
	if path != "" {
		loaded, err := blok.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if listen != "" {
		cfg.Listen = listen
	}
	return cfg, nil
}

// selectMode validates the flag combination before any resources are opened.
func selectMode(entryID string, resume, list, serve bool) (string, error) {
	switch {
	case serve:
		return "serve", nil
	case list:
		if entryID == "" {
			return "", errors.New("-list requires -entry")
		}
		return "list", nil
	case resume:
		return "resume", nil
	case entryID != "":
		return "job", nil
	}
	return "", errors.New("usage: eksiblok -entry <id> [-action mute|block] | -resume | -entry <id> -list | -serve")
}

func run(ctx context.Context, logger *slog.Logger, cfg *blok.Config, entryID, action, title string, resume, list, serve bool) error {
	mode, err := selectMode(entryID, resume, list, serve)
	if err != nil {
		return err
	}

	svc, err := blok.New(cfg, logger, blok.WithNotifier(blok.NewStdoutNotifier(nil)))
	if err != nil {
		return err
	}
	defer svc.Close()

	switch mode {
	case "serve":
		return runServe(ctx, logger, cfg, svc)
	case "list":
		return runList(ctx, svc, entryID)
	case "resume":
		return runJob(ctx, svc, func() error { return svc.Resume(ctx, title) })
	default:
		return runJob(ctx, svc, func() error {
			return svc.Start(ctx, blok.StartRequest{
				EntryID:   entryID,
				Action:    blok.Action(action),
				PostTitle: title,
			})
		})
	}
}

// runJob starts or resumes a job and blocks until it finishes. A signal
// requests a cooperative stop; progress stays saved for a later -resume.
func runJob(ctx context.Context, svc *blok.Service, launch func() error) error {
	if err := launch(); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		svc.Stop()
	}()
	svc.Wait()
	return nil
}

func runList(ctx context.Context, svc *blok.Service, entryID string) error {
	urls, err := svc.Favorites(ctx, entryID)
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Println(u)
	}
	fmt.Fprintf(os.Stderr, "%d kullanıcı\n", len(urls))
	return nil
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *blok.Config, svc *blok.Service) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("control api listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	svc.Stop()
	svc.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
