package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/balkashynov/bitelog/internal/capture"
	"github.com/balkashynov/bitelog/internal/config"
	"github.com/balkashynov/bitelog/internal/db"
	"github.com/balkashynov/bitelog/internal/hardware"
	"github.com/balkashynov/bitelog/internal/metadata"
	"github.com/balkashynov/bitelog/internal/parser"
	"github.com/balkashynov/bitelog/internal/session"
)

// app bundles what every command needs: config, database, metadata store,
// simulated hardware and the session controller.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	meta    *metadata.Store
	markers *db.MarkerStore
	camera  *hardware.SimCamera
	motion  *hardware.SimMotion
	ctrl    *session.Controller
	logger  *slog.Logger
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openApp(cmd *cobra.Command) (*app, error) {
	logger := newLogger(cmd)
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	defaultCat, err := parser.ParseCategory(cfg.DefaultCategory)
	if err != nil {
		return nil, fmt.Errorf("default_category: %w", err)
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	meta, err := metadata.NewStore(db.NewMetadataBackend(conn))
	if err != nil {
		db.Close(conn)
		return nil, err
	}
	markers := db.NewMarkerStore(conn)

	a := &app{
		cfg:     cfg,
		db:      conn,
		meta:    meta,
		markers: markers,
		camera:  hardware.NewSimCamera(cfg.CameraFPS),
		motion:  hardware.NewSimMotion(cfg.MotionHz),
		logger:  logger,
	}
	a.ctrl = session.New(a.camera, a.motion, capture.NewFrameFileWriter, meta, session.Options{
		Dir:             cfg.SessionsDir,
		VideoExt:        cfg.VideoExt,
		FlushInterval:   cfg.FlushInterval,
		PollInterval:    cfg.PollInterval,
		ProbeTimeout:    cfg.ProbeTimeout,
		DefaultCategory: defaultCat,
		Markers:         markers,
		Logger:          logger,
	})
	return a, nil
}

func (a *app) Close() {
	a.ctrl.Shutdown()
	if err := db.Close(a.db); err != nil {
		a.logger.Warn("close database", "err", err)
	}
}

// withApp wraps a command function to open the app first
func withApp(fn func(*cobra.Command, []string, *app)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		a, err := openApp(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer a.Close()
		fn(cmd, args, a)
	}
}

// toggleMotion flips the simulated motion device between connected and lost.
func (a *app) toggleMotion() {
	a.motion.SetAvailable(!a.motion.Available())
}
