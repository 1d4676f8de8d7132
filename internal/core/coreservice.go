package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jo-hoe/closetcam/internal/backend/colour"
	"github.com/jo-hoe/closetcam/internal/backend/commands"
	"github.com/jo-hoe/closetcam/internal/backend/commandstructure"
	"github.com/jo-hoe/closetcam/internal/backend/database"
	"github.com/jo-hoe/closetcam/internal/backend/describe"
	"github.com/jo-hoe/closetcam/internal/backend/imagestore"
	"github.com/jo-hoe/closetcam/internal/backend/vision"
	"github.com/spf13/afero"
)

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	images          *imagestore.Store
	classifier      *colour.Classifier
	pipeline        *commandstructure.CommandInvoker
	thumbnailer     commandstructure.Command

	describer      describe.Describer
	textRecognizer vision.TextRecognizer
	objectDetector vision.ObjectDetector

	// serialises read-modify-write sequences on the library order
	orderMu sync.Mutex
}

type options struct {
	fs             afero.Fs
	describer      describe.Describer
	textRecognizer vision.TextRecognizer
	objectDetector vision.ObjectDetector
}

type Option func(*options)

// WithFs stores images on fsys instead of the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(o *options) { o.fs = fsys }
}

// WithDescriber overrides the describer built from configuration.
func WithDescriber(d describe.Describer) Option {
	return func(o *options) { o.describer = d }
}

func WithTextRecognizer(r vision.TextRecognizer) Option {
	return func(o *options) { o.textRecognizer = r }
}

func WithObjectDetector(d vision.ObjectDetector) Option {
	return func(o *options) { o.objectDetector = d }
}

func NewCoreService(ctx context.Context, config *ServiceConfig, opts ...Option) (*CoreService, error) {
	o := &options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(o)
	}

	pipeline, err := buildPipeline(config)
	if err != nil {
		return nil, err
	}
	thumbnailer, err := commands.NewThumbnailCommand(config.ThumbnailWidth, config.JpegQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail command: %w", err)
	}
	images, err := imagestore.NewStoreWithFs(o.fs, config.ImageDirectory)
	if err != nil {
		return nil, err
	}

	service := &CoreService{
		config:         config,
		images:         images,
		classifier:     colour.NewClassifier(colour.DefaultPalette, colour.DefaultThreshold),
		pipeline:       pipeline,
		thumbnailer:    thumbnailer,
		describer:      o.describer,
		textRecognizer: o.textRecognizer,
		objectDetector: o.objectDetector,
	}
	if err := service.connectRemoteBackends(ctx); err != nil {
		return nil, err
	}

	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}
	service.databaseService = databaseService

	if _, err := service.Reconcile(); err != nil {
		_ = databaseService.Close()
		return nil, err
	}
	return service, nil
}

func (service *CoreService) Close() error {
	return service.databaseService.Close()
}

// Config returns the configuration the service was built with.
func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

// buildPipeline converts uploads to JPEG first, then applies the configured commands.
func buildPipeline(config *ServiceConfig) (*commandstructure.CommandInvoker, error) {
	converter, err := commands.NewJpegConverterCommandWithQuality(config.JpegQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to create jpeg converter: %w", err)
	}
	configured, err := commandstructure.NewCommandsFromConfigs(commandstructure.DefaultRegistry, config.commandConfigs())
	if err != nil {
		return nil, err
	}

	pipeline := commandstructure.NewCommandInvoker(append([]commandstructure.Command{converter}, configured...))
	slog.Debug("upload pipeline configured", "commands", pipeline.Names())
	return pipeline, nil
}

func (service *CoreService) connectRemoteBackends(ctx context.Context) error {
	if service.describer == nil && service.config.Describer.Provider != "" {
		d, err := describe.NewDescriber(ctx, service.config.Describer)
		if err != nil {
			return fmt.Errorf("failed to initialize describer: %w", err)
		}
		service.describer = d
		slog.Info("describer initialized", "provider", service.config.Describer.Provider)
	}

	if service.config.Vision.URL != "" && (service.textRecognizer == nil || service.objectDetector == nil) {
		client, err := vision.NewOllamaClient(service.config.Vision)
		if err != nil {
			return fmt.Errorf("failed to initialize vision client: %w", err)
		}
		if service.textRecognizer == nil {
			service.textRecognizer = client
		}
		if service.objectDetector == nil {
			service.objectDetector = client
		}
		slog.Info("vision backend initialized", "url", service.config.Vision.URL)
	}
	return nil
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

// Reconcile drops records whose image file is gone and returns how many were dropped.
func (service *CoreService) Reconcile() (int, error) {
	photos, err := service.databaseService.GetPhotos()
	if err != nil {
		return 0, fmt.Errorf("failed to load photos: %w", err)
	}
	dropped := 0
	for _, photo := range photos {
		if service.images.Exists(photo.ID) {
			continue
		}
		slog.Warn("dropping photo without image file", "id", photo.ID, "path", service.images.Path(photo.ID))
		if err := service.databaseService.DeletePhoto(photo.ID); err != nil {
			return dropped, fmt.Errorf("failed to drop photo %s: %w", photo.ID, err)
		}
		dropped++
	}
	if dropped > 0 {
		slog.Info("library reconciled", "dropped", dropped, "remaining", len(photos)-dropped)
	}
	return dropped, nil
}
