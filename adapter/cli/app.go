package cli

import (
	"github.com/google/uuid"

	"github.com/localift/engage/internal/catalog/registry"
	"github.com/localift/engage/internal/engagement/application"
	"github.com/localift/engage/internal/shared/infrastructure/database"
	"github.com/localift/engage/internal/shared/infrastructure/outbox"
	"github.com/localift/engage/pkg/config"
	"github.com/localift/engage/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Engagement facade
	Engagement *application.Service

	// Ruleset catalog
	Rulesets *registry.Registry

	// Outbox relay
	OutboxProcessor *outbox.Processor
	OutboxRepo      outbox.Repository

	// Platform
	Config  *config.Config
	DBConn  database.Connection
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	// Current location (configured per environment)
	DefaultLocationID uuid.UUID
}

// NewApp creates a new CLI application with the provided services.
func NewApp(engagement *application.Service, rulesets *registry.Registry, cfg *config.Config) *App {
	return &App{
		Engagement:        engagement,
		Rulesets:          rulesets,
		Config:            cfg,
		DefaultLocationID: uuid.Nil,
	}
}

// SetDefaultLocationID updates the location commands act on by default.
func (a *App) SetDefaultLocationID(id uuid.UUID) {
	a.DefaultLocationID = id
}

// SetOutboxProcessor updates the outbox processor.
func (a *App) SetOutboxProcessor(processor *outbox.Processor, repo outbox.Repository) {
	a.OutboxProcessor = processor
	a.OutboxRepo = repo
}

// SetDBConn updates the database connection.
func (a *App) SetDBConn(conn database.Connection) {
	a.DBConn = conn
}

// SetMetrics updates the metrics collector.
func (a *App) SetMetrics(metrics observability.Metrics) {
	a.Metrics = metrics
}

// SetHealth updates the health registry.
func (a *App) SetHealth(health *observability.HealthRegistry) {
	a.Health = health
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
