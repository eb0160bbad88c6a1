package app

import (
	"context"
	"fmt"

	"github.com/talenthive/recruiting_layer/internal/app/attachments"
	"github.com/talenthive/recruiting_layer/internal/app/metrics"
	"github.com/talenthive/recruiting_layer/internal/app/notify"
	"github.com/talenthive/recruiting_layer/internal/app/services/applications"
	"github.com/talenthive/recruiting_layer/internal/app/storage"
	"github.com/talenthive/recruiting_layer/internal/app/storage/memory"
	"github.com/talenthive/recruiting_layer/internal/app/system"
	"github.com/talenthive/recruiting_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Applications storage.ApplicationStore
	Jobs         storage.JobStore
	Candidates   storage.CandidateStore
}

// Options carries optional collaborators for the lifecycle engine. Nil
// fields select sensible defaults: in-memory blob storage, no external
// notifications, candidate-only withdrawal policy.
type Options struct {
	Blobs         attachments.Store
	Notifier      notify.Notifier
	Authorizer    applications.Authorizer
	SweepSchedule string
}

// Application ties the domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Applications *applications.Service
	Sweeper      *attachments.Sweeper
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Applications == nil {
		stores.Applications = mem
	}
	if stores.Jobs == nil {
		stores.Jobs = mem
	}
	if stores.Candidates == nil {
		stores.Candidates = mem
	}

	blobs := opts.Blobs
	if blobs == nil {
		blobs = attachments.NewMemory()
	}

	manager := system.NewManager()

	sweeper := attachments.NewSweeper(blobs, log, opts.SweepSchedule, metrics.CleanupFailures)
	if err := manager.Register(sweeper); err != nil {
		return nil, fmt.Errorf("register %s: %w", sweeper.Name(), err)
	}

	appService := applications.New(stores.Applications, stores.Jobs, stores.Candidates, log)
	appService.AttachStorage(blobs, sweeper)
	if opts.Notifier != nil {
		appService.AttachNotifier(opts.Notifier)
	}
	if opts.Authorizer != nil {
		appService.AttachAuthorizer(opts.Authorizer)
	}

	if err := manager.Register(system.NoopService{ServiceName: "applications"}); err != nil {
		return nil, fmt.Errorf("register applications service: %w", err)
	}

	return &Application{
		manager:      manager,
		log:          log,
		Applications: appService,
		Sweeper:      sweeper,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
