package applications

import (
	"context"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
)

// RecalculateScore recomputes the scoring breakdown from the application's
// current signals and persists it. Idempotent: unchanged inputs produce an
// unchanged score and no version bump.
func (s *Service) RecalculateScore(ctx context.Context, id string) (int, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return 0, err
	}

	before := app.Scoring
	s.rescore(&app, s.resumePresent(ctx, app))
	if app.Scoring == before {
		return app.Score, nil
	}

	updated, err := s.mutate(ctx, id, func(app *application.Application) error {
		s.rescore(app, s.resumePresent(ctx, *app))
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithField("application", id).WithField("score", updated.Score).Info("score recalculated")
	return updated.Score, nil
}
