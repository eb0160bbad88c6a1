package applications

import (
	"context"
	"time"

	"github.com/talenthive/recruiting_layer/internal/app/attachments"
	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/errors"
)

// FileInput references one uploaded blob to attach.
type FileInput struct {
	Name string
	URL  string
	Type string
	Size int64
}

// AttachInput carries the files for one attach request. Resume and cover
// letter occupy dedicated slots and replace any previous occupant;
// supplementary documents append.
type AttachInput struct {
	Resume      *FileInput
	CoverLetter *FileInput
	Documents   []FileInput
}

// AttachResult reports partial acceptance: documents failing shape
// validation are skipped individually, not fatal to the batch.
type AttachResult struct {
	Application application.Application `json:"application"`
	Stored      int                     `json:"stored"`
	Skipped     int                     `json:"skipped"`
}

func (in FileInput) valid() bool {
	return in.Name != "" && in.URL != "" && in.Type != "" && in.Size > 0
}

// Attach adds files to the application. Replaced slot occupants are deleted
// from blob storage best effort: a failed deletion is logged and queued for
// the sweeper, never fatal. A failed aggregate write is always fatal.
func (s *Service) Attach(ctx context.Context, id string, input AttachInput) (AttachResult, error) {
	if input.Resume == nil && input.CoverLetter == nil && len(input.Documents) == 0 {
		return AttachResult{}, errors.Validation("at least one of resume, coverLetter or documents is required")
	}

	now := time.Now().UTC()
	var incoming []application.Document
	skipped := 0

	slot := func(file *FileInput, docType string) {
		if file == nil {
			return
		}
		if file.Name == "" || file.URL == "" {
			skipped++
			return
		}
		incoming = append(incoming, application.Document{
			Name:       file.Name,
			URL:        file.URL,
			Type:       docType,
			Size:       file.Size,
			UploadedAt: now,
		})
	}
	slot(input.Resume, application.DocTypeResume)
	slot(input.CoverLetter, application.DocTypeCoverLetter)

	for _, file := range input.Documents {
		if !file.valid() {
			skipped++
			continue
		}
		incoming = append(incoming, application.Document{
			Name:       file.Name,
			URL:        file.URL,
			Type:       file.Type,
			Size:       file.Size,
			UploadedAt: now,
		})
	}

	if len(incoming) == 0 {
		return AttachResult{}, errors.Validation("No valid files to store")
	}

	var replaced []string
	updated, err := s.mutate(ctx, id, func(app *application.Application) error {
		replaced = replaced[:0]
		for _, doc := range incoming {
			switch doc.Type {
			case application.DocTypeResume, application.DocTypeCoverLetter:
				if i := app.DocumentAt(doc.Type); i >= 0 {
					replaced = append(replaced, app.Documents[i].URL)
					app.Documents[i] = doc
				} else {
					app.Documents = append(app.Documents, doc)
				}
			default:
				app.Documents = append(app.Documents, doc)
			}
		}
		s.rescore(app, s.resumePresent(ctx, *app))
		return nil
	})
	if err != nil {
		return AttachResult{}, err
	}

	s.deleteBlobs(ctx, replaced)
	s.log.WithField("application", id).WithField("stored", len(incoming)).WithField("skipped", skipped).Info("documents attached")
	return AttachResult{Application: updated, Stored: len(incoming), Skipped: skipped}, nil
}

// RemoveAll deletes every attached blob and clears the references, cover
// letter included. Calling it with nothing attached is a no-op that leaves
// the aggregate untouched. Blobs are deleted before the references are
// cleared; a reference briefly outliving its blob is accepted, the reverse
// never is.
func (s *Service) RemoveAll(ctx context.Context, id string) (application.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return application.Application{}, err
	}

	if len(app.Documents) == 0 && app.CoverLetter == "" {
		return app, nil
	}

	urls := make([]string, 0, len(app.Documents))
	for _, doc := range app.Documents {
		urls = append(urls, doc.URL)
	}
	s.deleteBlobs(ctx, urls)

	updated, err := s.mutate(ctx, id, func(app *application.Application) error {
		app.Documents = nil
		app.CoverLetter = ""
		s.rescore(app, s.resumePresent(ctx, *app))
		return nil
	})
	if err != nil {
		return application.Application{}, err
	}
	s.log.WithField("application", id).WithField("removed", len(urls)).Info("documents removed")
	return updated, nil
}

// deleteBlobs attempts every deletion. Already-absent blobs count as
// deleted; I/O failures go to the cleanup queue for retry.
func (s *Service) deleteBlobs(ctx context.Context, urls []string) {
	if s.blobs == nil {
		return
	}
	var failed []string
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, url); !attachments.Deleted(err) {
			s.log.WithError(err).WithField("url", url).Warn("blob deletion failed")
			failed = append(failed, url)
		}
	}
	if len(failed) > 0 && s.cleanup != nil {
		s.cleanup.Enqueue(failed...)
	}
}
