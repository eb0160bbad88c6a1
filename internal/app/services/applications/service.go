// Package applications implements the application lifecycle engine: guarded
// status changes with an audit trail, scoring, interview scheduling, the
// attached-document lifecycle and the dashboard query. Every operation is
// one logical read-modify-write against the application store; the store's
// optimistic versioning serializes concurrent writers per aggregate.
package applications

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/talenthive/recruiting_layer/internal/app/attachments"
	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/domain/candidate"
	"github.com/talenthive/recruiting_layer/internal/app/domain/job"
	"github.com/talenthive/recruiting_layer/internal/app/metrics"
	"github.com/talenthive/recruiting_layer/internal/app/notify"
	"github.com/talenthive/recruiting_layer/internal/app/storage"
	"github.com/talenthive/recruiting_layer/internal/errors"
	"github.com/talenthive/recruiting_layer/pkg/logger"
)

// Lost-race writers reload and reapply this many times before giving up
// with a Conflict.
const staleWriteRetries = 3

// Authorizer decides whether an actor may perform an action on an
// application. Policy evaluation lives outside this module.
type Authorizer interface {
	CanPerform(ctx context.Context, actorID, action string, app application.Application) bool
}

// Actions consulted against the Authorizer.
const (
	ActionChangeStatus = "application.change_status"
	ActionWithdraw     = "application.withdraw"
	ActionDelete       = "application.delete"
)

// CleanupQueue accepts blob URLs whose inline deletion failed, for
// asynchronous retry.
type CleanupQueue interface {
	Enqueue(urls ...string)
}

// Service is the application lifecycle engine.
type Service struct {
	store      storage.ApplicationStore
	jobs       job.Directory
	candidates candidate.Directory
	validator  *application.TransitionValidator
	weights    application.ScoreWeights
	blobs      attachments.Store
	cleanup    CleanupQueue
	notifier   notify.Notifier
	authorizer Authorizer
	log        *logger.Logger
}

// New constructs the engine over its store and directories. The transition
// table and score weights default to the stock graph and weights; override
// them with SetRules before serving traffic.
func New(store storage.ApplicationStore, jobs job.Directory, candidates candidate.Directory, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("applications")
	}
	return &Service{
		store:      store,
		jobs:       jobs,
		candidates: candidates,
		validator:  application.NewTransitionValidator(nil),
		weights:    application.DefaultScoreWeights(),
		notifier:   notify.Noop{},
		log:        log,
	}
}

// SetRules injects the immutable transition table and scoring weights.
func (s *Service) SetRules(table application.Transitions, weights application.ScoreWeights) {
	s.validator = application.NewTransitionValidator(table)
	s.weights = weights
}

// AttachStorage wires the blob store and the deferred-cleanup queue used by
// the document lifecycle.
func (s *Service) AttachStorage(blobs attachments.Store, cleanup CleanupQueue) {
	s.blobs = blobs
	s.cleanup = cleanup
}

// AttachNotifier wires the event publisher. Publishing is fire and forget.
func (s *Service) AttachNotifier(n notify.Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// AttachAuthorizer wires the policy collaborator consulted before withdraw,
// status change and delete. Without one, withdraw falls back to the owning
// candidate and everything else is allowed.
func (s *Service) AttachAuthorizer(a Authorizer) {
	s.authorizer = a
}

// Provenance is captured once at submission and immutable thereafter.
type Provenance struct {
	IPAddress string
	UserAgent string
	Source    string
}

// SubmitInput carries the fields a candidate may set when applying. Nothing
// outside this struct is copied into the aggregate.
type SubmitInput struct {
	CandidateID string
	CoverLetter string
	Provenance  Provenance
}

// SubmitResult pairs the created application with onboarding hints.
type SubmitResult struct {
	Application application.Application `json:"application"`
	NextSteps   []string                `json:"nextSteps"`
}

// Submit creates the application for (jobID, input.CandidateID). The job
// must exist and be active and the candidate profile must exist. A second
// submission for the same pair fails with Conflict, enforced by the store's
// uniqueness constraint rather than a read-then-write pre-check.
func (s *Service) Submit(ctx context.Context, jobID string, input SubmitInput) (SubmitResult, error) {
	if jobID == "" {
		return SubmitResult{}, errors.Validation("jobId is required")
	}
	if input.CandidateID == "" {
		return SubmitResult{}, errors.Validation("candidateId is required")
	}

	j, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !j.Active {
		return SubmitResult{}, errors.Validationf("job %s is not accepting applications", jobID)
	}

	cand, err := s.candidates.GetCandidate(ctx, input.CandidateID)
	if err != nil {
		return SubmitResult{}, err
	}

	now := time.Now().UTC()
	app := application.Application{
		JobID:       jobID,
		CandidateID: cand.ID,
		CompanyID:   j.CompanyID,
		CoverLetter: input.CoverLetter,
		Status:      application.StatusSubmitted,
		StatusHistory: []application.StatusEntry{{
			Status:    application.StatusSubmitted,
			ChangedAt: now,
			ChangedBy: cand.ID,
			Metadata:  application.StatusEntryMetadata{Confirmed: true},
		}},
		Metadata: application.Metadata{
			IPAddress:         input.Provenance.IPAddress,
			UserAgent:         input.Provenance.UserAgent,
			ApplicationSource: input.Provenance.Source,
		},
		CreatedAt: now,
	}
	app.StampStatusChange(application.StatusSubmitted, now)
	s.rescore(&app, cand.HasResume())

	created, err := s.store.CreateApplication(ctx, app)
	if err != nil {
		if errors.IsKind(err, errors.KindConflict) {
			metrics.RecordSubmission("conflict")
		} else {
			metrics.RecordSubmission("rejected")
		}
		return SubmitResult{}, err
	}
	metrics.RecordSubmission("accepted")

	s.log.WithField("application", created.ID).WithField("job", jobID).Info("application submitted")
	s.publish(ctx, notify.Event{
		Type:          notify.EventSubmitted,
		ApplicationID: created.ID,
		JobID:         created.JobID,
		CandidateID:   created.CandidateID,
		CompanyID:     created.CompanyID,
	})

	return SubmitResult{Application: created, NextSteps: nextSteps(cand, created)}, nil
}

func nextSteps(cand candidate.Candidate, app application.Application) []string {
	var steps []string
	if !cand.HasResume() {
		steps = append(steps, "Upload your resume to improve your application score")
	}
	if app.CoverLetter == "" {
		steps = append(steps, "Add a cover letter to stand out")
	}
	steps = append(steps, "Track your application status from your dashboard")
	return steps
}

// StatusChangeInput drives one status transition.
type StatusChangeInput struct {
	Status  application.Status
	ActorID string
	Notes   string
}

// ChangeStatus applies one guarded transition. Requesting the current
// status is an idempotent no-op that neither appends history nor bumps the
// version. A lost optimistic-concurrency race is retried a bounded number
// of times before surfacing Conflict.
func (s *Service) ChangeStatus(ctx context.Context, id string, input StatusChangeInput) (application.Application, error) {
	if input.Status == "" {
		return application.Application{}, errors.Validation("status is required")
	}

	var from application.Status
	var unchanged application.Application
	updated, err := s.mutate(ctx, id, func(app *application.Application) error {
		from = app.Status
		if app.Status == input.Status {
			unchanged = *app
			return errNoChange
		}
		if err := s.validator.Validate(app.Status, input.Status); err != nil {
			return err
		}
		if s.authorizer != nil && !s.authorizer.CanPerform(ctx, input.ActorID, ActionChangeStatus, *app) {
			return errors.Forbidden("actor may not change this application's status")
		}
		s.applyTransition(ctx, app, input.Status, input.ActorID, input.Notes)
		return nil
	})
	if err == errNoChange {
		return unchanged, nil
	}
	if err != nil {
		return application.Application{}, err
	}

	metrics.RecordStatusTransition(string(from), string(input.Status))
	s.log.WithField("application", id).Infof("status changed %s -> %s", from, input.Status)
	s.publish(ctx, notify.Event{
		Type:          notify.EventStatusChanged,
		ApplicationID: updated.ID,
		JobID:         updated.JobID,
		CandidateID:   updated.CandidateID,
		CompanyID:     updated.CompanyID,
		Payload:       map[string]interface{}{"from": string(from), "to": string(input.Status)},
	})
	return updated, nil
}

// applyTransition appends the audit entry, moves the status and recomputes
// the score. Rejections and withdrawals are recorded unconfirmed.
func (s *Service) applyTransition(ctx context.Context, app *application.Application, to application.Status, actorID, notes string) {
	now := time.Now().UTC()
	confirmed := to != application.StatusRejected && to != application.StatusWithdrawn
	app.StatusHistory = append(app.StatusHistory, application.StatusEntry{
		Status:    to,
		ChangedAt: now,
		ChangedBy: actorID,
		Notes:     notes,
		Metadata:  application.StatusEntryMetadata{Confirmed: confirmed},
	})
	app.Status = to
	app.StampStatusChange(to, now)
	s.rescore(app, s.resumePresent(ctx, *app))
}

// resumePresent checks the aggregate's resume slot first, then the
// candidate profile.
func (s *Service) resumePresent(ctx context.Context, app application.Application) bool {
	if app.ResumeAttached() {
		return true
	}
	cand, err := s.candidates.GetCandidate(ctx, app.CandidateID)
	return err == nil && cand.HasResume()
}

// WithdrawInput identifies the withdrawing actor.
type WithdrawInput struct {
	ActorID string
	Reason  string
}

// WithdrawSummary is the condensed response for a withdrawal.
type WithdrawSummary struct {
	ApplicationID string             `json:"applicationId"`
	JobID         string             `json:"jobId"`
	NewStatus     application.Status `json:"newStatus"`
}

// Withdraw moves the application to withdrawn on behalf of the owning
// candidate. The authorization decision is delegated to the policy
// collaborator; without one, only the owning candidate may withdraw.
func (s *Service) Withdraw(ctx context.Context, id string, input WithdrawInput) (WithdrawSummary, error) {
	var unchanged application.Application
	updated, err := s.mutate(ctx, id, func(app *application.Application) error {
		if !s.mayWithdraw(ctx, input.ActorID, *app) {
			return errors.Forbidden("only the owning candidate may withdraw this application")
		}
		if app.Status == application.StatusWithdrawn {
			unchanged = *app
			return errNoChange
		}
		if err := s.validator.Validate(app.Status, application.StatusWithdrawn); err != nil {
			return err
		}
		s.applyTransition(ctx, app, application.StatusWithdrawn, input.ActorID, input.Reason)
		return nil
	})
	if err == errNoChange {
		return WithdrawSummary{ApplicationID: unchanged.ID, JobID: unchanged.JobID, NewStatus: unchanged.Status}, nil
	}
	if err != nil {
		return WithdrawSummary{}, err
	}

	metrics.RecordStatusTransition(string(updated.StatusHistory[len(updated.StatusHistory)-2].Status), string(application.StatusWithdrawn))
	s.log.WithField("application", id).Info("application withdrawn")
	s.publish(ctx, notify.Event{
		Type:          notify.EventWithdrawn,
		ApplicationID: updated.ID,
		JobID:         updated.JobID,
		CandidateID:   updated.CandidateID,
		CompanyID:     updated.CompanyID,
		Payload:       map[string]interface{}{"reason": input.Reason},
	})
	return WithdrawSummary{ApplicationID: updated.ID, JobID: updated.JobID, NewStatus: updated.Status}, nil
}

func (s *Service) mayWithdraw(ctx context.Context, actorID string, app application.Application) bool {
	if s.authorizer != nil {
		return s.authorizer.CanPerform(ctx, actorID, ActionWithdraw, app)
	}
	return actorID != "" && actorID == app.CandidateID
}

// Get returns the application by id. History is included only on request.
func (s *Service) Get(ctx context.Context, id string, includeHistory bool) (application.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return application.Application{}, err
	}
	return app.Sanitized(includeHistory), nil
}

// ListByCandidate returns every application the candidate has filed. The
// candidate must exist.
func (s *Service) ListByCandidate(ctx context.Context, candidateID string) ([]application.Application, error) {
	if _, err := s.candidates.GetCandidate(ctx, candidateID); err != nil {
		return nil, err
	}
	items, _, err := s.store.ListApplications(ctx, storage.Filter{CandidateID: candidateID})
	return sanitizeAll(items), err
}

// ListByJob returns every application filed against the job.
func (s *Service) ListByJob(ctx context.Context, jobID string) ([]application.Application, error) {
	items, _, err := s.store.ListApplications(ctx, storage.Filter{JobID: jobID})
	return sanitizeAll(items), err
}

// Delete soft-deletes the application. The record stays addressable for
// auditing but disappears from reads and the dashboard.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if s.authorizer != nil && !s.authorizer.CanPerform(ctx, actorID, ActionDelete, app) {
		return errors.Forbidden("actor may not delete this application")
	}
	if err := s.store.SoftDeleteApplication(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	s.log.WithField("application", id).Info("application archived")
	return nil
}

// LogView bumps the read-side analytics counter. Best effort: a lost write
// race is logged and dropped rather than retried.
func (s *Service) LogView(ctx context.Context, id string) error {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	app.LogView(time.Now().UTC())
	if _, err := s.store.UpdateApplication(ctx, app); err != nil {
		if errors.IsKind(err, errors.KindStaleWrite) {
			s.log.WithField("application", id).Debug("view count race lost, dropping")
			return nil
		}
		return err
	}
	return nil
}

// errNoChange short-circuits mutate without persisting.
var errNoChange = stderrors.New("no change")

// mutate runs one read-modify-write with bounded retry on lost optimistic
// concurrency races. fn sees a private copy it may mutate in place.
func (s *Service) mutate(ctx context.Context, id string, fn func(*application.Application) error) (application.Application, error) {
	var lastErr error
	for attempt := 0; attempt < staleWriteRetries; attempt++ {
		app, err := s.store.GetApplication(ctx, id)
		if err != nil {
			return application.Application{}, err
		}
		if err := fn(&app); err != nil {
			return application.Application{}, err
		}
		updated, err := s.store.UpdateApplication(ctx, app)
		if err == nil {
			return updated, nil
		}
		if !errors.IsKind(err, errors.KindStaleWrite) {
			return application.Application{}, err
		}
		lastErr = err
		s.log.WithField("application", id).WithField("attempt", attempt+1).Debug("lost write race, retrying")
	}
	return application.Application{}, errors.Conflict("application was modified concurrently, retry the request").WithCause(lastErr)
}

func (s *Service) rescore(app *application.Application, resumePresent bool) {
	app.Scoring, app.Score = s.weights.Compute(application.ScoreInputs{
		ResumePresent:     resumePresent,
		CoverLetterLength: len(app.CoverLetter),
		Status:            app.Status,
		InterviewCount:    len(app.Interviews),
	})
}

// publish delivers an event without awaiting correctness: failures are
// logged and dropped.
func (s *Service) publish(ctx context.Context, event notify.Event) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithField("event", event.Type).Warn("notification dispatch failed")
	}
}

func sanitizeAll(items []application.Application) []application.Application {
	out := make([]application.Application, len(items))
	for i, app := range items {
		out[i] = app.Sanitized(false)
	}
	return out
}
