package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/domain/candidate"
	"github.com/talenthive/recruiting_layer/internal/app/domain/job"
	"github.com/talenthive/recruiting_layer/internal/app/storage"
	"github.com/talenthive/recruiting_layer/internal/errors"
)

const uniqueViolation = "23505"

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.JobStore = (*Store)(nil)
var _ storage.CandidateStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const applicationColumns = `id, job_id, candidate_id, company_id, cover_letter, status, score, scoring,
	documents, status_history, interviews, metadata, analytics, archived, deleted_at, version, created_at, updated_at`

type applicationRow struct {
	ID            string       `db:"id"`
	JobID         string       `db:"job_id"`
	CandidateID   string       `db:"candidate_id"`
	CompanyID     string       `db:"company_id"`
	CoverLetter   string       `db:"cover_letter"`
	Status        string       `db:"status"`
	Score         int          `db:"score"`
	Scoring       []byte       `db:"scoring"`
	Documents     []byte       `db:"documents"`
	StatusHistory []byte       `db:"status_history"`
	Interviews    []byte       `db:"interviews"`
	Metadata      []byte       `db:"metadata"`
	Analytics     []byte       `db:"analytics"`
	Archived      bool         `db:"archived"`
	DeletedAt     sql.NullTime `db:"deleted_at"`
	Version       int64        `db:"version"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func (r applicationRow) toDomain() (application.Application, error) {
	app := application.Application{
		ID:          r.ID,
		JobID:       r.JobID,
		CandidateID: r.CandidateID,
		CompanyID:   r.CompanyID,
		CoverLetter: r.CoverLetter,
		Status:      application.Status(r.Status),
		Score:       r.Score,
		Archived:    r.Archived,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time.UTC()
		app.DeletedAt = &t
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{r.Scoring, &app.Scoring},
		{r.Documents, &app.Documents},
		{r.StatusHistory, &app.StatusHistory},
		{r.Interviews, &app.Interviews},
		{r.Metadata, &app.Metadata},
		{r.Analytics, &app.Analytics},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return application.Application{}, errors.StorageFailure("decode application row", err)
		}
	}
	return app, nil
}

type appJSONColumns struct {
	scoring, documents, history, interviews, metadata, analytics []byte
}

func encodeApplication(app application.Application) (appJSONColumns, error) {
	var cols appJSONColumns
	var err error
	for _, col := range []struct {
		dst *[]byte
		src interface{}
	}{
		{&cols.scoring, app.Scoring},
		{&cols.documents, app.Documents},
		{&cols.history, app.StatusHistory},
		{&cols.interviews, app.Interviews},
		{&cols.metadata, app.Metadata},
		{&cols.analytics, app.Analytics},
	} {
		if *col.dst, err = json.Marshal(col.src); err != nil {
			return appJSONColumns{}, errors.StorageFailure("encode application", err)
		}
	}
	return cols, nil
}

// --- ApplicationStore -------------------------------------------------------

func (s *Store) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	app.Version = 1

	cols, err := encodeApplication(app)
	if err != nil {
		return application.Application{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, app.ID, app.JobID, app.CandidateID, app.CompanyID, app.CoverLetter, string(app.Status), app.Score,
		cols.scoring, cols.documents, cols.history, cols.interviews, cols.metadata, cols.analytics,
		app.Archived, toNullTime(app.DeletedAt), app.Version, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return application.Application{}, errors.Conflict("candidate has already applied to this job").
				WithDetail("jobId", app.JobID).
				WithDetail("candidateId", app.CandidateID)
		}
		return application.Application{}, errors.StorageFailure("insert application", err)
	}
	return app, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (application.Application, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err == sql.ErrNoRows {
		return application.Application{}, errors.NotFoundf("application %s not found", id)
	}
	if err != nil {
		return application.Application{}, errors.StorageFailure("select application", err)
	}
	return row.toDomain()
}

func (s *Store) GetApplicationByJobAndCandidate(ctx context.Context, jobID, candidateID string) (application.Application, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE job_id = $1 AND candidate_id = $2
	`, jobID, candidateID)
	if err == sql.ErrNoRows {
		return application.Application{}, errors.NotFoundf("application for job %s and candidate %s not found", jobID, candidateID)
	}
	if err != nil {
		return application.Application{}, errors.StorageFailure("select application by pair", err)
	}
	return row.toDomain()
}

func (s *Store) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	expected := app.Version
	app.UpdatedAt = time.Now().UTC()
	app.Version = expected + 1

	cols, err := encodeApplication(app)
	if err != nil {
		return application.Application{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET cover_letter = $3, status = $4, score = $5, scoring = $6, documents = $7,
			status_history = $8, interviews = $9, metadata = $10, analytics = $11,
			archived = $12, version = version + 1, updated_at = $13
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
	`, app.ID, expected, app.CoverLetter, string(app.Status), app.Score,
		cols.scoring, cols.documents, cols.history, cols.interviews, cols.metadata, cols.analytics,
		app.Archived, app.UpdatedAt)
	if err != nil {
		return application.Application{}, errors.StorageFailure("update application", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		// Missing row and lost race look the same to the UPDATE; re-check which it was.
		if _, getErr := s.GetApplication(ctx, app.ID); errors.IsKind(getErr, errors.KindNotFound) {
			return application.Application{}, getErr
		}
		return application.Application{}, errors.StaleWrite("application " + app.ID + " was modified concurrently")
	}
	return app, nil
}

func (s *Store) ListApplications(ctx context.Context, filter storage.Filter) ([]application.Application, int, error) {
	where := []string{"1=1"}
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.CompanyID != "" {
		add("company_id = $%d", filter.CompanyID)
	}
	if filter.JobID != "" {
		add("job_id = $%d", filter.JobID)
	}
	if filter.CandidateID != "" {
		add("candidate_id = $%d", filter.CandidateID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.MinScore > 0 {
		add("score >= $%d", filter.MinScore)
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM applications WHERE `+cond, args...); err != nil {
		return nil, 0, errors.StorageFailure("count applications", err)
	}

	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE ` + cond + `
		ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var rows []applicationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.StorageFailure("select applications", err)
	}

	result := make([]application.Application, 0, len(rows))
	for _, row := range rows {
		app, err := row.toDomain()
		if err != nil {
			return nil, 0, err
		}
		result = append(result, app)
	}
	return result, total, nil
}

func (s *Store) SoftDeleteApplication(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET deleted_at = $2, archived = TRUE, version = version + 1, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id, at.UTC())
	if err != nil {
		return errors.StorageFailure("soft delete application", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFoundf("application %s not found", id)
	}
	return nil
}

func (s *Store) HardDeleteApplication(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM applications WHERE id = $1
	`, id)
	if err != nil {
		return errors.StorageFailure("delete application", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFoundf("application %s not found", id)
	}
	return nil
}

// --- JobStore ---------------------------------------------------------------

func (s *Store) GetJob(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, company_id, title, active, created_at
		FROM jobs
		WHERE id = $1
	`, id).Scan(&j.ID, &j.CompanyID, &j.Title, &j.Active, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return job.Job{}, errors.NotFoundf("job %s not found", id)
	}
	if err != nil {
		return job.Job{}, errors.StorageFailure("select job", err)
	}
	return j, nil
}

func (s *Store) PutJob(ctx context.Context, j job.Job) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, company_id, title, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET company_id = $2, title = $3, active = $4
	`, j.ID, j.CompanyID, j.Title, j.Active, j.CreatedAt)
	if err != nil {
		return errors.StorageFailure("upsert job", err)
	}
	return nil
}

// --- CandidateStore ---------------------------------------------------------

func (s *Store) GetCandidate(ctx context.Context, id string) (candidate.Candidate, error) {
	var c candidate.Candidate
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, user_id, headline, resume_url, created_at
		FROM candidates
		WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &c.Headline, &c.ResumeURL, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return candidate.Candidate{}, errors.NotFoundf("candidate %s not found", id)
	}
	if err != nil {
		return candidate.Candidate{}, errors.StorageFailure("select candidate", err)
	}
	return c, nil
}

func (s *Store) PutCandidate(ctx context.Context, c candidate.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidates (id, user_id, headline, resume_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET user_id = $2, headline = $3, resume_url = $4
	`, c.ID, c.UserID, c.Headline, c.ResumeURL, c.CreatedAt)
	if err != nil {
		return errors.StorageFailure("upsert candidate", err)
	}
	return nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
