// Package httpapi exposes the application lifecycle engine over REST.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "github.com/talenthive/recruiting_layer/internal/app"
	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/metrics"
	"github.com/talenthive/recruiting_layer/internal/app/services/applications"
	"github.com/talenthive/recruiting_layer/internal/errors"
	"github.com/talenthive/recruiting_layer/internal/middleware"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the recruiting REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/jobs/{jobId}/apply", h.submit).Methods(http.MethodPost)

	// Fixed paths must register before the {id} wildcard.
	r.HandleFunc("/applications/dashboard", h.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/applications/candidate/{candidateId}", h.listByCandidate).Methods(http.MethodGet)
	r.HandleFunc("/applications/job/{jobId}", h.listByJob).Methods(http.MethodGet)

	r.HandleFunc("/applications/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/applications/{id}", h.remove).Methods(http.MethodDelete)
	r.HandleFunc("/applications/{id}/status", h.changeStatus).Methods(http.MethodPut)
	r.HandleFunc("/applications/{id}/withdraw", h.withdraw).Methods(http.MethodPut)
	r.HandleFunc("/applications/{id}/interviews", h.scheduleInterview).Methods(http.MethodPatch)
	r.HandleFunc("/applications/{id}/documents", h.attachDocuments).Methods(http.MethodPost)
	r.HandleFunc("/applications/{id}/remove-document", h.removeDocuments).Methods(http.MethodDelete)
	r.HandleFunc("/applications/{id}/recalculate-score", h.recalculateScore).Methods(http.MethodPost)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type fileDTO struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

func (f *fileDTO) toInput() *applications.FileInput {
	if f == nil {
		return nil
	}
	return &applications.FileInput{Name: f.Name, URL: f.URL, Type: f.Type, Size: f.Size}
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	var payload struct {
		CandidateID string `json:"candidateId"`
		CoverLetter string `json:"coverLetter"`
		Source      string `json:"source"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, err)
		return
	}

	result, err := h.app.Applications.Submit(r.Context(), jobID, applications.SubmitInput{
		CandidateID: payload.CandidateID,
		CoverLetter: payload.CoverLetter,
		Provenance: applications.Provenance{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			Source:    payload.Source,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	includeHistory := r.URL.Query().Get("includeHistory") == "true"

	result, err := h.app.Applications.Get(r.Context(), id, includeHistory)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = h.app.Applications.LogView(r.Context(), id)
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listByCandidate(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Applications.ListByCandidate(r.Context(), mux.Vars(r)["candidateId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": result})
}

func (h *handler) listByJob(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Applications.ListByJob(r.Context(), mux.Vars(r)["jobId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": result})
}

func (h *handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, err)
		return
	}

	result, err := h.app.Applications.ChangeStatus(r.Context(), id, applications.StatusChangeInput{
		Status:  application.Status(payload.Status),
		ActorID: middleware.ActorID(r.Context()),
		Notes:   payload.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) withdraw(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, err)
		return
	}

	result, err := h.app.Applications.Withdraw(r.Context(), id, applications.WithdrawInput{
		ActorID: middleware.ActorID(r.Context()),
		Reason:  payload.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) scheduleInterview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload struct {
		Type        string    `json:"type"`
		ScheduledAt time.Time `json:"scheduledAt"`
		Location    string    `json:"location"`
		Attendees   []struct {
			UserID string `json:"userId"`
			Role   string `json:"role"`
		} `json:"attendees"`
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, err)
		return
	}

	input := applications.InterviewInput{
		Type:        application.InterviewType(payload.Type),
		ScheduledAt: payload.ScheduledAt,
		Location:    payload.Location,
		Notes:       payload.Notes,
	}
	for _, a := range payload.Attendees {
		input.Attendees = append(input.Attendees, applications.AttendeeInput{UserID: a.UserID, Role: a.Role})
	}

	result, err := h.app.Applications.ScheduleInterview(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"interview": result})
}

func (h *handler) attachDocuments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload struct {
		Resume      *fileDTO  `json:"resume"`
		CoverLetter *fileDTO  `json:"coverLetter"`
		Documents   []fileDTO `json:"documents"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, err)
		return
	}

	input := applications.AttachInput{
		Resume:      payload.Resume.toInput(),
		CoverLetter: payload.CoverLetter.toInput(),
	}
	for _, d := range payload.Documents {
		input.Documents = append(input.Documents, applications.FileInput{Name: d.Name, URL: d.URL, Type: d.Type, Size: d.Size})
	}

	result, err := h.app.Applications.Attach(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) removeDocuments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.app.Applications.RemoveAll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := applications.DashboardQuery{
		CompanyID: q.Get("companyId"),
		Status:    application.Status(q.Get("status")),
	}
	var err error
	if query.MinScore, err = queryInt(q.Get("minScore")); err != nil {
		writeError(w, errors.Validation("minScore must be an integer"))
		return
	}
	if query.Page, err = queryInt(q.Get("page")); err != nil {
		writeError(w, errors.Validation("page must be an integer"))
		return
	}
	if query.Limit, err = queryInt(q.Get("limit")); err != nil {
		writeError(w, errors.Validation("limit must be an integer"))
		return
	}

	result, err := h.app.Applications.Dashboard(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.app.Applications.Delete(r.Context(), id, middleware.ActorID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applicationId": id, "deleted": true})
}

func (h *handler) recalculateScore(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	score, err := h.app.Applications.RecalculateScore(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applicationId": id, "score": score})
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
