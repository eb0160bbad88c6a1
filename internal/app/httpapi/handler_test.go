package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/talenthive/recruiting_layer/internal/app"
	"github.com/talenthive/recruiting_layer/internal/app/domain/candidate"
	"github.com/talenthive/recruiting_layer/internal/app/domain/job"
	"github.com/talenthive/recruiting_layer/internal/app/storage/memory"
	"github.com/talenthive/recruiting_layer/internal/middleware"
	"github.com/talenthive/recruiting_layer/pkg/logger"
)

func newTestHandler(t *testing.T) (http.Handler, *app.Application) {
	t.Helper()

	mem := memory.New()
	ctx := context.Background()
	if err := mem.PutJob(ctx, job.Job{ID: "j1", CompanyID: "co1", Title: "Backend Engineer", Active: true}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := mem.PutCandidate(ctx, candidate.Candidate{ID: "c1", Headline: "Backend developer", ResumeURL: "https://cdn.example.com/r/c1.pdf"}); err != nil {
		t.Fatalf("seed candidate: %v", err)
	}

	application, err := app.New(app.Stores{Applications: mem, Jobs: mem, Candidates: mem}, app.Options{}, logger.NewNop())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(ctx); err != nil {
		t.Fatalf("start application: %v", err)
	}
	t.Cleanup(func() { _ = application.Stop(context.Background()) })

	return NewHandler(application), application
}

func marshal(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func doJSON(t *testing.T, h http.Handler, method, path, actor string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, marshal(t, body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if actor != "" {
		req = req.WithContext(middleware.WithActor(req.Context(), actor, "recruiter"))
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return out
}

func TestHandlerLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := doJSON(t, h, http.MethodPost, "/jobs/j1/apply", "", map[string]interface{}{
		"candidateId": "c1",
		"coverLetter": "I build reliable backends.",
		"source":      "website",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeBody(t, resp)
	appBody := created["application"].(map[string]interface{})
	appID := appBody["id"].(string)
	if got := appBody["score"].(float64); got != 60 {
		t.Fatalf("expected submission score 60, got %v", got)
	}
	if _, ok := created["nextSteps"]; !ok {
		t.Fatalf("expected nextSteps in submit response")
	}

	// Duplicate submissions for the same pair must conflict.
	resp = doJSON(t, h, http.MethodPost, "/jobs/j1/apply", "", map[string]interface{}{"candidateId": "c1"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", resp.Code)
	}
	if kind := decodeBody(t, resp)["error"].(map[string]interface{})["kind"]; kind != "conflict" {
		t.Fatalf("expected conflict kind, got %v", kind)
	}

	resp = doJSON(t, h, http.MethodGet, "/applications/"+appID, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 get, got %d", resp.Code)
	}
	if _, ok := decodeBody(t, resp)["statusHistory"]; ok {
		t.Fatalf("history must be hidden without includeHistory")
	}

	resp = doJSON(t, h, http.MethodGet, "/applications/"+appID+"?includeHistory=true", "", nil)
	body := decodeBody(t, resp)
	history, ok := body["statusHistory"].([]interface{})
	if !ok || len(history) != 1 {
		t.Fatalf("expected one history entry, got %v", body["statusHistory"])
	}

	resp = doJSON(t, h, http.MethodPut, "/applications/"+appID+"/status", "rec-1", map[string]interface{}{
		"status": "under_review",
		"notes":  "screening",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 status change, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := decodeBody(t, resp)["status"]; got != "under_review" {
		t.Fatalf("expected under_review, got %v", got)
	}

	// Jumping straight to hired is rejected with the transition kind.
	resp = doJSON(t, h, http.MethodPut, "/applications/"+appID+"/status", "rec-1", map[string]interface{}{"status": "hired"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 illegal transition, got %d", resp.Code)
	}
	if kind := decodeBody(t, resp)["error"].(map[string]interface{})["kind"]; kind != "invalid_transition" {
		t.Fatalf("expected invalid_transition kind, got %v", kind)
	}

	resp = doJSON(t, h, http.MethodPut, "/applications/"+appID+"/status", "rec-1", map[string]interface{}{"status": "shortlisted"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 shortlist, got %d", resp.Code)
	}

	resp = doJSON(t, h, http.MethodPatch, "/applications/"+appID+"/interviews", "rec-1", map[string]interface{}{
		"type":        "video",
		"scheduledAt": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"attendees":   []map[string]string{{"userId": "u-9"}},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 interview, got %d: %s", resp.Code, resp.Body.String())
	}
	interview := decodeBody(t, resp)["interview"].(map[string]interface{})
	if interview["location"] != "To be determined" {
		t.Fatalf("expected default location, got %v", interview["location"])
	}

	resp = doJSON(t, h, http.MethodPost, "/applications/"+appID+"/documents", "", map[string]interface{}{
		"resume": map[string]interface{}{
			"name": "resume.pdf",
			"url":  "https://cdn.example.com/u/resume.pdf",
			"type": "application/pdf",
			"size": 24000,
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 attach, got %d: %s", resp.Code, resp.Body.String())
	}
	attach := decodeBody(t, resp)
	if got := attach["stored"].(float64); got != 1 {
		t.Fatalf("expected 1 stored, got %v", got)
	}

	resp = doJSON(t, h, http.MethodPost, "/applications/"+appID+"/recalculate-score", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 recalculate, got %d", resp.Code)
	}
	if got := decodeBody(t, resp)["score"].(float64); got < 60 {
		t.Fatalf("unexpected recalculated score %v", got)
	}

	resp = doJSON(t, h, http.MethodGet, "/applications/dashboard?companyId=co1&minScore=50", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 dashboard, got %d", resp.Code)
	}
	page := decodeBody(t, resp)
	pagination := page["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 1 {
		t.Fatalf("expected total 1, got %v", pagination["total"])
	}

	resp = doJSON(t, h, http.MethodDelete, "/applications/"+appID+"/remove-document", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 remove documents, got %d", resp.Code)
	}

	// Withdrawal by someone other than the owning candidate is forbidden.
	resp = doJSON(t, h, http.MethodPut, "/applications/"+appID+"/withdraw", "intruder", map[string]interface{}{"reason": "nope"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 withdraw, got %d", resp.Code)
	}

	resp = doJSON(t, h, http.MethodPut, "/applications/"+appID+"/withdraw", "c1", map[string]interface{}{"reason": "accepted elsewhere"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 withdraw, got %d: %s", resp.Code, resp.Body.String())
	}
	summary := decodeBody(t, resp)
	if summary["newStatus"] != "withdrawn" {
		t.Fatalf("expected withdrawn, got %v", summary["newStatus"])
	}

	resp = doJSON(t, h, http.MethodDelete, "/applications/"+appID, "rec-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 delete, got %d", resp.Code)
	}
	if decodeBody(t, resp)["deleted"] != true {
		t.Fatalf("expected deleted flag in response")
	}

	resp = doJSON(t, h, http.MethodGet, "/applications/"+appID, "", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestHandlerValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := doJSON(t, h, http.MethodPost, "/jobs/j1/apply", "", map[string]interface{}{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 missing candidate, got %d", resp.Code)
	}

	resp = doJSON(t, h, http.MethodPost, "/jobs/missing/apply", "", map[string]interface{}{"candidateId": "c1"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 unknown job, got %d", resp.Code)
	}

	resp = doJSON(t, h, http.MethodGet, "/applications/dashboard", "", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 dashboard without company, got %d", resp.Code)
	}

	resp = doJSON(t, h, http.MethodGet, "/applications/dashboard?companyId=co1&minScore=abc", "", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 non-numeric minScore, got %d", resp.Code)
	}

	// Unknown fields in the payload are rejected, not silently dropped.
	resp = doJSON(t, h, http.MethodPut, "/applications/any/status", "rec-1", map[string]interface{}{"status": "hired", "bogus": true})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 unknown field, got %d", resp.Code)
	}
}

func TestHandlerHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.Code)
	}
}
