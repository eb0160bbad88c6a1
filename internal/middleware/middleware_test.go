package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/talenthive/recruiting_layer/pkg/logger"
	"github.com/talenthive/recruiting_layer/pkg/testutil"
)

var testKey = []byte("test-signing-key")

func echoActor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"actor": ActorID(r.Context()),
			"role":  ActorRole(r.Context()),
		})
	})
}

func TestActorExtractorValidToken(t *testing.T) {
	handler := NewActorExtractor(testKey, logger.NewNop()).Handler(echoActor())

	token := testutil.MintActorToken(t, testKey, "user-7", "recruiter", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["actor"] != "user-7" || body["role"] != "recruiter" {
		t.Fatalf("unexpected actor %+v", body)
	}
}

func TestActorExtractorInvalidTokenIsAnonymous(t *testing.T) {
	handler := NewActorExtractor(testKey, logger.NewNop()).Handler(echoActor())

	cases := map[string]string{
		"garbage":   "Bearer not-a-token",
		"wrong key": "Bearer " + testutil.MintActorToken(t, []byte("other-key"), "user-7", "", time.Hour),
		"expired":   "Bearer " + testutil.MintActorToken(t, testKey, "user-7", "", -time.Hour),
		"no header": "",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected pass-through 200, got %d", name, resp.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: unmarshal: %v", name, err)
		}
		if body["actor"] != "" {
			t.Fatalf("%s: expected anonymous, got %q", name, body["actor"])
		}
	}
}

func TestActorExtractorDisabledWithoutKey(t *testing.T) {
	handler := NewActorExtractor(nil, logger.NewNop()).Handler(echoActor())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testutil.MintActorToken(t, testKey, "user-7", "", time.Hour))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["actor"] != "" {
		t.Fatalf("expected anonymous with verification disabled, got %q", body["actor"])
	}
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	limiter := NewRateLimiter(1, 2, logger.NewNop())
	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		last = resp.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %d", last)
	}

	// A different client key gets its own limiter.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for fresh client, got %d", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/applications/x/status", nil)
	req.Header.Set("Origin", "https://jobs.example.com")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "https://jobs.example.com" {
		t.Fatalf("missing allow-origin header")
	}
}

func TestRecovererConvertsPanic(t *testing.T) {
	handler := NewRecoverer(logger.NewNop()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var body map[string]map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"]["kind"] != "internal" {
		t.Fatalf("expected internal kind, got %v", body["error"])
	}
}
