package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tahmid/pneumoscan/internal/notify"
)

func testClient(t *testing.T, server *httptest.Server, recorder *notify.Recorder) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL: server.URL,
		Signals: recorder,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func terminalCount(r *notify.Recorder) int {
	return r.Count(notify.LoadingCleared) + r.Count(notify.Failed)
}

func TestClient_NonGETEmitsLoadingThenClears(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	recorder := &notify.Recorder{}
	client := testClient(t, server, recorder)

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	events := recorder.Events()
	if len(events) != 2 {
		t.Fatalf("events = %v, want [loading-started loading-cleared]", events)
	}
	if events[0].Signal != notify.LoadingStarted || events[1].Signal != notify.LoadingCleared {
		t.Errorf("events = %v, want loading-started then loading-cleared", events)
	}
	if got := terminalCount(recorder); got != 1 {
		t.Errorf("terminal signals = %d, want 1", got)
	}
}

func TestClient_NonGETFailureConvertsLoadingToError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Invalid credentials"}`))
	}))
	defer server.Close()

	recorder := &notify.Recorder{}
	client := testClient(t, server, recorder)

	_, err := client.Login(context.Background(), "a@b.c", "nope")
	if err == nil {
		t.Fatal("Login() error = nil, want error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error type = %T, want *Error", err)
	}
	if apiErr.Kind != KindServerRejected {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindServerRejected)
	}
	if apiErr.Message() != "Invalid credentials" {
		t.Errorf("Message() = %q, want %q", apiErr.Message(), "Invalid credentials")
	}

	if got := recorder.Count(notify.LoadingStarted); got != 1 {
		t.Errorf("loading signals = %d, want 1", got)
	}
	if got := terminalCount(recorder); got != 1 {
		t.Errorf("terminal signals = %d, want 1", got)
	}
	failed, ok := recorder.Last(notify.Failed)
	if !ok || failed.Message != "Invalid credentials" {
		t.Errorf("failed event = %+v, want message %q", failed, "Invalid credentials")
	}
}

func TestClient_GETSuccessEmitsNoSignals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"history": []}`))
	}))
	defer server.Close()

	recorder := &notify.Recorder{}
	client := testClient(t, server, recorder)

	if _, err := client.History(context.Background()); err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if events := recorder.Events(); len(events) != 0 {
		t.Errorf("events = %v, want none for GET success", events)
	}
}

func TestClient_GETFailureEmitsExactlyOneError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "model unavailable"}`))
	}))
	defer server.Close()

	recorder := &notify.Recorder{}
	client := testClient(t, server, recorder)

	if _, err := client.History(context.Background()); err == nil {
		t.Fatal("History() error = nil, want error")
	}

	if got := recorder.Count(notify.LoadingStarted); got != 0 {
		t.Errorf("loading signals = %d, want 0 for GET", got)
	}
	if got := recorder.Count(notify.Failed); got != 1 {
		t.Errorf("failed signals = %d, want 1", got)
	}
}

func TestClient_UnauthorizedKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Not authenticated"}`))
	}))
	defer server.Close()

	client := testClient(t, server, &notify.Recorder{})

	_, err := client.Me(context.Background())
	if !IsUnauthorized(err) {
		t.Errorf("IsUnauthorized(%v) = false, want true", err)
	}
}

func TestClient_NetworkErrorFallsBackToGenericMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	recorder := &notify.Recorder{}
	client := testClient(t, server, recorder)

	_, err := client.Login(context.Background(), "a@b.c", "pw")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error type = %T, want *Error", err)
	}
	if apiErr.Kind != KindNetwork {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindNetwork)
	}
	if apiErr.Message() != "An unexpected error occurred." {
		t.Errorf("Message() = %q, want generic fallback", apiErr.Message())
	}
	if got := terminalCount(recorder); got != 1 {
		t.Errorf("terminal signals = %d, want 1", got)
	}
}

func TestClient_TimeoutSurfacesAsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	recorder := &notify.Recorder{}
	client, err := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond, Signals: recorder})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var apiErr *Error
	if !errors.As(client.Logout(context.Background()), &apiErr) {
		t.Fatal("Logout() did not return *Error on timeout")
	}
	if apiErr.Kind != KindNetwork {
		t.Errorf("Kind = %v, want %v", apiErr.Kind, KindNetwork)
	}
}

func TestClient_StructuredNonStringDetailFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [{"loc": ["body", "email"], "msg": "field required"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server, &notify.Recorder{})

	_, err := client.Login(context.Background(), "", "")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error type = %T, want *Error", err)
	}
	if apiErr.Message() != "An unexpected error occurred." {
		t.Errorf("Message() = %q, want generic fallback for non-string detail", apiErr.Message())
	}
}

func TestClient_SessionCookieRoundTrip(t *testing.T) {
	var gotCookie string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok-123", Path: "/"})
		w.Write([]byte(`{"message": "Logged in"}`))
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Write([]byte(`{"username": "amina", "email": "amina@example.com"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testClient(t, server, &notify.Recorder{})
	ctx := context.Background()

	if _, err := client.Login(ctx, "amina@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	user, err := client.Me(ctx)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if gotCookie != "tok-123" {
		t.Errorf("session cookie = %q, want tok-123", gotCookie)
	}
	if user.Username != "amina" {
		t.Errorf("Me() Username = %v, want amina", user.Username)
	}
}

func TestClient_PredictSendsMultipartFile(t *testing.T) {
	var gotField, gotFilename string
	var gotBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("path = %v, want /predict", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile(file) error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotField = "file"
		gotFilename = header.Filename
		gotBytes, _ = io.ReadAll(file)
		w.Write([]byte(`{"disease": "Pneumonia", "confidence": 87.5, "timestamp": 1751980800}`))
	}))
	defer server.Close()

	client := testClient(t, server, &notify.Recorder{})

	result, err := client.Predict(context.Background(), "photo.png", []byte("fake-png-bytes"))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if gotField != "file" {
		t.Error("multipart field 'file' not found")
	}
	if gotFilename != "photo.png" {
		t.Errorf("filename = %v, want photo.png", gotFilename)
	}
	if string(gotBytes) != "fake-png-bytes" {
		t.Errorf("uploaded bytes = %q", gotBytes)
	}
	if result.Disease != "Pneumonia" || result.Confidence != 87.5 {
		t.Errorf("Predict() = %+v", result)
	}
}

func TestClient_GuestPredictUsesGuestPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"disease": "Normal", "confidence": 95.1, "timestamp": 1751980800}`))
	}))
	defer server.Close()

	client := testClient(t, server, &notify.Recorder{})

	if _, err := client.GuestPredict(context.Background(), "a.png", []byte("x")); err != nil {
		t.Fatalf("GuestPredict() error = %v", err)
	}
	if gotPath != "/guest-predict" {
		t.Errorf("path = %v, want /guest-predict", gotPath)
	}
}

func TestClient_VerifyEmailSendsQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("email") != "amina@example.com" || q.Get("token") != "tok" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"message": "Email verified"}`))
	}))
	defer server.Close()

	client := testClient(t, server, &notify.Recorder{})

	message, err := client.VerifyEmail(context.Background(), "amina@example.com", "tok")
	if err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if message != "Email verified" {
		t.Errorf("VerifyEmail() = %q, want %q", message, "Email verified")
	}
}

func TestClient_HistoryDecodesMixedTimestamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"history": [
			{"id": "1", "disease": "Pneumonia", "confidence": 87.5, "timestamp": 1751980800},
			{"id": "2", "disease": "Normal", "confidence": 96.0, "timestamp": "2025-07-08T09:00:00Z"}
		]}`))
	}))
	defer server.Close()

	client := testClient(t, server, &notify.Recorder{})

	entries, err := client.History(context.Background())
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("History() len = %d, want 2", len(entries))
	}
	if entries[0].Timestamp.IsZero() || entries[1].Timestamp.IsZero() {
		t.Errorf("timestamps not normalized: %+v", entries)
	}
}
