package storcycle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"spectrabrainz/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, srv *httptest.Server, maxRetries int) *Client {
	t.Helper()
	cfg := config.API{
		BaseURL:        srv.URL,
		PageSize:       2,
		TimeoutSeconds: 5,
		MaxRetries:     maxRetries,
	}
	creds := &config.Credentials{Username: "user", Password: "pass"}
	return New(cfg, creds, testLogger())
}

// fakeAPI is a minimal StorCycle endpoint for client tests.
type fakeAPI struct {
	logins    int
	jobs      []JobStatusEntry
	failGets  int // number of per-job requests to fail before succeeding
	stuckPage bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /openapi/tokens", func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.logins++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{Token: fmt.Sprintf("tok-%d", f.logins)})
	})

	mux.HandleFunc("GET /openapi/jobStatus", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		offset := skip
		if f.stuckPage {
			offset = 0
		}
		end := min(skip+limit, len(f.jobs))
		page := jobStatusPage{
			ResultLimit:  limit,
			ResultOffset: &offset,
			TotalResults: len(f.jobs),
		}
		if skip < len(f.jobs) {
			page.Data = f.jobs[skip:end]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})

	mux.HandleFunc("GET /openapi/jobStatus/{job}", func(w http.ResponseWriter, r *http.Request) {
		if f.failGets > 0 {
			f.failGets--
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		name := r.PathValue("job")
		for _, j := range f.jobs {
			if j.Job == name {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(j)
				return
			}
		}
		http.Error(w, "not found", http.StatusNotFound)
	})

	mux.HandleFunc("GET /openapi/projects/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "bil-0001" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Project{Name: "bil-0001", ProjectType: "ScanAndArchive"})
	})

	mux.HandleFunc("PUT /openapi/projects/archive/{name}", func(w http.ResponseWriter, r *http.Request) {
		var req archiveProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		if req.ProjectType != "ScanAndArchive" || req.Schedule.Period != "Now" {
			http.Error(w, "unexpected payload", http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Project{
			Name:             r.PathValue("name"),
			Description:      req.Description,
			ProjectType:      req.ProjectType,
			WorkingDirectory: req.WorkingDirectory,
			Active:           true,
			Enabled:          true,
		})
	})

	return mux
}

func TestListJobStatusPagination(t *testing.T) {
	api := &fakeAPI{jobs: []JobStatusEntry{
		{Job: "bil-0001-1", State: "Completed"},
		{Job: "bil-0002-1", State: "Failed"},
		{Job: "bil-0003-1", State: "Active"},
	}}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client := testClient(t, srv, 1)
	entries, err := client.ListJobStatus(context.Background(), false)
	if err != nil {
		t.Fatalf("ListJobStatus returned error: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Job != "bil-0001-1" || entries[2].Job != "bil-0003-1" {
		t.Errorf("entries out of order: %+v", entries)
	}
	// Page size 2 over 3 jobs means two listing calls but only one login.
	if api.logins != 1 {
		t.Errorf("client logged in %d times, want 1 (token should be cached)", api.logins)
	}
}

func TestListJobStatusStuckPagination(t *testing.T) {
	api := &fakeAPI{
		jobs: []JobStatusEntry{
			{Job: "a-1"}, {Job: "b-1"}, {Job: "c-1"}, {Job: "d-1"},
		},
		stuckPage: true,
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client := testClient(t, srv, 1)
	_, err := client.ListJobStatus(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "did not advance") {
		t.Fatalf("expected stuck-pagination error, got %v", err)
	}
}

func TestGetJobStatusRetries(t *testing.T) {
	api := &fakeAPI{
		jobs:     []JobStatusEntry{{Job: "bil-0001-3", State: "Completed", TotalFiles: 42}},
		failGets: 1,
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client := testClient(t, srv, 2)
	entry, err := client.GetJobStatus(context.Background(), "bil-0001-3")
	if err != nil {
		t.Fatalf("GetJobStatus returned error: %v", err)
	}
	if entry.State != "Completed" || entry.TotalFiles != 42 {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestGetJobStatusExhaustsRetries(t *testing.T) {
	api := &fakeAPI{failGets: 10}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client := testClient(t, srv, 2)
	if _, err := client.GetJobStatus(context.Background(), "whatever"); err == nil {
		t.Fatal("GetJobStatus should fail once retries are exhausted")
	}
}

func TestProjectExists(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client := testClient(t, srv, 1)
	ctx := context.Background()

	exists, err := client.ProjectExists(ctx, "bil-0001")
	if err != nil {
		t.Fatalf("ProjectExists returned error: %v", err)
	}
	if !exists {
		t.Error("ProjectExists(bil-0001) = false, want true")
	}

	exists, err = client.ProjectExists(ctx, "bil-9999")
	if err != nil {
		t.Fatalf("ProjectExists returned error for missing project: %v", err)
	}
	if exists {
		t.Error("ProjectExists(bil-9999) = true, want false")
	}
}

func TestCreateArchiveProject(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	client := testClient(t, srv, 1)
	project, err := client.CreateArchiveProject(context.Background(), "bil-0042", "test dataset", "/bil/data/bil-0042")
	if err != nil {
		t.Fatalf("CreateArchiveProject returned error: %v", err)
	}
	if project.Name != "bil-0042" {
		t.Errorf("project name = %q, want %q", project.Name, "bil-0042")
	}
	if project.WorkingDirectory != "/bil/data/bil-0042" {
		t.Errorf("working directory = %q, want %q", project.WorkingDirectory, "/bil/data/bil-0042")
	}
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := testClient(t, srv, 1)
	if _, err := client.Login(context.Background()); err == nil {
		t.Fatal("Login should fail when the server rejects credentials")
	}
}
