package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/scholarar/scholarsync/internal/models"
	"go.uber.org/zap"
)

const testToken = "secret-token"

// newFakeRemote serves a minimal Schol-AR API for one user with one project
// and one augmentation. Handlers check the Authorization header the same
// way the real service does.
func newFakeRemote(t *testing.T) *httptest.Server {
	t.Helper()

	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Token "+testToken
	}

	r := chi.NewRouter()
	r.Get("/api/ListARP", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]models.Project{
			{Title: "My Poster", Type: "poster", QRString: "xyz123"},
		})
	})
	r.Post("/api/CreateARP", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "expected json", http.StatusBadRequest)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(models.Project{
			Title:    body["project_title"],
			Type:     body["project_type"],
			DiscURL:  body["disc_url"],
			QRString: "new456",
		})
	})
	r.Get("/api/ListAug/{qr}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "qr") != "xyz123" {
			http.Error(w, "no such project", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]models.Augmentation{
			{Title: "Figure1", Type: "model", InternalID: "a1", TrackingScore: 80},
		})
	})
	r.Patch("/api/EditAug/{qr}/{aug}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		field := augmentedFileField
		if r.MultipartForm.File[targetImageField] != nil {
			field = targetImageField
		}
		if r.MultipartForm.File[field] == nil {
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(models.Augmentation{
			Title: "Figure1", InternalID: chi.URLParam(r, "aug"),
		})
	})
	r.Get("/api/GetQR/{qr}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.QRCodes{
			PublicURL: "https://cdn.example.com/qr/pub.png",
			AdminURL:  "https://cdn.example.com/qr/admin.png",
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return New(baseURL, 30, zap.NewNop())
}

func TestValidateToken(t *testing.T) {
	srv := newFakeRemote(t)
	c := newTestClient(t, srv.URL)

	ok, err := c.ValidateToken(testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected valid token to be accepted")
	}

	// 401 is an expected outcome, not an error.
	ok, err = c.ValidateToken("wrong")
	if err != nil {
		t.Fatalf("401 must not be an error, got: %v", err)
	}
	if ok {
		t.Error("expected invalid token to be rejected")
	}
}

func TestValidateToken_ServerFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).ValidateToken(testToken)
	if !IsServerFault(err) {
		t.Fatalf("expected a ServerFault for a 500, got: %v", err)
	}
	var sf *ServerFault
	if errors.As(err, &sf) && sf.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500 in fault, got %d", sf.Status)
	}
}

func TestValidateToken_Unreachable(t *testing.T) {
	// A server that is immediately closed leaves nothing listening.
	srv := httptest.NewServer(http.NewServeMux())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).ValidateToken(testToken)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got: %v", err)
	}
}

func TestListProjects(t *testing.T) {
	srv := newFakeRemote(t)
	c := newTestClient(t, srv.URL)

	projects, err := c.ListProjects(testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 || projects[0].QRString != "xyz123" {
		t.Errorf("unexpected projects: %+v", projects)
	}
}

func TestListAugmentations_NotFoundIsRejected(t *testing.T) {
	srv := newFakeRemote(t)
	c := newTestClient(t, srv.URL)

	_, err := c.ListAugmentations(testToken, "missing")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected for a 404, got: %v", err)
	}
	if IsServerFault(err) {
		t.Error("a 404 must not classify as a server fault")
	}
}

func TestCreateProject(t *testing.T) {
	srv := newFakeRemote(t)
	c := newTestClient(t, srv.URL)

	project, err := c.CreateProject(testToken, "My Book", "book", "https://doi.example.com/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project.Title != "My Book" || project.QRString != "new456" {
		t.Errorf("unexpected created project: %+v", project)
	}
}

func TestEditAugmentation_SizeCeiling(t *testing.T) {
	// The server would accept anything; the client must refuse before the
	// call is made.
	srv := newFakeRemote(t)
	c := New(srv.URL, 0, zap.NewNop())

	big := filepath.Join(t.TempDir(), "big.glb")
	if err := os.WriteFile(big, []byte("anything"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := c.EditAugmentation(testToken, "xyz123", "a1", big, false)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got: %v", err)
	}
}

func TestEditAugmentation_FieldNames(t *testing.T) {
	srv := newFakeRemote(t)
	c := newTestClient(t, srv.URL)

	file := filepath.Join(t.TempDir(), "fig.png")
	if err := os.WriteFile(file, []byte("png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.EditAugmentation(testToken, "xyz123", "a1", file, true); err != nil {
		t.Errorf("target image upload failed: %v", err)
	}
	if _, err := c.EditAugmentation(testToken, "xyz123", "a1", file, false); err != nil {
		t.Errorf("model upload failed: %v", err)
	}
}

func TestDownloadTo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/abc.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("image bytes"))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)
	dir := t.TempDir()

	path, err := c.DownloadTo(srv.URL+"/media/abc.png", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "abc.png" {
		t.Errorf("unexpected filename: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "image bytes" {
		t.Errorf("unexpected file contents: %q, %v", data, err)
	}

	// Failed downloads write nothing.
	if _, err := c.DownloadTo(srv.URL+"/media/missing.png", dir); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected exactly one file in dir after failed download, got %d", len(entries))
	}
}
