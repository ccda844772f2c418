package cache

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/scholarar/scholarsync/internal/models"
)

func dirNames(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func TestCleanLocal_RemovesOrphanProjects(t *testing.T) {
	remote := &fakeRemote{
		validateOK: true,
		projects: []models.Project{
			{Title: "P1", QRString: "p1"},
			{Title: "P3", QRString: "p3"},
		},
		augs: map[string][]models.Augmentation{},
	}
	s := newTestStore(t, remote)

	// Local cache holds p1, p2, p3; remote only knows p1 and p3.
	for _, qr := range []string{"p1", "p2", "p3"} {
		if _, err := s.ProjectDir(ProjectID{Owner: "alice", QRString: qr}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.CleanLocal("alice"); err != nil {
		t.Fatalf("CleanLocal failed: %v", err)
	}

	got := dirNames(t, filepath.Join(s.BaseDir(), "alice"))
	want := []string{"p1", "p3"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v on disk, got %v", want, got)
	}
}

func TestCleanLocal_PreservesOnExactMatch(t *testing.T) {
	remote := &fakeRemote{
		validateOK: true,
		projects:   []models.Project{{Title: "P1", QRString: "p1"}},
		augs: map[string][]models.Augmentation{
			"p1": {{Title: "A", InternalID: "a1"}},
		},
	}
	s := newTestStore(t, remote)

	id := ProjectID{Owner: "alice", QRString: "p1"}
	aid := AugmentationID{Project: id, InternalID: "a1"}
	if err := s.InitAugDirs(aid); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(s.BaseDir(), "alice", "p1", "a1", targetImageDir, "img.png")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.CleanLocal("alice"); err != nil {
		t.Fatalf("CleanLocal failed: %v", err)
	}

	if _, err := os.Stat(marker); err != nil {
		t.Errorf("matching directories must be left untouched: %v", err)
	}
}

func TestCleanLocal_RemovesOrphanAugmentations(t *testing.T) {
	remote := &fakeRemote{
		validateOK: true,
		projects:   []models.Project{{Title: "P1", QRString: "p1"}},
		augs: map[string][]models.Augmentation{
			"p1": {{Title: "A", InternalID: "a1"}},
		},
	}
	s := newTestStore(t, remote)

	id := ProjectID{Owner: "alice", QRString: "p1"}
	for _, augID := range []string{"a1", "a2"} {
		if _, err := s.AugDir(AugmentationID{Project: id, InternalID: augID}); err != nil {
			t.Fatal(err)
		}
	}
	// The qr directory is project infrastructure and must survive pruning.
	if _, err := s.PublicQRDir(id); err != nil {
		t.Fatal(err)
	}

	if err := s.CleanLocal("alice"); err != nil {
		t.Fatalf("CleanLocal failed: %v", err)
	}

	got := dirNames(t, filepath.Join(s.BaseDir(), "alice", "p1"))
	want := []string{"a1", qrDir}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v in project dir, got %v", want, got)
	}
}

func TestCleanLocal_DeadTokenDeletesNothing(t *testing.T) {
	remote := &fakeRemote{
		validateOK: false,
		projects:   nil, // would look like "no projects" if consulted
	}
	s := newTestStore(t, remote)
	if _, err := s.ProjectDir(ProjectID{Owner: "alice", QRString: "p1"}); err != nil {
		t.Fatal(err)
	}

	if err := s.CleanLocal("alice"); err != nil {
		t.Fatalf("CleanLocal must abort quietly on a dead token: %v", err)
	}

	if got := dirNames(t, filepath.Join(s.BaseDir(), "alice")); len(got) != 1 {
		t.Errorf("a dead token must never cause deletion, got %v", got)
	}
}

func TestCleanLocal_ValidationErrorAborts(t *testing.T) {
	remote := &fakeRemote{validateErr: os.ErrDeadlineExceeded}
	s := newTestStore(t, remote)
	if _, err := s.ProjectDir(ProjectID{Owner: "alice", QRString: "p1"}); err != nil {
		t.Fatal(err)
	}

	if err := s.CleanLocal("alice"); err == nil {
		t.Fatal("expected an error when token validation cannot be performed")
	}
	if got := dirNames(t, filepath.Join(s.BaseDir(), "alice")); len(got) != 1 {
		t.Errorf("nothing may be deleted when validation fails, got %v", got)
	}
}

func TestCleanLocal_UnknownUser(t *testing.T) {
	s := newTestStore(t, &fakeRemote{})
	if err := s.CleanLocal("nobody"); !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}
