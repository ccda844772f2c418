package cache

import (
	"testing"

	"github.com/scholarar/scholarsync/internal/models"
	"go.uber.org/zap"
)

// fakeRemote implements Remote for testing.
type fakeRemote struct {
	validateOK  bool
	validateErr error
	projects    []models.Project
	projectsErr error
	augs        map[string][]models.Augmentation
	augsErr     error
}

func (f *fakeRemote) ValidateToken(token string) (bool, error) {
	return f.validateOK, f.validateErr
}

func (f *fakeRemote) ListProjects(token string) ([]models.Project, error) {
	return f.projects, f.projectsErr
}

func (f *fakeRemote) ListAugmentations(token, qrString string) ([]models.Augmentation, error) {
	if f.augsErr != nil {
		return nil, f.augsErr
	}
	return f.augs[qrString], nil
}

// newTestStore returns a Store rooted in a temp dir with alice logged in.
func newTestStore(t *testing.T, remote *fakeRemote) *Store {
	t.Helper()
	s := NewStore(t.TempDir(), remote, zap.NewNop())
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := s.SetUserToken("alice", "token-a"); err != nil {
		t.Fatalf("SetUserToken failed: %v", err)
	}
	return s
}
