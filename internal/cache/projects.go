package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scholarar/scholarsync/internal/models"
)

func (s *Store) projectsInfoPath(username string) string {
	return filepath.Join(s.userDir(username), projectsInfoFile)
}

// Projects returns the cached project listing for username, or ErrNotFound
// when no listing has been fetched yet.
func (s *Store) Projects(username string) ([]models.Project, error) {
	var projects []models.Project
	if err := s.readJSON(s.projectsInfoPath(username), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectTitles returns the titles of every cached project for username.
func (s *Store) ProjectTitles(username string) []string {
	projects, err := s.Projects(username)
	if err != nil {
		return nil
	}
	titles := make([]string, 0, len(projects))
	for _, p := range projects {
		titles = append(titles, p.Title)
	}
	return titles
}

// RefreshProjects replaces the user's project index with the latest remote
// listing. The index file is untouched when the remote call fails.
func (s *Store) RefreshProjects(username string) error {
	if !s.UserExists(username) {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	token, err := s.UserToken(username)
	if err != nil {
		return err
	}
	projects, err := s.remote.ListProjects(token)
	if err != nil {
		return fmt.Errorf("refresh projects for %q: %w", username, err)
	}
	if err := os.MkdirAll(s.userDir(username), 0o755); err != nil {
		return err
	}
	return s.writeJSON(s.projectsInfoPath(username), projects)
}

// FindProject returns the cached record whose title matches exactly.
func (s *Store) FindProject(username, title string) (models.Project, error) {
	projects, err := s.Projects(username)
	if err != nil {
		return models.Project{}, err
	}
	for _, p := range projects {
		if p.Title == title {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("project %q: %w", title, ErrNotFound)
}

// ProjectExists reports whether a cached project with the given title exists.
func (s *Store) ProjectExists(username, title string) bool {
	_, err := s.FindProject(username, title)
	return err == nil
}

// ResolveProject maps a (username, title) pair to the project's stable
// identity. Fails with ErrNotFound rather than guessing a path when the
// project is not in the index.
func (s *Store) ResolveProject(username, title string) (ProjectID, error) {
	p, err := s.FindProject(username, title)
	if err != nil {
		return ProjectID{}, err
	}
	return ProjectID{Owner: username, QRString: p.QRString}, nil
}

// projectDirName derives the project directory path. Pure: identity in,
// path out, no disk access.
func (s *Store) projectDirName(id ProjectID) string {
	return filepath.Join(s.baseDir, id.Owner, id.QRString)
}

// ProjectDir returns the project directory, creating it if needed so the
// same accessor serves both reads and writes.
func (s *Store) ProjectDir(id ProjectID) (string, error) {
	dir := s.projectDirName(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// PublicQRDir returns (and creates) the slot directory of the public QR
// image.
func (s *Store) PublicQRDir(id ProjectID) (string, error) {
	return s.mkSlot(s.projectDirName(id), qrDir, pubQRDir)
}

// AdminQRDir returns (and creates) the slot directory of the admin QR image.
func (s *Store) AdminQRDir(id ProjectID) (string, error) {
	return s.mkSlot(s.projectDirName(id), qrDir, adminQRDir)
}

// QRFile returns the full path of the stored QR image, admin or public.
// ErrNotFound when the slot is empty.
func (s *Store) QRFile(id ProjectID, admin bool) (string, error) {
	var dir string
	var err error
	if admin {
		dir, err = s.AdminQRDir(id)
	} else {
		dir, err = s.PublicQRDir(id)
	}
	if err != nil {
		return "", err
	}
	name, err := FirstFile(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// mkSlot joins parts under base and mkdirs the result.
func (s *Store) mkSlot(base string, parts ...string) (string, error) {
	dir := filepath.Join(append([]string{base}, parts...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// IsNotFound reports whether err is the cache's absence sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
