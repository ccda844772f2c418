// Package cache owns the local on-disk mirror of a user's Schol-AR state:
// a directory tree plus JSON index files, kept consistent with the remote
// service. The layout is
//
//	<base>/users_info.json
//	<base>/<username>/projects_info.json
//	<base>/<username>/<qr_string>/augmentations_info.json
//	<base>/<username>/<qr_string>/<aug_id>/{target_image,augmented_file,cxs}/
//	<base>/<username>/<qr_string>/qr/{pub,admin}/
//
// The remote service is the source of truth; index files are always replaced
// wholesale with the latest remote listing, and reconciliation prunes local
// directories whose identifiers no longer exist remotely.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scholarar/scholarsync/internal/models"
	"go.uber.org/zap"
)

// Index file and slot directory names.
const (
	usersInfoFile    = "users_info.json"
	projectsInfoFile = "projects_info.json"
	augsInfoFile     = "augmentations_info.json"

	qrDir      = "qr"
	pubQRDir   = "pub"
	adminQRDir = "admin"

	targetImageDir = "target_image"
	modelDir       = "augmented_file"
	sessionDir     = "cxs"

	tempDir = "temp"
)

// ErrNotFound marks a legitimately absent entity: a user, project or
// augmentation missing from the local index, or an empty file slot. It is
// distinct from a remote failure, which surfaces as an api error.
var ErrNotFound = errors.New("not found in local cache")

// Remote is the subset of the API client the cache needs for refresh and
// reconciliation.
type Remote interface {
	// ValidateToken reports whether the service still accepts the token.
	ValidateToken(token string) (bool, error)
	// ListProjects fetches the authoritative project listing.
	ListProjects(token string) ([]models.Project, error)
	// ListAugmentations fetches the authoritative augmentation listing for
	// one project.
	ListAugmentations(token, qrString string) ([]models.Augmentation, error)
}

// Store manages the cache directory tree rooted at baseDir. One Store is
// expected per process; the tree is not safe against concurrent writers.
type Store struct {
	baseDir string
	remote  Remote
	log     *zap.Logger
	creds   CredentialCache
}

// NewStore constructs a Store rooted at baseDir.
func NewStore(baseDir string, remote Remote, log *zap.Logger) *Store {
	return &Store{baseDir: baseDir, remote: remote, log: log}
}

// BaseDir returns the root of the cache tree.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Init creates the base directory and an empty users index if this is the
// first time the cache is used. Idempotent.
func (s *Store) Init() error {
	if _, err := os.Stat(s.usersInfoPath()); err == nil {
		return nil
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return err
	}
	return s.writeJSON(s.usersInfoPath(), map[string]string{})
}

func (s *Store) usersInfoPath() string {
	return filepath.Join(s.baseDir, usersInfoFile)
}

func (s *Store) userDir(username string) string {
	return filepath.Join(s.baseDir, username)
}

// TempDir returns (and creates) a scratch directory used for staging files
// before size checks.
func (s *Store) TempDir() (string, error) {
	dir := filepath.Join(s.baseDir, tempDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// RemoveTempDir deletes the staging directory and everything in it.
func (s *Store) RemoveTempDir() error {
	return os.RemoveAll(filepath.Join(s.baseDir, tempDir))
}

// UsersInfo returns the username → token mapping, or ErrNotFound when the
// index file does not exist yet.
func (s *Store) UsersInfo() (map[string]string, error) {
	var users map[string]string
	if err := s.readJSON(s.usersInfoPath(), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserExists reports whether username is present in the users index.
func (s *Store) UserExists(username string) bool {
	users, err := s.UsersInfo()
	if err != nil {
		return false
	}
	_, ok := users[username]
	return ok
}

// Usernames returns every username in the users index.
func (s *Store) Usernames() []string {
	users, err := s.UsersInfo()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	return names
}

// SetUserToken saves (or overwrites) the token for username, creates the
// user's directory, and updates the credential cache.
func (s *Store) SetUserToken(username, token string) error {
	users, err := s.UsersInfo()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		users = map[string]string{}
	}
	users[username] = token

	if err := s.writeJSON(s.usersInfoPath(), users); err != nil {
		return err
	}
	if err := os.MkdirAll(s.userDir(username), 0o755); err != nil {
		return err
	}
	s.creds.Set(username, token)
	return nil
}

// UserToken returns the token for username. Repeated calls for the same user
// are served from the credential cache; a call for a different user re-reads
// the index and overwrites the cache slot.
func (s *Store) UserToken(username string) (string, error) {
	if token, ok := s.creds.Get(username); ok {
		return token, nil
	}
	users, err := s.UsersInfo()
	if err != nil {
		return "", fmt.Errorf("read users index: %w", err)
	}
	token, ok := users[username]
	if !ok {
		return "", fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	s.creds.Set(username, token)
	return token, nil
}

// RemoveUser deletes the user's entire subtree and drops the user from the
// users index. Returns ErrNotFound when the user is unknown.
func (s *Store) RemoveUser(username string) error {
	users, err := s.UsersInfo()
	if err != nil {
		return err
	}
	if _, ok := users[username]; !ok {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	if err := os.RemoveAll(s.userDir(username)); err != nil {
		return err
	}
	delete(users, username)
	if err := s.writeJSON(s.usersInfoPath(), users); err != nil {
		return err
	}
	s.creds.Invalidate()
	return nil
}

// readJSON loads path into out, mapping a missing file to ErrNotFound.
func (s *Store) readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return err
	}
	return json.Unmarshal(data, out)
}

// writeJSON replaces path with the indented JSON encoding of v. Index files
// are only ever rewritten whole, never patched in place.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
