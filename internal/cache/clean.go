package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CleanLocal prunes the user's cache tree to match the remote listings:
// project directories whose QRString no longer exists remotely are deleted,
// then the same one level down for each project's augmentation directories.
// Local directories are disposable caches; the remote is authoritative.
//
// A token the service no longer accepts aborts the whole operation without
// deleting anything: a dead token must never look like "the remote has no
// projects".
func (s *Store) CleanLocal(username string) error {
	if !s.UserExists(username) {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	token, err := s.UserToken(username)
	if err != nil {
		return err
	}
	ok, err := s.remote.ValidateToken(token)
	if err != nil {
		return fmt.Errorf("validate token for %q: %w", username, err)
	}
	if !ok {
		s.log.Warn("user has an invalid API token, skipping clean; consider removing the user",
			zap.String("user", username))
		return nil
	}

	if err := s.RefreshProjects(username); err != nil {
		return err
	}
	projects, err := s.Projects(username)
	if err != nil {
		return err
	}

	// Prune project directories that are not named after a live QRString.
	expected := make(map[string]bool, len(projects))
	for _, p := range projects {
		expected[p.QRString] = true
	}
	if err := s.pruneDirs(s.userDir(username), expected); err != nil {
		return err
	}

	// One level down: prune augmentation directories per project. The qr
	// directory is project-level infrastructure, not an augmentation, and
	// is kept.
	for _, p := range projects {
		id := ProjectID{Owner: username, QRString: p.QRString}
		if err := s.RefreshAugmentations(id); err != nil {
			return err
		}
		augs, err := s.Augmentations(id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return err
		}
		keep := map[string]bool{qrDir: true}
		for _, a := range augs {
			keep[a.InternalID] = true
		}
		if err := s.pruneDirs(s.projectDirName(id), keep); err != nil {
			return err
		}
	}
	return nil
}

// pruneDirs removes every subdirectory of root whose name is not in keep.
// Regular files (the index files) are never touched.
func (s *Store) pruneDirs(root string, keep map[string]bool) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || keep[e.Name()] {
			continue
		}
		path := filepath.Join(root, e.Name())
		s.log.Info("removing stale cache directory", zap.String("path", path))
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}
