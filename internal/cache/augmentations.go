package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/scholarar/scholarsync/internal/models"
)

func (s *Store) augsInfoPath(id ProjectID) string {
	return filepath.Join(s.projectDirName(id), augsInfoFile)
}

// Augmentations returns the cached augmentation listing for a project, or
// ErrNotFound when no listing has been fetched yet.
func (s *Store) Augmentations(id ProjectID) ([]models.Augmentation, error) {
	var augs []models.Augmentation
	if err := s.readJSON(s.augsInfoPath(id), &augs); err != nil {
		return nil, err
	}
	return augs, nil
}

// AugmentationTitles returns the titles of every cached augmentation in the
// project.
func (s *Store) AugmentationTitles(id ProjectID) []string {
	augs, err := s.Augmentations(id)
	if err != nil {
		return nil
	}
	titles := make([]string, 0, len(augs))
	for _, a := range augs {
		titles = append(titles, a.Title)
	}
	return titles
}

// RefreshAugmentations replaces the project's augmentation index with the
// latest remote listing. The index file is untouched when the remote call
// fails.
func (s *Store) RefreshAugmentations(id ProjectID) error {
	token, err := s.UserToken(id.Owner)
	if err != nil {
		return err
	}
	augs, err := s.remote.ListAugmentations(token, id.QRString)
	if err != nil {
		return fmt.Errorf("refresh augmentations for %q: %w", id.QRString, err)
	}
	if _, err := s.ProjectDir(id); err != nil {
		return err
	}
	return s.writeJSON(s.augsInfoPath(id), augs)
}

// FindAugmentation returns the cached record whose title matches exactly.
func (s *Store) FindAugmentation(id ProjectID, title string) (models.Augmentation, error) {
	augs, err := s.Augmentations(id)
	if err != nil {
		return models.Augmentation{}, err
	}
	for _, a := range augs {
		if a.Title == title {
			return a, nil
		}
	}
	return models.Augmentation{}, fmt.Errorf("augmentation %q: %w", title, ErrNotFound)
}

// AugmentationExists reports whether a cached augmentation with the given
// title exists in the project.
func (s *Store) AugmentationExists(id ProjectID, title string) bool {
	_, err := s.FindAugmentation(id, title)
	return err == nil
}

// ResolveAugmentation maps a title to the augmentation's stable identity.
func (s *Store) ResolveAugmentation(id ProjectID, title string) (AugmentationID, error) {
	a, err := s.FindAugmentation(id, title)
	if err != nil {
		return AugmentationID{}, err
	}
	return AugmentationID{Project: id, InternalID: a.InternalID}, nil
}

// augDirName derives the augmentation directory path. Pure.
func (s *Store) augDirName(id AugmentationID) string {
	return filepath.Join(s.projectDirName(id.Project), id.InternalID)
}

// AugDir returns (and creates) the augmentation directory.
func (s *Store) AugDir(id AugmentationID) (string, error) {
	return s.mkSlot(s.augDirName(id))
}

// TargetImageDir returns (and creates) the target image slot directory.
func (s *Store) TargetImageDir(id AugmentationID) (string, error) {
	return s.mkSlot(s.augDirName(id), targetImageDir)
}

// ModelDir returns (and creates) the model slot directory.
func (s *Store) ModelDir(id AugmentationID) (string, error) {
	return s.mkSlot(s.augDirName(id), modelDir)
}

// SessionDir returns (and creates) the session snapshot slot directory.
func (s *Store) SessionDir(id AugmentationID) (string, error) {
	return s.mkSlot(s.augDirName(id), sessionDir)
}

// InitAugDirs creates the full slot directory structure for an augmentation.
func (s *Store) InitAugDirs(id AugmentationID) error {
	if _, err := s.TargetImageDir(id); err != nil {
		return err
	}
	if _, err := s.ModelDir(id); err != nil {
		return err
	}
	_, err := s.SessionDir(id)
	return err
}

// TargetFilePath returns the canonical write path for a new target image of
// the titled augmentation. The slot directory is created if needed.
func (s *Store) TargetFilePath(id AugmentationID, title string) (string, error) {
	dir, err := s.TargetImageDir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, title+"-target.png"), nil
}

// ModelFilePath returns the canonical write path for a new model file.
func (s *Store) ModelFilePath(id AugmentationID, title string) (string, error) {
	dir, err := s.ModelDir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, title+"-model.glb"), nil
}

// SessionFilePath returns the canonical write path for a new session
// snapshot.
func (s *Store) SessionFilePath(id AugmentationID, title string) (string, error) {
	dir, err := s.SessionDir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, title+"-session.cxs"), nil
}

// StoredTargetImage returns the file currently occupying the target image
// slot, or ErrNotFound when the slot is empty.
func (s *Store) StoredTargetImage(id AugmentationID) (string, error) {
	return s.firstInSlot(s.TargetImageDir, id)
}

// StoredModel returns the file currently occupying the model slot.
func (s *Store) StoredModel(id AugmentationID) (string, error) {
	return s.firstInSlot(s.ModelDir, id)
}

// StoredSession returns the file currently occupying the session slot.
func (s *Store) StoredSession(id AugmentationID) (string, error) {
	return s.firstInSlot(s.SessionDir, id)
}

// HasSessionFile reports whether the session slot holds a .cxs snapshot.
func (s *Store) HasSessionFile(id AugmentationID) bool {
	path, err := s.StoredSession(id)
	return err == nil && filepath.Ext(path) == ".cxs"
}

func (s *Store) firstInSlot(dirFn func(AugmentationID) (string, error), id AugmentationID) (string, error) {
	dir, err := dirFn(id)
	if err != nil {
		return "", err
	}
	name, err := FirstFile(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// EmptySlot removes every entry from dir so that the next write leaves the
// slot with exactly one file.
func EmptySlot(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
