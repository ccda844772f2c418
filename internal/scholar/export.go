package scholar

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/scholarar/scholarsync/internal/api"
	"github.com/scholarar/scholarsync/internal/cache"
)

// Export operations copy cached files to locations outside the cache tree,
// downloading them first when the slot is still empty.

// ExportTargetImage copies the augmentation's target image to dest (".png"
// appended when missing).
func (s *Service) ExportTargetImage(username, projectTitle, augTitle, dest string) error {
	_, aid, err := s.requireAugmentation(username, projectTitle, augTitle)
	if err != nil {
		return err
	}
	path, err := s.store.StoredTargetImage(aid)
	if cache.IsNotFound(err) {
		if err := s.DownloadAugFiles(username, projectTitle, augTitle, true, false); err != nil {
			return err
		}
		path, err = s.store.StoredTargetImage(aid)
	}
	if err != nil {
		return err
	}
	return cache.CopyFile(path, forceExtension(dest, ".png"))
}

// ExportModel copies the augmentation's model file to dest (".glb" appended
// when missing).
func (s *Service) ExportModel(username, projectTitle, augTitle, dest string) error {
	_, aid, err := s.requireAugmentation(username, projectTitle, augTitle)
	if err != nil {
		return err
	}
	path, err := s.store.StoredModel(aid)
	if cache.IsNotFound(err) {
		if err := s.DownloadAugFiles(username, projectTitle, augTitle, false, true); err != nil {
			return err
		}
		path, err = s.store.StoredModel(aid)
	}
	if err != nil {
		return err
	}
	return cache.CopyFile(path, forceExtension(dest, ".glb"))
}

// ExportQR copies the project's public QR image to dest (".png" appended
// when missing).
func (s *Service) ExportQR(username, projectTitle, dest string) error {
	id, err := s.requireProject(username, projectTitle)
	if err != nil {
		return err
	}
	path, err := s.store.QRFile(id, false)
	if cache.IsNotFound(err) {
		if err := s.DownloadQR(username, projectTitle); err != nil {
			return err
		}
		path, err = s.store.QRFile(id, false)
	}
	if err != nil {
		return err
	}
	return cache.CopyFile(path, forceExtension(dest, ".png"))
}

// ExportAll copies the augmentation's model, target image and the project's
// public QR image into folder. File names derive from the augmentation
// title, sanitized; the QR file is named after the project title because the
// QRString identifier means nothing to a reader.
func (s *Service) ExportAll(username, projectTitle, augTitle, folder string) error {
	if _, _, err := s.requireAugmentation(username, projectTitle, augTitle); err != nil {
		return err
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	safe := api.SanitizeFilename(augTitle)
	if err := s.ExportModel(username, projectTitle, augTitle, filepath.Join(folder, safe+".glb")); err != nil {
		return err
	}
	if err := s.ExportTargetImage(username, projectTitle, augTitle, filepath.Join(folder, safe+".png")); err != nil {
		return err
	}
	return s.ExportQR(username, projectTitle, filepath.Join(folder, projectTitle+"_qr.png"))
}

// forceExtension appends ext (including the dot) unless path already ends
// with it.
func forceExtension(path, ext string) string {
	if strings.HasSuffix(path, ext) {
		return path
	}
	return path + ext
}
