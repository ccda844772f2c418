// Package scholar implements the user-facing operations of the plugin:
// login, project and augmentation management, file synchronization, QR
// handling, exports and cache maintenance. It drives the cache store and the
// remote client; it owns no state of its own.
package scholar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/scholarar/scholarsync/internal/cache"
	"github.com/scholarar/scholarsync/internal/models"
	"go.uber.org/zap"
)

// RemoteClient is the full remote surface the operations need.
type RemoteClient interface {
	cache.Remote
	CreateProject(token, title, projectType, discURL string) (*models.Project, error)
	CreateAugmentation(token, qrString, title, augType string) (*models.Augmentation, error)
	EditAugmentation(token, qrString, augID, filePath string, targetUpdate bool) (*models.Augmentation, error)
	QRCodes(token, qrString string) (*models.QRCodes, error)
	DownloadTo(rawURL, dir string) (string, error)
}

// Service wires the cache store and the remote client into the operations
// exposed by the command layer.
type Service struct {
	store       *cache.Store
	remote      RemoteClient
	maxUploadMB int64
	log         *zap.Logger
}

// NewService constructs a Service. maxUploadMB is the same ceiling the
// remote client enforces; the service uses it to refuse oversized files
// before creating anything remotely.
func NewService(store *cache.Store, remote RemoteClient, maxUploadMB int64, log *zap.Logger) *Service {
	return &Service{store: store, remote: remote, maxUploadMB: maxUploadMB, log: log}
}

// Login validates the token against the service and persists the user. When
// token is empty the stored token for username is revalidated instead. On
// success the user's project index is refreshed.
func (s *Service) Login(username, token string) error {
	if err := validDisplayName(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}
	if err := s.store.Init(); err != nil {
		return err
	}

	if token == "" {
		// No token given implies the user already exists locally.
		stored, err := s.store.UserToken(username)
		if err != nil {
			s.log.Warn("user does not exist", zap.String("user", username))
			return err
		}
		token = stored
	}

	ok, err := s.remote.ValidateToken(token)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("invalid API token", zap.String("user", username))
		return fmt.Errorf("invalid API token for %q", username)
	}

	if err := s.store.SetUserToken(username, token); err != nil {
		return err
	}
	if err := s.store.RefreshProjects(username); err != nil {
		return err
	}
	s.log.Info("logged into Schol-AR", zap.String("user", username))
	return nil
}

// Project selects an existing project by title or creates it on the service
// first. Either way the project's augmentation index is refreshed and its
// directory exists afterwards.
func (s *Service) Project(username, title, projectType, discURL string) (cache.ProjectID, error) {
	if !s.store.UserExists(username) {
		return cache.ProjectID{}, fmt.Errorf("user %q: %w", username, cache.ErrNotFound)
	}
	if err := validDisplayName(title); err != nil {
		return cache.ProjectID{}, fmt.Errorf("invalid project title: %w", err)
	}
	if !models.ValidProjectType(projectType) {
		return cache.ProjectID{}, fmt.Errorf("invalid project type %q", projectType)
	}

	id, err := s.store.ResolveProject(username, title)
	if cache.IsNotFound(err) {
		token, tokenErr := s.store.UserToken(username)
		if tokenErr != nil {
			return cache.ProjectID{}, tokenErr
		}
		if _, err := s.remote.CreateProject(token, title, projectType, discURL); err != nil {
			s.log.Warn("failed to create project on the Schol-AR server",
				zap.String("project", title), zap.Error(err))
			return cache.ProjectID{}, err
		}
		if err := s.store.RefreshProjects(username); err != nil {
			return cache.ProjectID{}, err
		}
		// The freshly created project has to be resolvable now.
		id, err = s.store.ResolveProject(username, title)
		if err != nil {
			return cache.ProjectID{}, fmt.Errorf("project %q created remotely but missing from the refreshed index: %w", title, err)
		}
	} else if err != nil {
		return cache.ProjectID{}, err
	}

	if err := s.store.RefreshAugmentations(id); err != nil {
		return cache.ProjectID{}, err
	}
	return id, nil
}

// Augmentation selects an existing augmentation by title or creates it on
// the service. When creating, targetImage and modelFile (paths to local
// files) are size-checked first and then uploaded into the new augmentation.
func (s *Service) Augmentation(username, projectTitle, title, augType, targetImage, modelFile string) error {
	id, err := s.requireProject(username, projectTitle)
	if err != nil {
		return err
	}
	if err := validDisplayName(title); err != nil {
		return fmt.Errorf("invalid augmentation title: %w", err)
	}
	if augType != models.AugmentationTypeModel {
		return fmt.Errorf("invalid augmentation type %q: only %q is supported", augType, models.AugmentationTypeModel)
	}

	if aid, err := s.store.ResolveAugmentation(id, title); err == nil {
		// Already known: just make sure the slot directories exist.
		return s.store.InitAugDirs(aid)
	} else if !cache.IsNotFound(err) {
		return err
	}

	// Refuse to create a remote augmentation whose files can never be
	// uploaded.
	for _, path := range []string{targetImage, modelFile} {
		if path == "" {
			continue
		}
		ok, err := s.stageAndSizeCheck(path)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Warn("file exceeds the upload size limit, not creating augmentation",
				zap.String("file", path), zap.Int64("limitMB", s.maxUploadMB))
			return fmt.Errorf("%s exceeds the %dMB upload limit", path, s.maxUploadMB)
		}
	}

	token, err := s.store.UserToken(username)
	if err != nil {
		return err
	}
	if _, err := s.remote.CreateAugmentation(token, id.QRString, title, augType); err != nil {
		s.log.Warn("failed to create augmentation",
			zap.String("augmentation", title), zap.String("project", projectTitle), zap.Error(err))
		return err
	}
	if err := s.store.RefreshAugmentations(id); err != nil {
		return err
	}
	aid, err := s.store.ResolveAugmentation(id, title)
	if err != nil {
		return fmt.Errorf("augmentation %q created remotely but missing from the refreshed index: %w", title, err)
	}
	if err := s.store.InitAugDirs(aid); err != nil {
		return err
	}
	return s.UploadAugFiles(username, projectTitle, title, targetImage, modelFile)
}

// DownloadAugFiles fetches the selected remote files of an augmentation into
// their local slots, replacing whatever occupied them.
func (s *Service) DownloadAugFiles(username, projectTitle, augTitle string, target, model bool) error {
	aug, aid, err := s.requireAugmentation(username, projectTitle, augTitle)
	if err != nil {
		return err
	}

	if target {
		if aug.TargetImageURL == "" {
			s.log.Warn("no target image on the server yet", zap.String("augmentation", augTitle))
		} else if err := s.downloadIntoSlot(aug.TargetImageURL, aid, s.store.TargetImageDir); err != nil {
			return err
		}
	}
	if model {
		if aug.ModelURL == "" {
			s.log.Warn("no augmented file on the server yet", zap.String("augmentation", augTitle))
		} else if err := s.downloadIntoSlot(aug.ModelURL, aid, s.store.ModelDir); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) downloadIntoSlot(url string, aid cache.AugmentationID, dirFn func(cache.AugmentationID) (string, error)) error {
	dir, err := dirFn(aid)
	if err != nil {
		return err
	}
	if err := cache.EmptySlot(dir); err != nil {
		return err
	}
	_, err = s.remote.DownloadTo(url, dir)
	return err
}

// UploadAugFiles copies the given local files into their slots and uploads
// them to the augmentation. Empty paths are skipped. The model is always
// PATCHed before the target image: the service gets stuck showing
// "processing" when the target image lands directly before the model.
func (s *Service) UploadAugFiles(username, projectTitle, augTitle, targetImage, modelFile string) error {
	_, aid, err := s.requireAugmentation(username, projectTitle, augTitle)
	if err != nil {
		return err
	}
	token, err := s.store.UserToken(username)
	if err != nil {
		return err
	}

	if modelFile != "" {
		dest, err := s.store.ModelFilePath(aid, augTitle)
		if err != nil {
			return err
		}
		if err := s.stageIntoSlot(modelFile, dest); err != nil {
			return err
		}
		if err := s.patchAug(token, aid, dest, false, augTitle, projectTitle); err != nil {
			return err
		}
	}
	if targetImage != "" {
		dest, err := s.store.TargetFilePath(aid, augTitle)
		if err != nil {
			return err
		}
		if err := s.stageIntoSlot(targetImage, dest); err != nil {
			return err
		}
		if err := s.patchAug(token, aid, dest, true, augTitle, projectTitle); err != nil {
			return err
		}
	}
	return nil
}

// stageIntoSlot empties the slot holding dest and copies src to dest.
func (s *Service) stageIntoSlot(src, dest string) error {
	if !cache.PathExists(src) {
		return fmt.Errorf("file %q: %w", src, os.ErrNotExist)
	}
	if err := cache.EmptySlot(filepath.Dir(dest)); err != nil {
		return err
	}
	return cache.CopyFile(src, dest)
}

func (s *Service) patchAug(token string, aid cache.AugmentationID, file string, targetUpdate bool, augTitle, projectTitle string) error {
	if _, err := s.remote.EditAugmentation(token, aid.Project.QRString, aid.InternalID, file, targetUpdate); err != nil {
		kind := "augmented file"
		if targetUpdate {
			kind = "target image"
		}
		s.log.Warn("failed to upload augmentation file",
			zap.String("kind", kind),
			zap.String("augmentation", augTitle),
			zap.String("project", projectTitle),
			zap.Error(err))
		return err
	}
	return s.store.RefreshAugmentations(aid.Project)
}

// DownloadQR fetches both QR images of a project into their slots.
func (s *Service) DownloadQR(username, projectTitle string) error {
	id, err := s.requireProject(username, projectTitle)
	if err != nil {
		return err
	}
	token, err := s.store.UserToken(username)
	if err != nil {
		return err
	}
	codes, err := s.remote.QRCodes(token, id.QRString)
	if err != nil {
		s.log.Warn("failed to fetch QR data", zap.String("project", projectTitle), zap.Error(err))
		return err
	}

	pubDir, err := s.store.PublicQRDir(id)
	if err != nil {
		return err
	}
	adminDir, err := s.store.AdminQRDir(id)
	if err != nil {
		return err
	}
	// Stale or renamed QR files in either slot get swept here.
	if err := cache.EmptySlot(pubDir); err != nil {
		return err
	}
	if err := cache.EmptySlot(adminDir); err != nil {
		return err
	}
	if _, err := s.remote.DownloadTo(codes.PublicURL, pubDir); err != nil {
		return err
	}
	_, err = s.remote.DownloadTo(codes.AdminURL, adminDir)
	return err
}

// SaveSession copies a session snapshot into the augmentation's session
// slot, replacing any previous snapshot.
func (s *Service) SaveSession(username, projectTitle, augTitle, sessionFile string) error {
	_, aid, err := s.requireAugmentation(username, projectTitle, augTitle)
	if err != nil {
		return err
	}
	if !cache.PathExists(sessionFile) {
		s.log.Warn("session file does not exist", zap.String("file", sessionFile))
		return fmt.Errorf("session file %q: %w", sessionFile, os.ErrNotExist)
	}
	dir, err := s.store.SessionDir(aid)
	if err != nil {
		return err
	}
	if err := cache.EmptySlot(dir); err != nil {
		return err
	}
	return cache.CopyInto(sessionFile, dir)
}

// OpenSession returns the path of the stored session snapshot for the host
// to open. ErrNotFound when no snapshot has been saved yet.
func (s *Service) OpenSession(username, projectTitle, augTitle string) (string, error) {
	_, aid, err := s.requireAugmentation(username, projectTitle, augTitle)
	if err != nil {
		return "", err
	}
	path, err := s.store.StoredSession(aid)
	if err != nil {
		s.log.Info("no session file yet", zap.String("augmentation", augTitle))
		return "", err
	}
	return path, nil
}

// Status reports the augmentation's tracking score display bucket.
func (s *Service) Status(username, projectTitle, augTitle string) (TrackingReport, error) {
	aug, _, err := s.requireAugmentation(username, projectTitle, augTitle)
	if err != nil {
		return TrackingReport{}, err
	}
	return BucketTrackingScore(aug.TrackingScore), nil
}

// ListUsers returns all locally known usernames.
func (s *Service) ListUsers() []string {
	return s.store.Usernames()
}

// ListProjects returns the cached project titles of a user.
func (s *Service) ListProjects(username string) []string {
	return s.store.ProjectTitles(username)
}

// ListAugmentations returns the cached augmentation titles of a project.
func (s *Service) ListAugmentations(username, projectTitle string) []string {
	id, err := s.store.ResolveProject(username, projectTitle)
	if err != nil {
		return nil
	}
	return s.store.AugmentationTitles(id)
}

// CleanLocal reconciles local cache directories against the remote listings
// for one user, or for every known user when username is empty.
func (s *Service) CleanLocal(username string) error {
	targets := []string{username}
	if username == "" {
		targets = s.store.Usernames()
	} else if !s.store.UserExists(username) {
		s.log.Warn("cannot clean local cache, user not found", zap.String("user", username))
		return fmt.Errorf("user %q: %w", username, cache.ErrNotFound)
	}
	for _, name := range targets {
		if err := s.store.CleanLocal(name); err != nil {
			return err
		}
	}
	return nil
}

// RemoveUser deletes a user's token and entire local subtree.
func (s *Service) RemoveUser(username string) error {
	if err := s.store.RemoveUser(username); err != nil {
		if cache.IsNotFound(err) {
			s.log.Warn("cannot remove user, not found", zap.String("user", username))
		}
		return err
	}
	s.log.Info("user removed", zap.String("user", username))
	return nil
}

// requireProject resolves a project after checking the user exists.
func (s *Service) requireProject(username, projectTitle string) (cache.ProjectID, error) {
	if !s.store.UserExists(username) {
		s.log.Warn("user not found", zap.String("user", username))
		return cache.ProjectID{}, fmt.Errorf("user %q: %w", username, cache.ErrNotFound)
	}
	id, err := s.store.ResolveProject(username, projectTitle)
	if err != nil {
		s.log.Warn("project not found", zap.String("project", projectTitle))
		return cache.ProjectID{}, err
	}
	return id, nil
}

// requireAugmentation resolves an augmentation and returns its cached record
// alongside its identity.
func (s *Service) requireAugmentation(username, projectTitle, augTitle string) (models.Augmentation, cache.AugmentationID, error) {
	id, err := s.requireProject(username, projectTitle)
	if err != nil {
		return models.Augmentation{}, cache.AugmentationID{}, err
	}
	aug, err := s.store.FindAugmentation(id, augTitle)
	if err != nil {
		s.log.Warn("augmentation not found", zap.String("augmentation", augTitle))
		return models.Augmentation{}, cache.AugmentationID{}, err
	}
	return aug, cache.AugmentationID{Project: id, InternalID: aug.InternalID}, nil
}

// stageAndSizeCheck copies a candidate upload into the scratch directory
// under a unique name, checks it against the upload ceiling, and removes the
// scratch directory again.
func (s *Service) stageAndSizeCheck(src string) (bool, error) {
	if !cache.PathExists(src) {
		return false, fmt.Errorf("file %q: %w", src, os.ErrNotExist)
	}
	dir, err := s.store.TempDir()
	if err != nil {
		return false, err
	}
	defer func() { _ = s.store.RemoveTempDir() }()

	staged := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(src)))
	if err := cache.CopyFile(src, staged); err != nil {
		return false, err
	}
	return cache.WithinSizeLimit(staged, s.maxUploadMB), nil
}
