// Package api is a stateless client for the small set of Schol-AR REST
// endpoints the plugin uses. Each public method issues exactly one
// authenticated HTTP call and either returns parsed JSON or a classified
// error; it never touches disk except to read a file being uploaded.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/scholarar/scholarsync/internal/models"
	"go.uber.org/zap"
)

// Multipart field names the EditAug endpoint expects.
const (
	targetImageField   = "target_image"
	augmentedFileField = "augmented_file"
)

// Client performs authenticated calls against the Schol-AR service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxUpload  int64
	log        *zap.Logger
}

// New constructs a Client for the service at baseURL. maxUploadMB caps the
// size of files accepted for upload before any network call is made.
func New(baseURL string, maxUploadMB int64, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		maxUpload:  maxUploadMB * 1024 * 1024,
		log:        log,
	}
}

// send issues req and classifies the outcome. On success the body is decoded
// into out when out is non-nil. Transport failures and 4xx responses are
// logged here so every endpoint shares one reporting policy; 5xx responses
// come back as a *ServerFault for the caller to escalate.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("request never reached the Schol-AR service",
			zap.String("url", req.URL.String()), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &ServerFault{URL: req.URL.String(), Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		c.log.Error("Schol-AR call failed",
			zap.String("url", req.URL.String()), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s returned %d", ErrRejected, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode Schol-AR response: %w", err)
	}
	return nil
}

// newRequest builds a request against the service with the token set in the
// Authorization header.
func (c *Client) newRequest(method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+token)
	return req, nil
}

// ValidateToken checks a token by issuing the cheapest list call. A 401 is an
// expected outcome meaning "invalid token" and is reported as (false, nil),
// not logged as an error. 5xx still escalates as a ServerFault.
func (c *Client) ValidateToken(token string) (bool, error) {
	req, err := c.newRequest(http.MethodGet, "/api/ListARP", token, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("request never reached the Schol-AR service",
			zap.String("url", req.URL.String()), zap.Error(err))
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return false, &ServerFault{URL: req.URL.String(), Status: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized:
		return false, nil
	case resp.StatusCode >= 400:
		c.log.Error("Schol-AR call failed",
			zap.String("url", req.URL.String()), zap.Int("status", resp.StatusCode))
		return false, fmt.Errorf("%w: %s returned %d", ErrRejected, req.URL.Path, resp.StatusCode)
	}
	return true, nil
}

// ListProjects fetches every project owned by the token's user.
func (c *Client) ListProjects(token string) ([]models.Project, error) {
	req, err := c.newRequest(http.MethodGet, "/api/ListARP", token, nil)
	if err != nil {
		return nil, err
	}
	var projects []models.Project
	if err := c.send(req, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a new project and returns the created record.
func (c *Client) CreateProject(token, title, projectType, discURL string) (*models.Project, error) {
	payload, err := json.Marshal(map[string]string{
		"project_title": title,
		"project_type":  projectType,
		"disc_url":      discURL,
	})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(http.MethodPost, "/api/CreateARP", token, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	// The service rejects CreateARP bodies without an explicit JSON
	// content type.
	req.Header.Set("Content-Type", "application/json")

	var project models.Project
	if err := c.send(req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListAugmentations fetches every augmentation of the project identified by
// qrString.
func (c *Client) ListAugmentations(token, qrString string) ([]models.Augmentation, error) {
	req, err := c.newRequest(http.MethodGet, "/api/ListAug/"+qrString, token, nil)
	if err != nil {
		return nil, err
	}
	var augs []models.Augmentation
	if err := c.send(req, &augs); err != nil {
		return nil, err
	}
	return augs, nil
}

// CreateAugmentation creates a new, initially empty augmentation in the
// project identified by qrString.
func (c *Client) CreateAugmentation(token, qrString, title, augType string) (*models.Augmentation, error) {
	payload, err := json.Marshal(map[string]string{
		"augmentation_title": title,
		"augmentation_type":  augType,
	})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(http.MethodPost, "/api/CreateAug/"+qrString, token, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var aug models.Augmentation
	if err := c.send(req, &aug); err != nil {
		return nil, err
	}
	return &aug, nil
}

// EditAugmentation uploads exactly one file to an existing augmentation as a
// multipart PATCH. When targetUpdate is true the file replaces the target
// image, otherwise it replaces the augmented model. Files over the size
// ceiling are refused before any network I/O.
func (c *Client) EditAugmentation(token, qrString, augID, filePath string, targetUpdate bool) (*models.Augmentation, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat upload file: %w", err)
	}
	if info.Size() > c.maxUpload {
		c.log.Warn("refusing upload over the size limit",
			zap.String("file", filePath),
			zap.Int64("size", info.Size()),
			zap.Int64("limit", c.maxUpload))
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, filePath)
	}

	field := augmentedFileField
	if targetUpdate {
		field = targetImageField
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		f.Close()
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	f.Close()
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(http.MethodPatch, "/api/EditAug/"+qrString+"/"+augID, token, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var aug models.Augmentation
	if err := c.send(req, &aug); err != nil {
		return nil, err
	}
	return &aug, nil
}

// QRCodes fetches the download URLs of the project's public and admin QR
// images.
func (c *Client) QRCodes(token, qrString string) (*models.QRCodes, error) {
	req, err := c.newRequest(http.MethodGet, "/api/GetQR/"+qrString, token, nil)
	if err != nil {
		return nil, err
	}
	var codes models.QRCodes
	if err := c.send(req, &codes); err != nil {
		return nil, err
	}
	return &codes, nil
}

// DownloadTo fetches url (unauthenticated) and writes the body into dir
// under a filename derived from the URL. Nothing is written on a non-2xx
// response. Returns the full path of the written file.
func (c *Client) DownloadTo(rawURL, dir string) (string, error) {
	resp, err := c.httpClient.Get(rawURL)
	if err != nil {
		c.log.Error("download never reached the file host",
			zap.String("url", rawURL), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", &ServerFault{URL: rawURL, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		c.log.Error("download failed",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: download returned %d", ErrRejected, resp.StatusCode)
	}

	path := filepath.Join(dir, FilenameFromURL(rawURL))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("write downloaded file: %w", err)
	}
	return path, nil
}
