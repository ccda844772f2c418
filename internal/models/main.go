// Package models defines the record shapes exchanged with the Schol-AR
// service and persisted verbatim into the local JSON index files.
package models

// Project is one top-level unit of work on the Schol-AR service.
// JSON field names match the remote API exactly; the records are stored
// into projects_info.json in the same shape they arrive in.
type Project struct {
	// Title is the human-chosen project title. Mutable, not filesystem-safe.
	Title string `json:"project_title"`
	// Type is one of the ProjectTypes values.
	Type string `json:"project_type"`
	// DiscURL is an optional link to the project's publication or page.
	DiscURL string `json:"disc_url"`
	// QRString is the server-assigned stable identifier. It doubles as the
	// project's local directory name because it is unique and contains no
	// characters that need escaping.
	QRString string `json:"QRString"`
}

// Augmentation pairs a target image with an uploadable 3D asset inside a
// project.
type Augmentation struct {
	// Title is the human-chosen augmentation title.
	Title string `json:"augmentation_title"`
	// Type of the augmentation. The only supported value is "model".
	Type string `json:"augmentation_type"`
	// InternalID is the server-assigned identifier, used as the local
	// directory name.
	InternalID string `json:"internal_augid"`
	// ModelURL points at the uploaded 3D asset, empty until one exists.
	ModelURL string `json:"augmented_file"`
	// TargetImageURL points at the uploaded target image, empty until one
	// exists.
	TargetImageURL string `json:"target_image"`
	// TrackingScore rates how well the target image tracks. Negative while
	// the server is still processing a freshly uploaded image.
	TrackingScore float64 `json:"targetimage_trackscore"`
}

// QRCodes holds the download URLs for the two QR images the service issues
// per project.
type QRCodes struct {
	// PublicURL is the viewer-facing QR image.
	PublicURL string `json:"QR_Image1"`
	// AdminURL is the editor-facing QR image.
	AdminURL string `json:"AdminQRImage"`
}

// AugmentationTypeModel is the only augmentation type the service accepts.
const AugmentationTypeModel = "model"

// ProjectTypes is the set of project type identifiers accepted by the
// CreateARP endpoint, keyed by their display names.
var ProjectTypes = map[string]string{
	"Scientific Paper":             "paper",
	"Poster or Other Presentation": "poster",
	"Book or Chapter":              "book",
	"Other":                        "other",
}

// ValidProjectType reports whether t is one of the accepted project type
// identifiers.
func ValidProjectType(t string) bool {
	for _, v := range ProjectTypes {
		if v == t {
			return true
		}
	}
	return false
}
