package scholar

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Usernames and titles become part of log lines and remote payloads, so they
// are restricted to letters, digits and spaces before any network or disk
// I/O happens.
var displayNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// validDisplayName validates a username, project title or augmentation
// title.
func validDisplayName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("cannot be empty"),
		validation.Match(displayNamePattern).Error("may only contain letters, numbers, and spaces"),
	)
}
