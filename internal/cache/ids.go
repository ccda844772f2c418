package cache

// Identity of cached entities is always the server-assigned identifier,
// never the mutable human title. These typed IDs are resolved once through
// the index and then passed around, so path derivation never guesses a path
// for an entity the index does not know about.

// ProjectID identifies one project of one user.
type ProjectID struct {
	// Owner is the username the project belongs to.
	Owner string
	// QRString is the server-assigned stable project identifier; it is also
	// the project's local directory name.
	QRString string
}

// AugmentationID identifies one augmentation inside a project.
type AugmentationID struct {
	// Project the augmentation belongs to.
	Project ProjectID
	// InternalID is the server-assigned augmentation identifier; it is also
	// the augmentation's local directory name.
	InternalID string
}
