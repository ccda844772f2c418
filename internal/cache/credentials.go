package cache

// CredentialCache is a single-slot (username, token) cache that saves
// re-reading the users index for repeated calls by the same user. It is an
// optimization only, never a source of truth: any fetch for a different
// username must bypass it and re-read the index.
type CredentialCache struct {
	username string
	token    string
}

// Set stores the pair, overwriting whatever user was cached before.
func (c *CredentialCache) Set(username, token string) {
	c.username = username
	c.token = token
}

// Get returns the cached token for username. The second return value is
// false when a different (or no) user is cached.
func (c *CredentialCache) Get(username string) (string, bool) {
	if username == "" || c.username != username {
		return "", false
	}
	return c.token, true
}

// Invalidate clears the slot.
func (c *CredentialCache) Invalidate() {
	c.username = ""
	c.token = ""
}
