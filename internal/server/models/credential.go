package models

import "time"

// Credential is a stored third-party secret owned by exactly one user.
// EncryptedPassword is sealed with the owner and record ids as associated
// data, so a ciphertext cannot be moved between records.
type Credential struct {
	ID                string
	UserID            string
	Title             string
	Username          string
	EncryptedPassword []byte
	URL               string
	Category          string
	Notes             string
	DateCreated       time.Time
	DateModified      time.Time
	ExpirationDate    *time.Time
	IsFavorite        bool
}

// ExpiringSoon reports whether the credential expires within window of now
// and has not expired yet.
func (c *Credential) ExpiringSoon(now time.Time, window time.Duration) bool {
	if c.ExpirationDate == nil {
		return false
	}
	left := c.ExpirationDate.Sub(now)
	return left > 0 && left <= window
}

// CredentialInput carries the client-supplied fields of a new credential.
type CredentialInput struct {
	Title          string
	Username       string
	Password       string
	URL            string
	Category       string
	Notes          string
	ExpirationDate *time.Time
	IsFavorite     bool
}

// CredentialPatch carries a partial update; nil fields are left untouched.
// An empty Username, URL or Notes clears the field, an empty Category resets
// it to the default and a zero ExpirationDate removes the expiration.
type CredentialPatch struct {
	Title          *string
	Username       *string
	Password       *string
	URL            *string
	Category       *string
	Notes          *string
	ExpirationDate *time.Time
	IsFavorite     *bool
}

// CredentialSummary is the list projection: no secret and no notes.
type CredentialSummary struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Username       string     `json:"username"`
	URL            string     `json:"url"`
	Category       string     `json:"category"`
	DateCreated    time.Time  `json:"dateCreated"`
	DateModified   time.Time  `json:"dateModified"`
	ExpirationDate *time.Time `json:"expirationDate"`
	IsFavorite     bool       `json:"isFavorite"`
	IsExpiringSoon bool       `json:"isExpiringSoon"`
}

// CredentialDetails is a full record with the decrypted secret.
type CredentialDetails struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Title          string     `json:"title"`
	Username       string     `json:"username"`
	Password       string     `json:"password"`
	URL            string     `json:"url"`
	Category       string     `json:"category"`
	Notes          string     `json:"notes"`
	DateCreated    time.Time  `json:"dateCreated"`
	DateModified   time.Time  `json:"dateModified"`
	ExpirationDate *time.Time `json:"expirationDate"`
	IsFavorite     bool       `json:"isFavorite"`
}

func (c *Credential) Summary(now time.Time, window time.Duration) CredentialSummary {
	return CredentialSummary{
		ID:             c.ID,
		Title:          c.Title,
		Username:       c.Username,
		URL:            c.URL,
		Category:       c.Category,
		DateCreated:    c.DateCreated,
		DateModified:   c.DateModified,
		ExpirationDate: c.ExpirationDate,
		IsFavorite:     c.IsFavorite,
		IsExpiringSoon: c.ExpiringSoon(now, window),
	}
}

// Details builds the client view of c with the already decrypted password.
func (c *Credential) Details(password string) CredentialDetails {
	return CredentialDetails{
		ID:             c.ID,
		UserID:         c.UserID,
		Title:          c.Title,
		Username:       c.Username,
		Password:       password,
		URL:            c.URL,
		Category:       c.Category,
		Notes:          c.Notes,
		DateCreated:    c.DateCreated,
		DateModified:   c.DateModified,
		ExpirationDate: c.ExpirationDate,
		IsFavorite:     c.IsFavorite,
	}
}
