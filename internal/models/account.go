package models

import (
	"fmt"
	"time"
)

var _ Model = (*Account)(nil)

// Account is the persistent record of a signed-in Spotify user.
//
// Holds the token pair used by the CLI and TUI surfaces. The web surface's
// session authority is the signed cookie, not this row.
type Account struct {
	id             string
	sequence       int
	userID         string
	displayName    string
	accessToken    string
	refreshToken   string
	tokenExpiresAt time.Time
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewAccount creates an Account for the given Spotify user.
func NewAccount(sequence int, userID, displayName string) *Account {
	now := time.Now()
	return &Account{
		sequence:    sequence,
		userID:      userID,
		displayName: displayName,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (a *Account) ID() string                { return a.id }
func (a *Account) Sequence() int             { return a.sequence }
func (a *Account) UserID() string            { return a.userID }
func (a *Account) DisplayName() string       { return a.displayName }
func (a *Account) AccessToken() string       { return a.accessToken }
func (a *Account) RefreshToken() string      { return a.refreshToken }
func (a *Account) TokenExpiresAt() time.Time { return a.tokenExpiresAt }
func (a *Account) CreatedAt() time.Time      { return a.createdAt }
func (a *Account) UpdatedAt() time.Time      { return a.updatedAt }
func (a *Account) DeletedAt() *time.Time     { return a.deletedAt }

func (a *Account) SetID(id string)            { a.id = id }
func (a *Account) SetDisplayName(name string) { a.displayName = name }
func (a *Account) SetUpdatedAt(t time.Time)   { a.updatedAt = t }
func (a *Account) SetDeletedAt(t *time.Time)  { a.deletedAt = t }
func (a *Account) SetCreatedAt(t time.Time)   { a.createdAt = t }
func (a *Account) SetSequence(sequence int)   { a.sequence = sequence }

// SetTokens replaces the stored token pair and its expiry.
func (a *Account) SetTokens(access, refresh string, expiresAt time.Time) {
	a.accessToken = access
	if refresh != "" {
		a.refreshToken = refresh
	}
	a.tokenExpiresAt = expiresAt
}

// ClearTokens nulls the stored credential pair.
func (a *Account) ClearTokens() {
	a.accessToken = ""
	a.refreshToken = ""
	a.tokenExpiresAt = time.Time{}
}

// Validate checks that the account has a user ID.
func (a *Account) Validate() error {
	if a.userID == "" {
		return fmt.Errorf("account user_id is required")
	}
	return nil
}
