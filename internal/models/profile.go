package models

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// UserStatus enumerates the moderation states a platform account can be in.
type UserStatus int

const (
	StatusDisabled  UserStatus = -2
	StatusSuspended UserStatus = -1
	StatusNormal    UserStatus = 0
	StatusVerified  UserStatus = 1
	StatusProtected UserStatus = 2
)

func (s UserStatus) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusSuspended:
		return "suspended"
	case StatusNormal:
		return "normal"
	case StatusVerified:
		return "verified"
	case StatusProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// UserProfile is the identity endpoint's view of an account.
//
// Profiles are replaced wholesale on every session refresh and never
// partially mutated.
type UserProfile struct {
	CanonicalName string     `json:"user_name" cbor:"user_name"`
	DisplayName   string     `json:"display_name" cbor:"display_name"`
	Locale        string     `json:"language" cbor:"language"`
	PictureURL    string     `json:"avatar" cbor:"avatar"`
	Status        UserStatus `json:"status" cbor:"status"`
	Theme         string     `json:"theme,omitempty" cbor:"theme,omitempty"`
}

// AccessToken is a short-lived bearer credential for the platform API.
// Each refresh fully replaces the prior value.
type AccessToken struct {
	Subject string        // account the token was minted for
	Value   string        // opaque bearer string
	TTL     time.Duration // server-declared lifetime
}

// Token converts the access token into an [oauth2.Token] for use with
// oauth2 transports. The subject travels in the token's extra fields.
func (t AccessToken) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(t.TTL),
	}
	return tok.WithExtra(map[string]any{"sub": t.Subject})
}

// CachedProfile is the persistent entity backing the offline profile cache.
// Implements [Model].
type CachedProfile struct {
	id        string
	Profile   UserProfile
	createdAt time.Time
	updatedAt time.Time
}

// NewCachedProfile wraps a profile snapshot for persistence.
func NewCachedProfile(profile UserProfile) *CachedProfile {
	now := time.Now()
	return &CachedProfile{Profile: profile, createdAt: now, updatedAt: now}
}

func (c *CachedProfile) ID() string           { return c.id }
func (c *CachedProfile) CreatedAt() time.Time { return c.createdAt }
func (c *CachedProfile) UpdatedAt() time.Time { return c.updatedAt }

func (c *CachedProfile) SetID(id string)          { c.id = id }
func (c *CachedProfile) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *CachedProfile) SetUpdatedAt(t time.Time) { c.updatedAt = t }

// Validate checks that the cached snapshot identifies an account.
func (c *CachedProfile) Validate() error {
	if c.Profile.CanonicalName == "" {
		return fmt.Errorf("profile is missing a canonical name")
	}
	return nil
}
