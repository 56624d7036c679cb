package models

import (
	"testing"
	"time"
)

func TestUserStatus(t *testing.T) {
	cases := map[UserStatus]string{
		StatusDisabled:  "disabled",
		StatusSuspended: "suspended",
		StatusNormal:    "normal",
		StatusVerified:  "verified",
		StatusProtected: "protected",
		UserStatus(42):  "unknown",
	}

	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestAccessToken(t *testing.T) {
	t.Run("Token Conversion", func(t *testing.T) {
		at := AccessToken{Subject: "margot", Value: "tok-abc", TTL: time.Hour}

		tok := at.Token()
		if tok.AccessToken != "tok-abc" {
			t.Errorf("unexpected access token %s", tok.AccessToken)
		}
		if tok.TokenType != "Bearer" {
			t.Errorf("expected Bearer type, got %s", tok.TokenType)
		}
		if sub, ok := tok.Extra("sub").(string); !ok || sub != "margot" {
			t.Errorf("expected subject in extras, got %v", tok.Extra("sub"))
		}
		if !tok.Valid() {
			t.Error("token within its TTL should be valid")
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		at := AccessToken{Subject: "margot", Value: "tok-abc", TTL: -time.Minute}
		if at.Token().Valid() {
			t.Error("token past its TTL should be invalid")
		}
	})
}

func TestChargeState(t *testing.T) {
	terminal := map[ChargeState]bool{
		ChargePreparing: false,
		ChargePending:   false,
		ChargeCommitted: true,
		ChargeCanceled:  true,
		ChargeFailed:    true,
	}

	for state, want := range terminal {
		if got := state.Terminal(); got != want {
			t.Errorf("Terminal(%s): expected %t, got %t", state, want, got)
		}
	}
}

func TestCachedProfile(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		profile := NewCachedProfile(UserProfile{CanonicalName: "margot"})
		if err := profile.Validate(); err != nil {
			t.Errorf("expected valid profile, got %v", err)
		}

		empty := NewCachedProfile(UserProfile{})
		if err := empty.Validate(); err == nil {
			t.Error("expected validation error for empty canonical name")
		}
	})

	t.Run("Timestamps", func(t *testing.T) {
		profile := NewCachedProfile(UserProfile{CanonicalName: "margot"})
		if profile.CreatedAt().IsZero() || profile.UpdatedAt().IsZero() {
			t.Error("expected timestamps set on creation")
		}

		later := time.Now().Add(time.Hour)
		profile.SetUpdatedAt(later)
		if !profile.UpdatedAt().Equal(later) {
			t.Error("expected updated timestamp to be replaced")
		}
	})
}
