// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package models defines the data types shared across VenueScout components.
package models

import (
	"fmt"
	"strings"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodedLocation is the result of resolving a free-text location string.
type GeocodedLocation struct {
	Coordinates Coordinates `json:"coordinates"`
	DisplayName string      `json:"display_name"`
	Provider    string      `json:"provider"`
}

// VenueCandidate is a place returned by a search provider. Candidates are
// owned transiently by the orchestrator during a single pass; the final list
// is handed to the caller and not retained.
type VenueCandidate struct {
	// Identity is the stable provider-scoped id ("<provider>:<native id>").
	// The orchestrator merges candidates from all queries by this key.
	Identity string `json:"identity"`

	Name     string      `json:"name"`
	Address  string      `json:"address,omitempty"`
	Location Coordinates `json:"location"`

	// Quality signals. Zero values mean the provider did not report them.
	Rating      float64 `json:"rating,omitempty"`
	RatingCount int     `json:"rating_count,omitempty"`
	PhotoURL    string  `json:"photo_url,omitempty"`

	Categories []string `json:"categories,omitempty"`
	PriceLevel int      `json:"price_level,omitempty"`

	// Provider names the adapter that produced the candidate.
	Provider string `json:"provider"`

	// Description is filled by the enrichment adapter when available.
	Description string `json:"description,omitempty"`

	// RankReason is filled by the inference adapter when ranking succeeds.
	RankReason string `json:"rank_reason,omitempty"`
}

// HasQualitySignal reports whether the candidate carries at least one
// positive quality indicator: a rating, a photo, or at least one review.
func (v *VenueCandidate) HasQualitySignal() bool {
	return v.Rating > 0 || v.PhotoURL != "" || v.RatingCount > 0
}

// CompositeKey builds a provider-independent identity from rounded
// coordinates and the normalized name. Two providers describing the same
// physical place collapse onto one key; anything that does not match exactly
// stays a distinct candidate rather than being semantically merged.
func (v *VenueCandidate) CompositeKey() string {
	return fmt.Sprintf("geo:%.4f,%.4f:%s", v.Location.Lat, v.Location.Lng, NormalizeName(v.Name))
}

// NormalizeName lowercases a venue name and collapses interior whitespace so
// trivially different spellings compare equal.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
