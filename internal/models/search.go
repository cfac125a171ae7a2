// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package models

// SearchRequest is the inbound search call handed to the orchestrator.
// Either Coordinates or Location must be set; when only the free-text
// Location is present the handler geocodes it first.
type SearchRequest struct {
	// Occasion describes what the caller is looking for ("birthday dinner",
	// "team offsite"). Used to derive queries when none are given.
	Occasion string `json:"occasion" validate:"required,max=200"`

	// Location is a free-text location string ("Brooklyn, NY").
	Location string `json:"location,omitempty" validate:"max=200"`

	// Coordinates, when present, skip the geocoding step.
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// Queries are the provider search terms. Derived from Occasion when empty.
	Queries []string `json:"queries,omitempty" validate:"max=8,dive,max=100"`

	// RadiusMeters bounds the search area. Default 2000, capped at 50000.
	RadiusMeters int `json:"radius_meters,omitempty" validate:"min=0,max=50000"`
}

// SearchResult is the outcome of one orchestration pass. An empty Venues
// slice is a normal, displayable outcome, not a fault.
type SearchResult struct {
	Venues      []VenueCandidate `json:"venues"`
	UsedQueries []string         `json:"used_queries"`
}
