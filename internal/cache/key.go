// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package cache

import (
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"
)

// GenerateKey builds a cache key from an operation name and its normalized
// parameters. Callers are responsible for normalization (lowercased location
// strings, rounded coordinates, radius buckets); this helper only makes the
// result compact and deterministic.
func GenerateKey(op string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to a plain formatted key
		return fmt.Sprintf("%s:%v", op, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", op, hash[:16])
}
