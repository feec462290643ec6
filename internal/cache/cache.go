// Package cache keeps one day's NAV history per fund so repeated runs on the
// same day do not refetch it.
package cache

import (
	"errors"

	"FundSentinel/internal/model"
)

// ErrMiss is returned when no entry exists for the requested day.
var ErrMiss = errors.New("cache miss")

// entry is the stored form of a day's history.
type entry struct {
	Day    string             `json:"date"`
	Points []model.PricePoint `json:"data"`
}
