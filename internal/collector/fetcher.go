package collector

import (
	"context"
	"errors"

	"FundSentinel/internal/model"
)

// ErrNoData is returned when an endpoint answers but carries nothing usable.
var ErrNoData = errors.New("no data")

// Estimate is the intraday quote of one fund. Nil prices were absent upstream.
type Estimate struct {
	Code      string
	Name      string
	Gsz       *float64
	Dwjz      *float64
	ChangePct *float64
	NavDate   string // date of Dwjz
	Time      string // "2006-01-02 15:04" in exchange time
}

// Profile is the subset of the fund profile page the engine uses.
type Profile struct {
	Type        string
	Benchmark   string
	Established string
}

// Fetcher defines the interface for fetching fund data.
type Fetcher interface {
	FetchEstimate(ctx context.Context, code string) (*Estimate, error)
	// FetchHistory returns one page of published NAVs, oldest first.
	FetchHistory(ctx context.Context, code string, page, per int) ([]model.PricePoint, error)
	FetchProfile(ctx context.Context, code string) (*Profile, error)
	FetchIndexHistory(ctx context.Context, secid string, days int) ([]model.IndexPoint, error)
	Name() string
}
