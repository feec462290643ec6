package model

import "time"

// FundInput is everything the strategy engine needs to evaluate one fund.
// Gsz and Dwjz are nil when the upstream quote omitted them.
type FundInput struct {
	Code               string       `json:"code" validate:"required,len=6,numeric"`
	Name               string       `json:"name"`
	TypeName           string       `json:"type_name"`
	Benchmark          string       `json:"benchmark"`
	History            []PricePoint `json:"history" validate:"dive"`
	Gsz                *float64     `json:"gsz"`
	Dwjz               *float64     `json:"dwjz"`
	AsOf               time.Time    `json:"as_of"`
	Live               bool         `json:"live"`
	PublishedChangePct *float64     `json:"published_change_pct,omitempty"`
	IndexSecid         string       `json:"index_secid,omitempty"`
	IndexHistory       []IndexPoint `json:"index_history,omitempty"`
	ManagerCommitment  string       `json:"manager_commitment,omitempty" validate:"omitempty,oneof=高 中 低"`
}

// FundType is the result of keyword classification.
type FundType struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// WatchlistState is the persisted list of funds evaluated by the daily batch.
type WatchlistState struct {
	Codes     []string  `json:"codes"`
	UpdatedAt time.Time `json:"updated_at"`
}
