// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the scrape, ingest
// and ledger stages and the configuration they read.
package types

// FundingTypeUnknown is reported for every call until sources expose it.
const FundingTypeUnknown = "Unknown"

// Call is one classified funding opportunity in the flat shape the ingest
// backend accepts.
type Call struct {
	Title       string `json:"title" yaml:"title"`
	HostCountry string `json:"host_country" yaml:"host_country"`
	Field       string `json:"field" yaml:"field"`
	Theme       string `json:"theme" yaml:"theme"`
	DegreeLevel string `json:"degree_level" yaml:"degree_level"`
	FundingType string `json:"funding_type" yaml:"funding_type"`

	// Deadline is an ISO date (YYYY-MM-DD).
	Deadline string `json:"deadline" yaml:"deadline"`

	// SourceURL is the listing's link; the ledger keys deliveries on it.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// SDGTags is a comma-joined list of SDG codes, e.g. "SDG4,SDG13".
	SDGTags string `json:"sdg_tags" yaml:"sdg_tags"`

	// SourceName identifies the site the listing came from.
	SourceName string `json:"source_name" yaml:"source_name"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// DeliveryStatus records the outcome of sending a call to the backend.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)
