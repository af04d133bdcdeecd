package model

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	BaseCurrency     string  `json:"baseCurrency"`     // Currency all valuations are expressed in
	BenchmarkAssetID *string `json:"benchmarkAssetId"` // Optional benchmark asset; nil when no benchmark is configured
	IsArchived       bool    `json:"isArchived"`
}

// PortfolioFilter for querying portfolios
type PortfolioFilter struct {
	IncludeArchived bool
}

// Asset represents an investable asset referenced by prices and allocations.
// Sector and Region feed the coverage dimension of the data-quality score.
type Asset struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Currency string `json:"currency"` // Currency the asset's prices are quoted in
	Sector   string `json:"sector"`
	Region   string `json:"region"`
}
