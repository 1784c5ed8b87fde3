package domain

import "context"

// PageFetcher defines the interface for retrieving raw product page HTML
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// ComplianceClient defines the interface for the external reasoning service
// that produces compliance verdicts. The API key travels per call and must
// never be cached by an implementation.
type ComplianceClient interface {
	RequestVerdict(ctx context.Context, productName, ingredients, apiKey string) (string, error)
}
