package usecase

import (
	"context"
	"strings"

	"github.com/exportlens/backend/internal/domain"
)

// ExtractionService handles product page retrieval and label extraction
type ExtractionService struct {
	fetcher domain.PageFetcher
}

// NewExtractionService creates a new extraction service with dependencies
func NewExtractionService(fetcher domain.PageFetcher) *ExtractionService {
	return &ExtractionService{
		fetcher: fetcher,
	}
}

// ExtractFromURL fetches a product page and pulls the product name and
// ingredient declaration out of it.
// Flow: validate -> fetch (relay fallback inside the fetcher) -> extract
func (s *ExtractionService) ExtractFromURL(ctx context.Context, pageURL string) (*domain.ProductData, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, domain.ErrInvalidRequest
	}

	htmlText, err := s.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return ExtractProductData(htmlText, pageURL)
}
