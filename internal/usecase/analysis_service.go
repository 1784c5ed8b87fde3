package usecase

import (
	"context"
	"strings"

	"github.com/exportlens/backend/internal/domain"
)

// AnalysisService handles compliance verdict requests and reply parsing
type AnalysisService struct {
	client domain.ComplianceClient
}

// NewAnalysisService creates a new analysis service with dependencies
func NewAnalysisService(client domain.ComplianceClient) *AnalysisService {
	return &AnalysisService{
		client: client,
	}
}

// AnalyzeProduct requests an export compliance verdict for the product's
// ingredient declaration and parses the reply into a typed result. The
// ingredient text is taken as sent, so callers may forward a human-edited
// declaration rather than the extracted one.
// Flow: validate -> request verdict (retries inside the client) -> parse
func (s *AnalysisService) AnalyzeProduct(ctx context.Context, request *domain.AnalyzeRequest) (*domain.AnalysisResult, error) {
	if request == nil || strings.TrimSpace(request.ProductName) == "" || strings.TrimSpace(request.Ingredients) == "" {
		return nil, domain.ErrInvalidRequest
	}

	raw, err := s.client.RequestVerdict(ctx, request.ProductName, request.Ingredients, request.APIKey)
	if err != nil {
		return nil, err
	}

	return ParseVerdict(raw)
}
