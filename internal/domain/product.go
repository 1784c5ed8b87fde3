package domain

// ProductData represents the ingredient declaration extracted from a
// Japanese food-label product page
type ProductData struct {
	ProductName string `json:"productName"`
	Ingredients string `json:"ingredients"` // single free-text field in Japanese labeling convention
	SourceURL   string `json:"sourceUrl"`
}

// ExtractRequest represents a product page extraction request
type ExtractRequest struct {
	URL string `json:"url" binding:"required"`
}

// SplitRequest represents a request to split an ingredient declaration
// into raw materials and additives
type SplitRequest struct {
	Ingredients string `json:"ingredients" binding:"required"`
}
