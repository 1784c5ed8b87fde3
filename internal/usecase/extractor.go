package usecase

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/exportlens/backend/internal/domain"
)

// UnknownProductName is substituted when every product name heuristic comes
// up empty. Name extraction never blocks the pipeline; the ingredient
// declaration is the only mandatory field.
const UnknownProductName = "商品名不明"

// ingredientLabelPatterns anchor on the label text that Japanese food pages
// put in front of the declaration. Tried in order against the linearized
// page text; the first non-empty capture wins. The value runs to the end of
// the line, so label and value must share a text run for these to hit.
var ingredientLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)原材料名\s*[:：]\s*(.+)$`),
	regexp.MustCompile(`(?m)原材料\s*[:：]\s*(.+)$`),
	regexp.MustCompile(`(?mi)ingredients?\s*[:：]\s*(.+)$`),
}

// Class and id substrings identifying a product name element, ordered from
// product-specific markup to the generic item/goods naming used by Japanese
// e-commerce templates.
var (
	productNameClassTokens = []string{
		"product-name", "product_name", "productname",
		"product-title", "product_title", "producttitle",
	}
	genericNameClassTokens = []string{
		"item-name", "item_name", "itemname",
		"goods-name", "goods_name", "goodsname",
	}
)

// ExtractProductData locates the product name and the ingredient declaration
// in raw product page HTML. A page without a recognizable declaration is a
// hard failure; a page without a recognizable name falls back to
// UnknownProductName.
func ExtractProductData(htmlText, sourceURL string) (*domain.ProductData, error) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable page: %v", domain.ErrIngredientsNotFound, err)
	}

	ingredients := extractIngredients(doc)
	if ingredients == "" {
		log.Printf("[EXTRACT] No ingredient declaration found on %q", sourceURL)
		return nil, domain.ErrIngredientsNotFound
	}

	name := extractProductName(doc)
	log.Printf("[EXTRACT] Product: %q | Ingredients: %d chars", name, len(ingredients))

	return &domain.ProductData{
		ProductName: name,
		Ingredients: ingredients,
		SourceURL:   sourceURL,
	}, nil
}

// extractProductName tries each name source in order and returns the first
// one carrying visible text: h1, product-name markup, generic item/goods
// markup, then the document title.
func extractProductName(doc *html.Node) string {
	if name := firstText(doc, isElement("h1")); name != "" {
		return name
	}
	if name := firstText(doc, hasClassToken(productNameClassTokens)); name != "" {
		return name
	}
	if name := firstText(doc, hasClassToken(genericNameClassTokens)); name != "" {
		return name
	}
	if name := firstText(doc, isElement("title")); name != "" {
		return name
	}
	return UnknownProductName
}

// extractIngredients resolves the declaration in two passes: label-anchored
// patterns over the page's visible text, then a structural scan of table
// rows and definition lists for pages that keep label and value in separate
// cells.
func extractIngredients(doc *html.Node) string {
	text := visibleText(doc)
	for _, re := range ingredientLabelPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if value := collapseSpace(m[1]); value != "" {
				return value
			}
		}
	}
	return ingredientsFromRows(doc)
}

// ingredientsFromRows walks the document looking for a table row or
// definition list whose label cell names the ingredient declaration, and
// returns the paired value cell.
func ingredientsFromRows(doc *html.Node) string {
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "tr":
				if v := ingredientFromCells(cellTexts(n, "th", "td")); v != "" {
					found = v
					return true
				}
			case "dl":
				if v := ingredientFromCells(cellTexts(n, "dt", "dd")); v != "" {
					found = v
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return found
}

// ingredientFromCells finds the cell carrying the ingredient label and
// returns the first non-empty cell after it. Rows that pack label and value
// into a single cell yield the text remaining after the label token.
func ingredientFromCells(cells []string) string {
	for i, cell := range cells {
		at, token := findLabelToken(cell)
		if at < 0 {
			continue
		}
		for _, next := range cells[i+1:] {
			if v := collapseSpace(next); v != "" {
				return v
			}
		}
		rest := strings.TrimLeft(cell[at+len(token):], " \t:：　")
		if v := collapseSpace(rest); v != "" {
			return v
		}
	}
	return ""
}

// findLabelToken reports the byte offset and matched form of the first
// ingredient label token in the cell, or -1 when the cell is not a label.
func findLabelToken(cell string) (int, string) {
	for _, token := range []string{"原材料名", "原材料"} {
		if i := strings.Index(cell, token); i >= 0 {
			return i, token
		}
	}
	lower := strings.ToLower(cell)
	for _, token := range []string{"ingredients", "ingredient"} {
		if i := strings.Index(lower, token); i >= 0 {
			return i, token
		}
	}
	return -1, ""
}

// blockTags force a line boundary when linearizing visible text, so the
// label patterns can anchor on line starts and stop at line ends.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "aside": true, "ul": true, "ol": true,
	"li": true, "dl": true, "dt": true, "dd": true, "table": true,
	"thead": true, "tbody": true, "tfoot": true, "tr": true, "td": true,
	"th": true, "caption": true, "form": true, "fieldset": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// skippedTags never contribute visible text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "head": true,
}

// inlineSpace maps source-level line breaks inside text nodes to spaces,
// the way a browser renders them. Line boundaries in the linearized text
// come only from block elements and <br>.
var inlineSpace = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// visibleText linearizes the rendered text of the document, one line per
// block element, dropping script and style content.
func visibleText(doc *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(inlineSpace.Replace(n.Data))
			return
		case html.ElementNode:
			if skippedTags[n.Data] {
				return
			}
			if n.Data == "br" {
				b.WriteByte('\n')
				return
			}
			if blockTags[n.Data] {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(doc)
	return b.String()
}

// firstText returns the collapsed text of the first matching element that
// has any, searching in document order.
func firstText(doc *html.Node, match func(*html.Node) bool) string {
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			if text := collapseSpace(nodeText(n)); text != "" {
				found = text
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return found
}

func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

// hasClassToken matches elements whose class or id contains any of the
// given substrings, case-insensitively.
func hasClassToken(tokens []string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, attr := range n.Attr {
			if attr.Key != "class" && attr.Key != "id" {
				continue
			}
			val := strings.ToLower(attr.Val)
			for _, token := range tokens {
				if strings.Contains(val, token) {
					return true
				}
			}
		}
		return false
	}
}

// cellTexts returns the text of each label/value element directly inside a
// row, in document order. Nested rows are not descended into.
func cellTexts(row *html.Node, tags ...string) []string {
	var cells []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, tag := range tags {
				if n.Data == tag {
					cells = append(cells, nodeText(n))
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return cells
}

// nodeText concatenates every text node under n, skipping script and style
// subtrees.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skippedTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

var spaceRun = regexp.MustCompile(`[\s　]+`)

// collapseSpace folds whitespace runs, full-width spaces included, into
// single spaces and trims the ends.
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
