package fetch

import "net/url"

// strategy is one way of reaching a product page. Relay strategies hand the
// page URL to a public proxy that fetches it server-side, which gets around
// shops refusing requests from unfamiliar network locations.
type strategy struct {
	name  string
	build func(pageURL string) string
}

// defaultStrategies returns the attempt order: the direct request first,
// then the relays. The first strategy yielding a non-empty page wins, so
// ordering is part of the behavior.
func defaultStrategies() []strategy {
	return []strategy{
		{
			name:  "direct",
			build: func(pageURL string) string { return pageURL },
		},
		{
			name: "allorigins",
			build: func(pageURL string) string {
				return "https://api.allorigins.win/raw?url=" + url.QueryEscape(pageURL)
			},
		},
		{
			name: "corsproxy",
			build: func(pageURL string) string {
				return "https://corsproxy.io/?url=" + url.QueryEscape(pageURL)
			},
		},
		{
			name: "codetabs",
			build: func(pageURL string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(pageURL)
			},
		},
	}
}
