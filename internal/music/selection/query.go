package selection

import (
	"net/url"
	"strings"
)

// Kind is how a user query is handled.
type Kind int

const (
	Search Kind = iota
	Direct
)

func (k Kind) String() string {
	if k == Direct {
		return "direct"
	}
	return "search"
}

// Classify treats a well formed http(s) URL as a direct reference and
// anything else as a search term.
func Classify(input string) Kind {
	input = strings.TrimSpace(input)
	if !isURL(input) {
		return Search
	}
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return Search
	}
	return Direct
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
