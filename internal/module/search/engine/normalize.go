package engine

import (
	"fmt"
	"os"
	"strings"
)

// rawItem is the intermediate shape engines decode into before
// normalization. Fields left empty are treated as absent.
type rawItem struct {
	title   string
	url     string
	content string
	snippet string
	score   *float64
}

// normalizeItems maps backend entries onto the common Result shape.
// Entries without a URL are skipped rather than aborting the response.
// Title falls back to the URL; the content field wins over snippet.
func normalizeItems(id ID, items []rawItem) []Result {
	results := make([]Result, 0, len(items))
	for _, it := range items {
		if it.url == "" {
			continue
		}

		title := it.title
		if title == "" {
			title = it.url
		}

		snippet := it.content
		if snippet == "" {
			snippet = it.snippet
		}

		results = append(results, Result{
			Title:        title,
			URL:          it.url,
			Snippet:      snippet,
			Score:        it.score,
			SourceEngine: id,
		})
	}
	return results
}

// credential resolves the engine credential at call time.
func credential(envName string) (string, error) {
	value := strings.TrimSpace(os.Getenv(envName))
	if value == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrMissingCredential, envName)
	}
	return value, nil
}
