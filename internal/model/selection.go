package model

import "fmt"

// VideoIDLength is the fixed length of a video identifier
const VideoIDLength = 11

// WatchURLTemplate builds the canonical watch URL for an identifier
const WatchURLTemplate = "https://www.youtube.com/watch?v=%s"

// SearchResult is the ordered list of identifiers extracted from one results page.
// Duplicates are kept in the order they appear in the markup.
type SearchResult struct {
	Query string
	IDs   []string
}

// Distinct returns the unique identifiers in first-seen order
func (r SearchResult) Distinct() []string {
	seen := make(map[string]struct{}, len(r.IDs))
	out := make([]string, 0, len(r.IDs))
	for _, id := range r.IDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// VideoSelection is the set of identifiers picked for a run, without repeats
type VideoSelection struct {
	IDs []string
}

// URLs returns the watch URL of every selected identifier, preserving order
func (s VideoSelection) URLs() []string {
	urls := make([]string, len(s.IDs))
	for i, id := range s.IDs {
		urls[i] = WatchURL(id)
	}
	return urls
}

// WatchURL returns the watch page URL for a video identifier
func WatchURL(id string) string {
	return fmt.Sprintf(WatchURLTemplate, id)
}
