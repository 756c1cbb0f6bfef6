package main

import "context"

// MediaItem is one normalized search result. Description is nil when the
// upstream API returned null or omitted it.
type MediaItem struct {
	Id           string  `json:"id"`
	Description  *string `json:"description"`
	ThumbnailUrl string  `json:"thumbnailUrl"`
	FullImageUrl string  `json:"fullImageUrl"`
	AuthorName   string  `json:"authorName"`
}

type MediaSearcher interface {
	Search(ctx context.Context, query string) SearchResult
	Type() string
}

// SearchResult holds either Items or Err, never both.
type SearchResult struct {
	Items []MediaItem
	Err   *SearchError
}

func (r SearchResult) Ok() bool { return r.Err == nil }

func failed(err *SearchError) SearchResult {
	return SearchResult{Err: err, Items: []MediaItem{}}
}
