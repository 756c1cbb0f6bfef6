package main

import (
	"context"

	"github.com/rs/zerolog"
)

// Observer receives the state changes of a SearchSession. Nil funcs are
// skipped. Callers that must mutate state on a single goroutine should
// forward from these funcs onto their own channel.
type Observer struct {
	OnLoadingChanged func(loading bool)
	OnResults        func(items []MediaItem)
	OnError          func(message string)
}

// SearchSession ties a searcher to the search history and the image cache.
type SearchSession struct {
	searcher MediaSearcher
	history  *History
	images   *ImageCache
	observer Observer
	log      zerolog.Logger
}

func NewSearchSession(searcher MediaSearcher, history *History, images *ImageCache, observer Observer) *SearchSession {
	return &SearchSession{
		searcher: searcher,
		history:  history,
		images:   images,
		observer: observer,
		log:      componentLogger("session"),
	}
}

func (s *SearchSession) History() *History { return s.history }

// Search records query in the history before anything else, so failed
// searches are remembered too. Loading false is emitted once the result is
// known and before it is delivered.
func (s *SearchSession) Search(ctx context.Context, query string) SearchResult {
	if err := s.history.Record(query); err != nil {
		s.log.Warn().Err(err).Msg("Search history not saved")
	}
	s.loading(true)
	res := s.searcher.Search(ctx, query)
	s.loading(false)

	if res.Err != nil {
		s.log.Info().Str("provider", s.searcher.Type()).Str("kind", res.Err.Kind.String()).Msg("Search failed")
		if s.observer.OnError != nil {
			s.observer.OnError(res.Err.Message)
		}
		return res
	}
	if s.observer.OnResults != nil {
		s.observer.OnResults(res.Items)
	}
	return res
}

// SearchAsync runs Search on its own goroutine.
func (s *SearchSession) SearchAsync(ctx context.Context, query string) <-chan SearchResult {
	ch := make(chan SearchResult, 1)
	go func() {
		ch <- s.Search(ctx, query)
		close(ch)
	}()
	return ch
}

func (s *SearchSession) loading(v bool) {
	if s.observer.OnLoadingChanged != nil {
		s.observer.OnLoadingChanged(v)
	}
}

func (s *SearchSession) LoadThumbnail(ctx context.Context, item MediaItem) (*CachedImage, bool) {
	return s.images.Fetch(ctx, item.ThumbnailUrl)
}

func (s *SearchSession) LoadFullImage(ctx context.Context, item MediaItem) (*CachedImage, bool) {
	return s.images.Fetch(ctx, item.FullImageUrl)
}
