package main

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
)

const (
	searchHistoryKey    = "searchHistory"
	DefaultHistoryLimit = 5
)

// History is the list of past queries, most recent first. A query already in
// the list keeps its position when searched again; when the list is full the
// oldest entry is dropped.
type History struct {
	mu      sync.Mutex
	store   KVStore
	limit   int
	queries []string
	log     zerolog.Logger
}

func NewHistory(store KVStore, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h := &History{
		store: store,
		limit: limit,
		log:   componentLogger("history"),
	}
	h.queries = h.load()
	return h
}

// load never fails: anything unreadable is an empty history.
func (h *History) load() []string {
	data, ok, err := h.store.GetValue(searchHistoryKey)
	if err != nil {
		h.log.Warn().Err(err).Msg("Unable to read search history")
		return []string{}
	}
	if !ok {
		return []string{}
	}
	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		h.log.Warn().Err(err).Msg("Discarding unreadable search history")
		return []string{}
	}
	if queries == nil {
		return []string{}
	}
	if len(queries) > h.limit {
		queries = queries[:h.limit]
	}
	return queries
}

// Record adds query to the front of the history unless it is already there.
// Eviction is FIFO with no refresh: a repeated query keeps its old position,
// and a full history drops its oldest (last) entry.
// The in-memory list is updated even when persisting it fails.
func (h *History) Record(query string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, q := range h.queries {
		if q == query {
			return nil
		}
	}
	queries := make([]string, 0, len(h.queries)+1)
	queries = append(queries, query)
	queries = append(queries, h.queries...)
	if len(queries) > h.limit {
		queries = queries[:h.limit]
	}
	h.queries = queries

	data, err := json.Marshal(queries)
	if err != nil {
		h.log.Error().Err(err).Msg("Unable to encode search history")
		return err
	}
	if err := h.store.SetValue(searchHistoryKey, data); err != nil {
		h.log.Error().Err(err).Msg("Unable to save search history")
		return err
	}
	return nil
}

func (h *History) All() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.queries))
	copy(out, h.queries)
	return out
}

// Filter keeps the entries containing sub, ignoring case.
func (h *History) Filter(sub string) []string {
	needle := strings.ToLower(sub)
	out := []string{}
	for _, q := range h.All() {
		if strings.Contains(strings.ToLower(q), needle) {
			out = append(out, q)
		}
	}
	return out
}

// FilterFuzzy keeps the entries containing the characters of sub in order,
// ignoring case, so "mtn" suggests "Mountain".
func (h *History) FilterFuzzy(sub string) []string {
	out := fuzzy.FindFold(sub, h.All())
	if out == nil {
		return []string{}
	}
	return out
}
