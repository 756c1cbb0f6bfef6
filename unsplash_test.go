package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUnsplash(baseUrl string) UnsplashApi {
	cfg := defaultConfig()
	cfg.Unsplash.AccessKey = "test-key"
	cfg.Unsplash.BaseUrl = baseUrl
	return NewUnsplashApi(&cfg, nil)
}

type requestLog struct {
	mu   sync.Mutex
	urls []*url.URL
}

func (l *requestLog) add(u *url.URL) {
	l.mu.Lock()
	l.urls = append(l.urls, u)
	l.mu.Unlock()
}

func (l *requestLog) all() []*url.URL {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*url.URL(nil), l.urls...)
}

func stubServer(t *testing.T, status int, body string) (*httptest.Server, *requestLog) {
	t.Helper()
	reqs := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs.add(r.URL)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func TestUnsplashSearch(t *testing.T) {
	srv, reqs := stubServer(t, http.StatusOK,
		`{"results":[{"id":"1","description":null,"urls":{"small":"s","regular":"r"},"user":{"name":"Ann"}}]}`)
	api := newTestUnsplash(srv.URL + "/")

	res := api.Search(context.Background(), "cats")
	require.Nil(t, res.Err)
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "1", item.Id)
	assert.Nil(t, item.Description)
	assert.Equal(t, "s", item.ThumbnailUrl)
	assert.Equal(t, "r", item.FullImageUrl)
	assert.Equal(t, "Ann", item.AuthorName)

	urls := reqs.all()
	require.Len(t, urls, 1, "exactly one request per search")
	assert.Equal(t, "/search/photos", urls[0].Path)
	assert.Equal(t, "cats", urls[0].Query().Get("query"))
	assert.Equal(t, "test-key", urls[0].Query().Get("client_id"))
}

func TestUnsplashSearchDescription(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK,
		`{"results":[{"id":"a","description":"Snowy peak","urls":{"small":"s","regular":"r"},"user":{"name":"Bo"}},
		             {"id":"b","urls":{"small":"s2","regular":"r2"},"user":{"name":"Cy"}}]}`)
	api := newTestUnsplash(srv.URL)

	res := api.Search(context.Background(), "mountain")
	require.True(t, res.Ok())
	require.Len(t, res.Items, 2)
	require.NotNil(t, res.Items[0].Description)
	assert.Equal(t, "Snowy peak", *res.Items[0].Description)
	assert.Nil(t, res.Items[1].Description)
}

func TestUnsplashEmptyResults(t *testing.T) {
	srv, _ := stubServer(t, http.StatusOK, `{"results":[]}`)
	api := newTestUnsplash(srv.URL)

	res := api.Search(context.Background(), "   ")
	require.Nil(t, res.Err)
	assert.Empty(t, res.Items)
}

func TestUnsplashFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
		target error
	}{
		{"server error", http.StatusInternalServerError, `oops`, TransportFailure, ErrTransportFailure},
		{"unauthorized", http.StatusUnauthorized, `{"errors":["bad key"]}`, TransportFailure, ErrTransportFailure},
		{"empty body", http.StatusOK, ``, EmptyResponse, ErrEmptyResponse},
		{"malformed json", http.StatusOK, `{"results":[`, DecodeFailure, ErrDecodeFailure},
		{"missing results", http.StatusOK, `{}`, DecodeFailure, ErrDecodeFailure},
		{"missing id", http.StatusOK, `{"results":[{"urls":{"small":"s","regular":"r"},"user":{"name":"A"}}]}`, DecodeFailure, ErrDecodeFailure},
		{"missing urls", http.StatusOK, `{"results":[{"id":"1","user":{"name":"A"}}]}`, DecodeFailure, ErrDecodeFailure},
		{"missing author", http.StatusOK, `{"results":[{"id":"1","urls":{"small":"s","regular":"r"},"user":{}}]}`, DecodeFailure, ErrDecodeFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := stubServer(t, tc.status, tc.body)
			api := newTestUnsplash(srv.URL)

			res := api.Search(context.Background(), "x")
			require.NotNil(t, res.Err)
			assert.Equal(t, tc.kind, res.Err.Kind)
			assert.True(t, errors.Is(res.Err, tc.target))
			assert.NotEmpty(t, res.Err.Message)
			assert.Empty(t, res.Items)
		})
	}
}

func TestUnsplashTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	api := newTestUnsplash(base)
	res := api.Search(context.Background(), "x")
	require.NotNil(t, res.Err)
	assert.Equal(t, TransportFailure, res.Err.Kind)
	assert.NotNil(t, errors.Unwrap(res.Err))
}

func TestUnsplashInvalidBaseUrl(t *testing.T) {
	api := newTestUnsplash("://not a url")
	res := api.Search(context.Background(), "x")
	require.NotNil(t, res.Err)
	assert.Equal(t, InvalidRequest, res.Err.Kind)
	assert.True(t, errors.Is(res.Err, ErrInvalidRequest))
	assert.False(t, errors.Is(res.Err, ErrTransportFailure))
}
