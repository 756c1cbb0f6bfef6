package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// apiClient is the request/decode path shared by every provider.
type apiClient struct {
	Http *http.Client
	log  zerolog.Logger
}

func newApiClient(name string, client *http.Client) apiClient {
	if client == nil {
		client = http.DefaultClient
	}
	return apiClient{Http: client, log: componentLogger(name)}
}

func buildUrl(base string, path string, qParam url.Values) (string, *SearchError) {
	u, err := url.Parse(base + path)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("missing scheme or host in %q", base+path)
		}
		return "", newSearchError(InvalidRequest, "Invalid search URL", err)
	}
	u.RawQuery = qParam.Encode()
	return u.String(), nil
}

func (c *apiClient) getJSON(ctx context.Context, rawUrl string, header http.Header, dest any) *SearchError {
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to create http request")
		return newSearchError(InvalidRequest, "Invalid search URL", err)
	}
	for k, v := range header {
		getReq.Header[k] = v
	}
	res, err := c.Http.Do(getReq)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to fetch")
		return newSearchError(TransportFailure, "Unable to reach the search service", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = fmt.Errorf("unexpected status %s", res.Status)
		c.log.Error().Int("status", res.StatusCode).Msg("Upstream returned an error status")
		return newSearchError(TransportFailure,
			fmt.Sprintf("The search service responded with %s", strings.TrimSpace(res.Status)), err)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to read response body")
		return newSearchError(TransportFailure, "The connection was interrupted", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.log.Error().Msg("Empty response body")
		return newSearchError(EmptyResponse, "No data received from the search service", nil)
	}
	if err = json.Unmarshal(body, dest); err != nil {
		c.log.Error().Err(err).Msg("Failed to decode response")
		return newSearchError(DecodeFailure, "The search results could not be read", err)
	}
	return nil
}

// missingField reports a required upstream field as a decode failure.
func missingField(log zerolog.Logger, name string, idx int) *SearchError {
	err := fmt.Errorf("result %d: missing required field %q", idx, name)
	log.Error().Err(err).Msg("Failed to decode response")
	return newSearchError(DecodeFailure, "The search results could not be read", err)
}

func NewSearcher(cfg *Config, client *http.Client) (MediaSearcher, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "unsplash":
		if cfg.Unsplash.AccessKey == "" {
			return nil, fmt.Errorf("unsplash access key is not configured")
		}
		api := NewUnsplashApi(cfg, client)
		return &api, nil
	case "pexels":
		if cfg.Pexels.Key == "" {
			return nil, fmt.Errorf("pexels key is not configured")
		}
		api := NewPexelsApi(cfg, client)
		return &api, nil
	case "pixabay":
		if cfg.Pixabay.Key == "" {
			return nil, fmt.Errorf("pixabay key is not configured")
		}
		api := NewPixabayApi(cfg, client)
		return &api, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
