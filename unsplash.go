package main

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const unsplashBaseUrl = "https://api.unsplash.com/"

// Wire types use pointers so a missing required field can be told apart from
// an empty one.
type UnsplashPhoto struct {
	Id          *string       `json:"id"`
	Description *string       `json:"description"`
	User        *UnsplashUser `json:"user"`
	Urls        *UnsplashUrls `json:"urls"`
}

type UnsplashUser struct {
	Name *string `json:"name"`
}

type UnsplashUrls struct {
	Small   *string `json:"small"`
	Regular *string `json:"regular"`
}

type UnsplashSearchResult struct {
	Results *[]UnsplashPhoto `json:"results"`
}

type UnsplashApi struct {
	apiClient
	accessKey string
	baseUrl   string
}

func NewUnsplashApi(cfg *Config, client *http.Client) UnsplashApi {
	base := cfg.Unsplash.BaseUrl
	if base == "" {
		base = unsplashBaseUrl
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return UnsplashApi{
		apiClient: newApiClient("unsplash", client),
		accessKey: cfg.Unsplash.AccessKey,
		baseUrl:   base,
	}
}

func (unsp *UnsplashApi) Type() string {
	return "unsplash"
}

func (unsp *UnsplashApi) Search(ctx context.Context, query string) SearchResult {
	searchId := uuid.NewString()
	qParam := url.Values{}
	qParam.Add("query", query)
	qParam.Add("client_id", unsp.accessKey)
	searchUrl, serr := buildUrl(unsp.baseUrl, "search/photos", qParam)
	if serr != nil {
		unsp.log.Error().Str("search", searchId).Err(serr).Msg("Failed to build search url")
		return failed(serr)
	}
	header := http.Header{}
	header.Set("Accept-Version", "v1")

	unsp.log.Debug().Str("search", searchId).Str("query", query).Msg("Searching")
	data := UnsplashSearchResult{}
	if serr := unsp.getJSON(ctx, searchUrl, header, &data); serr != nil {
		return failed(serr)
	}
	if data.Results == nil {
		return failed(missingField(unsp.log, "results", -1))
	}

	output := make([]MediaItem, len(*data.Results))
	for i, el := range *data.Results {
		switch {
		case el.Id == nil:
			return failed(missingField(unsp.log, "id", i))
		case el.Urls == nil || el.Urls.Small == nil:
			return failed(missingField(unsp.log, "urls.small", i))
		case el.Urls.Regular == nil:
			return failed(missingField(unsp.log, "urls.regular", i))
		case el.User == nil || el.User.Name == nil:
			return failed(missingField(unsp.log, "user.name", i))
		}
		output[i].Id = *el.Id
		output[i].Description = el.Description
		output[i].ThumbnailUrl = *el.Urls.Small
		output[i].FullImageUrl = *el.Urls.Regular
		output[i].AuthorName = *el.User.Name
	}
	unsp.log.Debug().Str("search", searchId).Int("results", len(output)).Msg("Search complete")
	return SearchResult{Items: output}
}
