package main

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type PixabaySearchItem struct {
	Id           int    `json:"id"`
	Tags         string `json:"tags"`
	PreviewUrl   string `json:"previewURL"`
	WebFormatUrl string `json:"webformatURL"`
	User         string `json:"user"`
}

type PixabaySearchResult struct {
	Hits *[]PixabaySearchItem `json:"hits"`
}

type PixabayApi struct {
	apiClient
	apiKey  string
	baseUrl string
}

func NewPixabayApi(cfg *Config, client *http.Client) PixabayApi {
	base := cfg.Pixabay.BaseUrl
	if base == "" {
		base = "https://pixabay.com/"
	}
	return PixabayApi{
		apiClient: newApiClient("pixabay", client),
		apiKey:    cfg.Pixabay.Key,
		baseUrl:   base,
	}
}

func (api *PixabayApi) Type() string {
	return "pixabay"
}

func (api *PixabayApi) Search(ctx context.Context, query string) SearchResult {
	qParam := url.Values{}
	qParam.Add("key", api.apiKey)
	qParam.Add("q", query)
	searchUrl, serr := buildUrl(api.baseUrl, "api/", qParam)
	if serr != nil {
		return failed(serr)
	}

	data := PixabaySearchResult{}
	if serr := api.getJSON(ctx, searchUrl, nil, &data); serr != nil {
		return failed(serr)
	}
	if data.Hits == nil {
		return failed(missingField(api.log, "hits", -1))
	}
	output := make([]MediaItem, len(*data.Hits))
	for i, el := range *data.Hits {
		output[i].Id = strconv.Itoa(el.Id)
		if el.Tags != "" {
			tags := el.Tags
			output[i].Description = &tags
		}
		output[i].ThumbnailUrl = el.PreviewUrl
		output[i].FullImageUrl = el.WebFormatUrl
		output[i].AuthorName = el.User
	}
	return SearchResult{Items: output}
}
