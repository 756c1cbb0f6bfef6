package main

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type PexelsPhoto struct {
	Id           int            `json:"id"`
	Alt          string         `json:"alt"`
	Photographer string         `json:"photographer"`
	Src          PexelsPhotoSrc `json:"src"`
}

type PexelsPhotoSrc struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type PexelsSearchResult struct {
	Photos *[]PexelsPhoto `json:"photos"`
}

type PexelsApi struct {
	apiClient
	apiKey  string
	baseUrl string
}

func NewPexelsApi(cfg *Config, client *http.Client) PexelsApi {
	base := cfg.Pexels.BaseUrl
	if base == "" {
		base = "https://api.pexels.com/v1/"
	}
	return PexelsApi{
		apiClient: newApiClient("pexels", client),
		apiKey:    cfg.Pexels.Key,
		baseUrl:   base,
	}
}

func (api *PexelsApi) Type() string {
	return "pexels"
}

func (api *PexelsApi) Search(ctx context.Context, query string) SearchResult {
	qParam := url.Values{}
	qParam.Add("query", query)
	searchUrl, serr := buildUrl(api.baseUrl, "search", qParam)
	if serr != nil {
		return failed(serr)
	}
	header := http.Header{}
	header.Set("Authorization", api.apiKey)

	data := PexelsSearchResult{}
	if serr := api.getJSON(ctx, searchUrl, header, &data); serr != nil {
		return failed(serr)
	}
	if data.Photos == nil {
		return failed(missingField(api.log, "photos", -1))
	}
	output := make([]MediaItem, len(*data.Photos))
	for i, el := range *data.Photos {
		output[i].Id = strconv.Itoa(el.Id)
		if el.Alt != "" {
			alt := el.Alt
			output[i].Description = &alt
		}
		output[i].ThumbnailUrl = el.Src.Medium
		output[i].FullImageUrl = el.Src.Large
		output[i].AuthorName = el.Photographer
	}
	return SearchResult{Items: output}
}
