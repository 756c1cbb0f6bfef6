package main

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CachedImage is shared between every caller that fetched the same URL and
// must be treated as read-only.
type CachedImage struct {
	Url         string
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Image       image.Image
}

const (
	DefaultMaxImageBytes int64 = 20 << 20
	imageFetchTimeout          = 30 * time.Second
)

// ImageCache maps an image URL to its decoded image. Entries live until the
// process exits; there is no capacity limit, TTL or invalidation.
// Concurrent misses for one URL share a single request.
type ImageCache struct {
	Http *http.Client
	// Bodies larger than MaxBytes are treated as failed fetches.
	MaxBytes int64
	mu       sync.RWMutex
	images   map[string]*CachedImage
	group    singleflight.Group
	log      zerolog.Logger
}

// NewImageCache uses client for downloads. A nil client gets one with a
// timeout, since shared downloads are not bound to any caller's context.
func NewImageCache(client *http.Client) *ImageCache {
	if client == nil {
		client = &http.Client{Timeout: imageFetchTimeout}
	}
	return &ImageCache{
		Http:     client,
		MaxBytes: DefaultMaxImageBytes,
		images:   make(map[string]*CachedImage),
		log:      componentLogger("imagecache"),
	}
}

// Get returns the cached image for imgUrl without touching the network.
func (ic *ImageCache) Get(imgUrl string) (*CachedImage, bool) {
	ic.mu.RLock()
	img, ok := ic.images[imgUrl]
	ic.mu.RUnlock()
	return img, ok
}

func (ic *ImageCache) Len() int {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return len(ic.images)
}

// Fetch returns the image for imgUrl, downloading and decoding it on a miss.
// Any failure yields (nil, false) and leaves the cache untouched.
// The shared download ignores cancellation of whichever caller started it;
// each caller stops waiting when its own ctx is done.
func (ic *ImageCache) Fetch(ctx context.Context, imgUrl string) (*CachedImage, bool) {
	if img, ok := ic.Get(imgUrl); ok {
		return img, true
	}
	dlCtx := context.WithoutCancel(ctx)
	ch := ic.group.DoChan(imgUrl, func() (interface{}, error) {
		if img, ok := ic.Get(imgUrl); ok {
			return img, nil
		}
		img := ic.download(dlCtx, imgUrl)
		if img == nil {
			return nil, nil
		}
		ic.mu.Lock()
		ic.images[imgUrl] = img
		ic.mu.Unlock()
		return img, nil
	})
	select {
	case res := <-ch:
		img, _ := res.Val.(*CachedImage)
		return img, img != nil
	case <-ctx.Done():
		return nil, false
	}
}

// FetchAsync delivers the result of Fetch on the returned channel; nil means
// no image.
func (ic *ImageCache) FetchAsync(ctx context.Context, imgUrl string) <-chan *CachedImage {
	ch := make(chan *CachedImage, 1)
	go func() {
		img, _ := ic.Fetch(ctx, imgUrl)
		ch <- img
		close(ch)
	}()
	return ch
}

func (ic *ImageCache) download(ctx context.Context, imgUrl string) *CachedImage {
	u, err := url.Parse(imgUrl)
	if err != nil || u.Host == "" {
		ic.log.Warn().Str("url", imgUrl).Msg("Invalid image url")
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgUrl, nil)
	if err != nil {
		ic.log.Warn().Err(err).Str("url", imgUrl).Msg("Failed to create http request")
		return nil
	}
	res, err := ic.Http.Do(req)
	if err != nil {
		ic.log.Warn().Err(err).Str("url", imgUrl).Msg("Failed to fetch")
		return nil
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		ic.log.Warn().Int("status", res.StatusCode).Str("url", imgUrl).Msg("Image request failed")
		return nil
	}
	limit := ic.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil || len(data) == 0 {
		ic.log.Warn().Err(err).Str("url", imgUrl).Msg("No image data")
		return nil
	}
	if int64(len(data)) > limit {
		ic.log.Warn().Int64("limit", limit).Str("url", imgUrl).Msg("Image too large")
		return nil
	}
	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		ic.log.Warn().Err(err).Str("url", imgUrl).Msg("Failed to decode image")
		return nil
	}
	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	bounds := decoded.Bounds()
	ic.log.Debug().Str("url", u.Host+u.Path).Int("bytes", len(data)).Msg("MISS")
	return &CachedImage{
		Url:         imgUrl,
		Data:        data,
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Image:       decoded,
	}
}

// Resized encodes img scaled to width (aspect preserved) as JPEG. Widths
// beyond the source are clamped; images are never scaled up.
func Resized(img *CachedImage, width int) ([]byte, error) {
	if width > img.Width {
		width = img.Width
	}
	thumb := imaging.Resize(img.Image, width, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
