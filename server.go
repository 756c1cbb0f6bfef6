package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg     *Config
	session *SearchSession
	images  *ImageCache
	users   *Store
	log     zerolog.Logger

	// /image only proxies hosts from config or from search results.
	hostsMu    sync.RWMutex
	imageHosts map[string]bool
}

// NewServer builds the HTTP front end. users may be nil when authentication
// is not required.
func NewServer(cfg *Config, session *SearchSession, images *ImageCache, users *Store) *Server {
	srv := &Server{
		cfg:        cfg,
		session:    session,
		images:     images,
		users:      users,
		log:        componentLogger("server"),
		imageHosts: make(map[string]bool),
	}
	for _, host := range cfg.ImageHosts {
		srv.imageHosts[strings.ToLower(host)] = true
	}
	return srv
}

func (s *Server) allowImageHosts(items []MediaItem) {
	s.hostsMu.Lock()
	defer s.hostsMu.Unlock()
	for _, item := range items {
		for _, raw := range []string{item.ThumbnailUrl, item.FullImageUrl} {
			if u, err := url.Parse(raw); err == nil && u.Host != "" {
				s.imageHosts[strings.ToLower(u.Host)] = true
			}
		}
	}
}

func (s *Server) imageHostAllowed(u *url.URL) bool {
	s.hostsMu.RLock()
	defer s.hostsMu.RUnlock()
	return s.imageHosts[strings.ToLower(u.Host)] || s.imageHosts[strings.ToLower(u.Hostname())]
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/image", s.handleImage)
	if s.cfg.RequireAuth && s.users != nil {
		return s.basicAuth(mux)
	}
	return mux
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.users.TestUser(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="photosearch"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, hasQ := r.URL.Query()["q"]
	if !hasQ {
		http.Error(w, "Query Search Parameter ?q= missing", http.StatusBadRequest)
		return
	}
	res := s.session.Search(r.Context(), strings.Join(q, " "))
	if res.Err != nil {
		s.writeJSON(w, r, http.StatusBadGateway, map[string]string{"error": res.Err.Message})
		return
	}
	s.allowImageHosts(res.Items)
	s.writeJSON(w, r, http.StatusOK, res.Items)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.session.History()
	query := r.URL.Query()
	var list []string
	switch filter := query.Get("filter"); {
	case filter == "":
		list = history.All()
	case query.Get("fuzzy") == "1":
		list = history.FilterFuzzy(filter)
	default:
		list = history.Filter(filter)
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	imgUrl := r.URL.Query().Get("url")
	if imgUrl == "" {
		http.Error(w, "Query Parameter ?url= missing", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(imgUrl)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !s.imageHostAllowed(u) {
		http.Error(w, "Image host not allowed", http.StatusForbidden)
		return
	}
	img, ok := s.images.Fetch(r.Context(), imgUrl)
	if !ok {
		http.Error(w, "Image not available", http.StatusNotFound)
		return
	}
	data := img.Data
	contentType := img.ContentType
	if ws := r.URL.Query().Get("w"); ws != "" {
		width, err := strconv.Atoi(ws)
		if err != nil || width <= 0 {
			http.Error(w, "Invalid width", http.StatusBadRequest)
			return
		}
		if width < img.Width {
			data, err = Resized(img, width)
			if err != nil {
				s.log.Error().Err(err).Msg("Failed to resize image")
				http.Error(w, "Unable to resize image", http.StatusInternalServerError)
				return
			}
			contentType = "image/jpeg"
		}
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)
	enc := json.NewEncoder(body)
	if s.cfg.Debug.PrettyJson {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to write response")
	}
}
