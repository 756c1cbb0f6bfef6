package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

func processError(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(2)
}

// openHistoryStore picks the KVStore that backs the search history.
func openHistoryStore(cfg *Config, store *Store) (KVStore, io.Closer, error) {
	switch strings.ToLower(cfg.History.Backend) {
	case "", "sqlite":
		return store, nil, nil
	case "bolt":
		path := cfg.History.Path
		if path == "" {
			path = filepath.Join(filepath.Dir(cfg.Database), "history.bolt")
		}
		bs, err := NewBoltStore(path)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs, nil
	case "memory":
		return NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
}

func main() {
	configPath := flag.String("config", "conf/config.json", "path to the JSON config file")
	addUser := flag.String("adduser", "", "create or update a user given as name:password, then exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		processError(err)
	}
	setupLogging(cfg)

	store, err := NewStore(cfg.Database)
	if err != nil {
		processError(err)
	}
	defer store.Close()

	if *addUser != "" {
		name, pass, ok := strings.Cut(*addUser, ":")
		if !ok || name == "" || pass == "" {
			processError(fmt.Errorf("-adduser expects name:password"))
		}
		if err := store.AddUser(name, pass, 1); err != nil {
			processError(err)
		}
		log.Info().Str("user", name).Msg("User saved")
		return
	}

	client := &http.Client{Timeout: 30 * time.Second}
	searcher, err := NewSearcher(cfg, client)
	if err != nil {
		processError(err)
	}
	kv, closer, err := openHistoryStore(cfg, store)
	if err != nil {
		processError(err)
	}
	if closer != nil {
		defer closer.Close()
	}

	images := NewImageCache(client)
	session := NewSearchSession(searcher, NewHistory(kv, cfg.History.Limit), images, Observer{
		OnLoadingChanged: func(loading bool) {
			log.Debug().Bool("loading", loading).Msg("Loading state changed")
		},
	})
	srv := NewServer(cfg, session, images, store)

	log.Info().Str("listen", cfg.Listen).Str("provider", searcher.Type()).Msg("Starting Server")
	if err := http.ListenAndServe(cfg.Listen, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
