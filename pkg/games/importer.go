package games

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gamedex/gamedex/pkg/errcodes"
	"github.com/gamedex/gamedex/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/errgroup"
)

// maxSourceSize bounds how much of a source response is read.
const maxSourceSize = 32 << 20

// sourceGame is a single entry of a remote top-chart dataset.
type sourceGame struct {
	PublisherID flexString      `json:"publisher_id"`
	Name        flexString      `json:"name"`
	OS          flexString      `json:"os"`
	AppID       flexString      `json:"app_id"`
	BundleID    flexString      `json:"bundle_id"`
	Version     flexString      `json:"version"`
	ReleaseDate json.RawMessage `json:"release_date"`
}

func (s *sourceGame) toModel() *models.Game {
	return &models.Game{
		PublisherID: string(s.PublisherID),
		Name:        string(s.Name),
		Platform:    string(s.OS),
		StoreID:     string(s.AppID),
		BundleID:    string(s.BundleID),
		AppVersion:  string(s.Version),
		IsPublished: truthy(s.ReleaseDate),
	}
}

// flexString accepts a JSON string or number. The iOS dataset uses numeric
// app ids.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.WithStack(err)
		}
		*f = flexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return errors.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(data)
	return nil
}

// truthy reports whether a raw JSON value is truthy: null, "", false and 0
// are not.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	if n, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return n != 0
	}
	return true
}

// Importer loads the configured remote datasets into the games table.
type Importer struct {
	gameService *Service
	client      *http.Client
	sources     []string
	timeout     time.Duration
}

func NewImporter(gameService *Service, client *http.Client, sources []string, timeout time.Duration) *Importer {
	return &Importer{
		gameService: gameService,
		client:      client,
		sources:     sources,
		timeout:     timeout,
	}
}

// Import fetches every source concurrently and inserts the combined set in a
// single transaction. Nothing is inserted unless every source was fetched and
// decoded. It returns the number of games inserted.
func (imp *Importer) Import(ctx context.Context) (int, error) {
	if len(imp.sources) == 0 {
		return 0, errcodes.ValidationError("No import sources are configured.")
	}

	if imp.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, imp.timeout)
		defer cancel()
	}

	results := make([][]*sourceGame, len(imp.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range imp.sources {
		g.Go(func() error {
			entries, err := imp.fetch(gctx, url)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.FromContext(ctx).Err(err).Error("import fetch failed")
		return 0, errcodes.ImportFailed(err.Error())
	}

	games := []*models.Game{}
	for _, entries := range results {
		for _, entry := range entries {
			games = append(games, entry.toModel())
		}
	}

	if err := imp.gameService.BulkCreateGames(ctx, games); err != nil {
		return 0, errors.WithStack(err)
	}

	return len(games), nil
}

func (imp *Importer) fetch(ctx context.Context, url string) ([]*sourceGame, error) {
	log := logger.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid import source %s", url)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := imp.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", url)
	}

	entries, err := decodeSource(body)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed dataset from %s", url)
	}

	log.Info("fetched import source", logger.Data{"url": url, "games": len(entries)})
	return entries, nil
}

// decodeSource parses a dataset body. The top level is an array whose
// elements are either games or arrays of games, flattened one level.
func decodeSource(body []byte) ([]*sourceGame, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, errors.WithStack(err)
	}

	entries := make([]*sourceGame, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}
		if item[0] == '[' {
			var nested []*sourceGame
			if err := json.Unmarshal(item, &nested); err != nil {
				return nil, errors.WithStack(err)
			}
			for _, entry := range nested {
				if entry != nil {
					entries = append(entries, entry)
				}
			}
			continue
		}
		entry := &sourceGame{}
		if err := json.Unmarshal(item, entry); err != nil {
			return nil, errors.WithStack(err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
