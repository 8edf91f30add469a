// Package catalog talks to the web store API for package metadata: the
// details shown before an install and the latest published versions used
// by the update check.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"llstore/internal/config"
	"llstore/internal/logging"
	"llstore/internal/task"
)

// ErrNotFound indicates the catalog has no entry for the requested app.
var ErrNotFound = errors.New("app not found in catalog")

// Client queries the store catalog over HTTP.
type Client struct {
	baseURL  string
	language string
	http     *http.Client
	logger   *slog.Logger
}

// New builds a catalog client from the configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.Catalog.BaseURL, "/"),
		language: cfg.Catalog.Language,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// envelope is the store API's standard response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// appPayload mirrors the catalog's app record shape.
type appPayload struct {
	AppID       string `json:"appId"`
	Name        string `json:"name"`
	ZhName      string `json:"zhName"`
	Icon        string `json:"icon"`
	Version     string `json:"version"`
	Arch        string `json:"arch"`
	Channel     string `json:"channel"`
	Module      string `json:"module"`
	Description string `json:"description"`
}

func (p appPayload) toAppInfo() task.AppInfo {
	return task.AppInfo{
		AppID:       p.AppID,
		Name:        p.Name,
		ZhName:      p.ZhName,
		Icon:        p.Icon,
		Version:     p.Version,
		Channel:     p.Channel,
		Module:      p.Module,
		Arch:        p.Arch,
		Description: p.Description,
	}
}

// AppInfo fetches the catalog record for one app.
func (c *Client) AppInfo(ctx context.Context, appID string) (*task.AppInfo, error) {
	if strings.TrimSpace(appID) == "" {
		return nil, errors.New("app id required")
	}
	query := url.Values{}
	query.Set("appId", appID)
	data, err := c.get(ctx, "/api/v0/web-store/app-info", query)
	if err != nil {
		return nil, err
	}
	var payload appPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse app info for %s: %w", appID, err)
	}
	if payload.AppID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, appID)
	}
	info := payload.toAppInfo()
	return &info, nil
}

// Search returns catalog records matching the keyword.
func (c *Client) Search(ctx context.Context, keyword string) ([]task.AppInfo, error) {
	query := url.Values{}
	query.Set("keyword", strings.TrimSpace(keyword))
	data, err := c.get(ctx, "/api/v0/web-store/search", query)
	if err != nil {
		return nil, err
	}
	var payloads []appPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	results := make([]task.AppInfo, 0, len(payloads))
	for _, payload := range payloads {
		if payload.AppID == "" {
			continue
		}
		results = append(results, payload.toAppInfo())
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if c.language != "" {
		query.Set("language", c.language)
	}
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("catalog returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	switch env.Code {
	case http.StatusOK, 0:
		return env.Data, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("catalog error %d: %s", env.Code, env.Msg)
	}
}
