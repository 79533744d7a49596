package site

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures the site client.
type Config struct {
	// BaseURL is the site root. Default: https://eksisozluk.com.
	BaseURL string `yaml:"base_url"`
	// Cookie is the raw Cookie header of an authenticated session. The
	// relation and note endpoints reject anonymous requests.
	Cookie string `yaml:"cookie"`
	// UserAgent sent with every request.
	UserAgent string `yaml:"user_agent"`
	// Timeout bounds each HTTP call. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBytes caps response body reads. Default: 4MB.
	MaxBytes int64 `yaml:"max_bytes"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://eksisozluk.com"
	}
	if c.UserAgent == "" {
		c.UserAgent = "eksiblok/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 4 * 1024 * 1024
	}
}

// Client talks to the site over an authenticated session.
type Client struct {
	http   *http.Client
	config Config
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// BaseURL returns the configured site root without a trailing slash.
func (c *Client) BaseURL() string { return c.config.BaseURL }

// EntryLink returns the canonical URL of an entry.
func (c *Client) EntryLink(entryID string) string {
	return c.config.BaseURL + "/entry/" + entryID
}

// FavoriteAuthors fetches the favorites list of an entry and returns the
// profile URLs of everyone who favorited it, in page order.
func (c *Client) FavoriteAuthors(ctx context.Context, entryID string) ([]string, error) {
	u := c.config.BaseURL + "/entry/favorileyenler?entryId=" + url.QueryEscape(entryID)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("site: favorites of entry %s: %w", entryID, err)
	}
	urls, err := ParseFavoritesHTML(strings.NewReader(body), c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("site: parse favorites of entry %s: %w", entryID, err)
	}
	return urls, nil
}

// ProfileUserID fetches a profile page and extracts the numeric account id.
func (c *Client) ProfileUserID(ctx context.Context, userURL string) (int64, error) {
	body, err := c.get(ctx, userURL)
	if err != nil {
		return 0, fmt.Errorf("site: fetch profile %s: %w", userURL, err)
	}
	id, ok := ParseUserID(strings.NewReader(body))
	if !ok {
		return 0, fmt.Errorf("site: no user id in profile %s", userURL)
	}
	return id, nil
}

// Block applies the relation (mute or block) to a user by numeric id.
func (c *Client) Block(ctx context.Context, userID int64, action Action) error {
	u := fmt.Sprintf("%s/userrelation/addrelation/%d?r=%s", c.config.BaseURL, userID, action.Code())
	if _, err := c.post(ctx, u, ""); err != nil {
		return fmt.Errorf("site: %s user %d: %w", action, userID, err)
	}
	return nil
}

// AddNote submits a user note on the per-username note endpoint.
func (c *Client) AddNote(ctx context.Context, username string, userID int64, note string) error {
	u := c.config.BaseURL + "/biri/" + url.PathEscape(username) + "/note"
	form := url.Values{}
	form.Set("who", fmt.Sprintf("%d", userID))
	form.Set("usernote", note)
	if _, err := c.post(ctx, u, form.Encode()); err != nil {
		return fmt.Errorf("site: note for %s: %w", username, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, u, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, error) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Cookie != "" {
		req.Header.Set("Cookie", c.config.Cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
