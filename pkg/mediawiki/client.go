// Package mediawiki is a minimal MediaWiki Action API client covering what
// the bot needs: enumerating pages that embed a template or redirect to a
// title, checking page existence, token-authenticated edits, and cache
// purges.
package mediawiki

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultAPIURL is the English Wikipedia Action API endpoint.
	DefaultAPIURL = "https://en.wikipedia.org/w/api.php"

	// DefaultUserAgent identifies the bot per the API etiquette policy.
	DefaultUserAgent = "abbrevbot/1.0 (https://github.com/coolbeans/abbrevbot)"

	// DefaultRateLimit is the minimum interval between API requests.
	DefaultRateLimit = 2 * time.Second

	// pageBatchSize is how many pages each generator request asks for.
	pageBatchSize = 50
)

// ErrStop may be returned by a page visitor to stop enumeration early
// without reporting an error.
var ErrStop = errors.New("stop enumeration")

// ClientConfig holds the settings for a Client.
type ClientConfig struct {
	// APIURL is the Action API endpoint to talk to.
	APIURL string

	// UserAgent is sent with every request.
	UserAgent string

	// RateLimit is the minimum interval between requests.
	RateLimit time.Duration

	// HTTPClient is the transport to use. When nil, a cookie-aware
	// default client is built and wrapped with the rate limiter.
	HTTPClient HTTPClient

	// Logger receives request-level diagnostics. When nil, logging is
	// disabled.
	Logger *zap.Logger
}

// DefaultClientConfig returns a config pointed at the English Wikipedia
// with conservative rate limiting.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		APIURL:    DefaultAPIURL,
		UserAgent: DefaultUserAgent,
		RateLimit: DefaultRateLimit,
	}
}

// Page is one wiki page with its current wikitext.
type Page struct {
	Title string
	Text  string
}

// Client talks to one MediaWiki installation. It is not safe for
// concurrent use; the bot is strictly sequential by design.
type Client struct {
	apiURL     string
	userAgent  string
	httpClient HTTPClient
	logger     *zap.Logger
	csrfToken  string
}

// NewClient builds a Client from the config, filling unset fields with the
// defaults.
func NewClient(config ClientConfig) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Timeout: 60 * time.Second, Jar: jar}
	}
	if config.RateLimit > 0 {
		httpClient = NewRateLimitedHTTPClient(httpClient, config.RateLimit)
	}
	return &Client{
		apiURL:     config.APIURL,
		userAgent:  config.UserAgent,
		httpClient: httpClient,
		logger:     config.Logger,
	}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Info)
}

type revision struct {
	Slots struct {
		Main struct {
			Content string `json:"content"`
		} `json:"main"`
	} `json:"slots"`
}

type pageResult struct {
	Title     string     `json:"title"`
	Missing   bool       `json:"missing"`
	Invalid   bool       `json:"invalid"`
	Revisions []revision `json:"revisions"`
}

type queryResponse struct {
	Error    *apiError         `json:"error"`
	Continue map[string]string `json:"continue"`
	Query    struct {
		Pages  []pageResult `json:"pages"`
		Tokens struct {
			CSRFToken  string `json:"csrftoken"`
			LoginToken string `json:"logintoken"`
		} `json:"tokens"`
	} `json:"query"`
}

// PagesEmbedding visits up to limit non-redirect article pages that embed
// the named template, handing each page with its content to visit. The
// visitor may return ErrStop to end the walk early.
func (c *Client) PagesEmbedding(template string, limit int, visit func(Page) error) error {
	params := url.Values{
		"generator":      {"embeddedin"},
		"geititle":       {"Template:" + template},
		"geinamespace":   {"0"},
		"geifilterredir": {"nonredirects"},
		"geilimit":       {strconv.Itoa(pageBatchSize)},
	}
	return c.walkPages(params, limit, visit)
}

// PagesInCategory visits up to limit article pages in the named category,
// handing each page with its content to visit.
func (c *Client) PagesInCategory(category string, limit int, visit func(Page) error) error {
	params := url.Values{
		"generator":    {"categorymembers"},
		"gcmtitle":     {category},
		"gcmnamespace": {"0"},
		"gcmlimit":     {strconv.Itoa(pageBatchSize)},
	}
	return c.walkPages(params, limit, visit)
}

func (c *Client) walkPages(params url.Values, limit int, visit func(Page) error) error {
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")

	visited := 0
	cont := map[string]string{}
	for {
		request := cloneValues(params)
		for key, value := range cont {
			request.Set(key, value)
		}
		var response queryResponse
		if err := c.get(request, &response); err != nil {
			return err
		}
		if response.Error != nil {
			return response.Error
		}
		for _, page := range response.Query.Pages {
			if visited >= limit {
				return nil
			}
			visited++
			text := ""
			if len(page.Revisions) > 0 {
				text = page.Revisions[0].Slots.Main.Content
			}
			if err := visit(Page{Title: page.Title, Text: text}); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
		if len(response.Continue) == 0 || visited >= limit {
			return nil
		}
		cont = response.Continue
	}
}

// RedirectsToPage returns the bodies of up to limit mainspace redirects
// pointing at the given title, keyed by redirect title. The target itself
// never appears in the result.
func (c *Client) RedirectsToPage(title string, limit int) (map[string]string, error) {
	params := url.Values{
		"action":       {"query"},
		"generator":    {"redirects"},
		"titles":       {title},
		"grdnamespace": {"0"},
		"grdlimit":     {strconv.Itoa(pageBatchSize)},
		"prop":         {"revisions"},
		"rvprop":       {"content"},
		"rvslots":      {"main"},
	}
	redirects := make(map[string]string)
	cont := map[string]string{}
	for {
		request := cloneValues(params)
		for key, value := range cont {
			request.Set(key, value)
		}
		var response queryResponse
		if err := c.get(request, &response); err != nil {
			return nil, err
		}
		if response.Error != nil {
			return nil, response.Error
		}
		for _, page := range response.Query.Pages {
			if len(redirects) >= limit {
				return redirects, nil
			}
			if page.Title == title || len(page.Revisions) == 0 {
				continue
			}
			redirects[page.Title] = page.Revisions[0].Slots.Main.Content
		}
		if len(response.Continue) == 0 {
			return redirects, nil
		}
		cont = response.Continue
	}
}

// PageExists reports whether a page with the given title exists.
func (c *Client) PageExists(title string) (bool, error) {
	params := url.Values{
		"action": {"query"},
		"titles": {title},
	}
	var response queryResponse
	if err := c.get(params, &response); err != nil {
		return false, err
	}
	if response.Error != nil {
		return false, response.Error
	}
	if len(response.Query.Pages) == 0 {
		return false, nil
	}
	page := response.Query.Pages[0]
	return !page.Missing && !page.Invalid, nil
}

type editResponse struct {
	Error *apiError `json:"error"`
	Edit  struct {
		Result string `json:"result"`
	} `json:"edit"`
}

// CreatePage saves a new page, failing if the title already exists.
func (c *Client) CreatePage(title, text, summary string) error {
	return c.edit(title, text, summary, "createonly")
}

// OverwritePage replaces an existing page, failing if the title is absent.
func (c *Client) OverwritePage(title, text, summary string) error {
	return c.edit(title, text, summary, "nocreate")
}

// SavePage saves a page whether or not it exists yet. Only report pages in
// the bot's own space go through this.
func (c *Client) SavePage(title, text, summary string) error {
	return c.edit(title, text, summary, "")
}

func (c *Client) edit(title, text, summary, mode string) error {
	token, err := c.ensureCSRFToken()
	if err != nil {
		return err
	}
	form := url.Values{
		"action":    {"edit"},
		"title":     {title},
		"text":      {text},
		"summary":   {summary},
		"bot":       {"1"},
		"watchlist": {"nochange"},
		"token":     {token},
	}
	if mode != "" {
		form.Set(mode, "1")
	}
	var response editResponse
	if err := c.post(form, &response); err != nil {
		return fmt.Errorf("failed to edit %q: %w", title, err)
	}
	if response.Error != nil {
		return fmt.Errorf("failed to edit %q: %w", title, response.Error)
	}
	if response.Edit.Result != "Success" {
		return fmt.Errorf("failed to edit %q: result %q", title, response.Edit.Result)
	}
	c.logger.Debug("page saved", zap.String("title", title), zap.String("mode", mode))
	return nil
}

// Purge drops the rendered cache of a page so its incoming-redirect
// listings refresh.
func (c *Client) Purge(title string) error {
	form := url.Values{
		"action": {"purge"},
		"titles": {title},
	}
	var response struct {
		Error *apiError `json:"error"`
	}
	if err := c.post(form, &response); err != nil {
		return fmt.Errorf("failed to purge %q: %w", title, err)
	}
	if response.Error != nil {
		return fmt.Errorf("failed to purge %q: %w", title, response.Error)
	}
	return nil
}

// Login authenticates the client as a bot account. Later edits carry the
// session cookies the wiki hands back here.
func (c *Client) Login(username, password string) error {
	var tokenResponse queryResponse
	err := c.get(url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {"login"},
	}, &tokenResponse)
	if err != nil {
		return fmt.Errorf("failed to fetch login token: %w", err)
	}
	var response struct {
		Error *apiError `json:"error"`
		Login struct {
			Result string `json:"result"`
		} `json:"login"`
	}
	form := url.Values{
		"action":     {"login"},
		"lgname":     {username},
		"lgpassword": {password},
		"lgtoken":    {tokenResponse.Query.Tokens.LoginToken},
	}
	if err := c.post(form, &response); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if response.Error != nil {
		return fmt.Errorf("login failed: %w", response.Error)
	}
	if response.Login.Result != "Success" {
		return fmt.Errorf("login failed: result %q", response.Login.Result)
	}
	c.logger.Info("logged in", zap.String("username", username))
	return nil
}

func (c *Client) ensureCSRFToken() (string, error) {
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}
	var response queryResponse
	err := c.get(url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
	}, &response)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", response.Error)
	}
	if response.Query.Tokens.CSRFToken == "" {
		return "", fmt.Errorf("empty csrf token in response")
	}
	c.csrfToken = response.Query.Tokens.CSRFToken
	return c.csrfToken, nil
}

func (c *Client) get(params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	req, err := http.NewRequest(http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(form url.Values, out any) error {
	form.Set("format", "json")
	form.Set("formatversion", "2")
	req, err := http.NewRequest(http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from api", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func cloneValues(values url.Values) url.Values {
	cloned := make(url.Values, len(values))
	for key, list := range values {
		cloned[key] = append([]string(nil), list...)
	}
	return cloned
}
