package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 60 * time.Second

	apiPrefix        = "/api/v2/help_center"
	defaultUserAgent = "smartlingzd/1.0"
	maxPages         = 10000
)

type Options struct {
	URL       string
	User      string
	AuthToken string

	ProxyURL string
	Timeout  time.Duration

	HTTPClient *http.Client
}

// Client talks to the Help Center API of one Zendesk account using API token auth.
type Client struct {
	http *resty.Client
}

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("zendesk url is required")
	}
	user := strings.TrimSpace(opts.User)
	if user == "" {
		return nil, fmt.Errorf("zendesk user is required")
	}
	token := strings.TrimSpace(opts.AuthToken)
	if token == "" {
		return nil, fmt.Errorf("zendesk auth token is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(user+"/token", token).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", defaultUserAgent)

	if proxy := strings.TrimSpace(opts.ProxyURL); proxy != "" {
		client.SetProxy(proxy)
	}

	return &Client{http: client}, nil
}

// ListItems returns every item of one type in a locale, following next_page links.
func (c *Client) ListItems(ctx context.Context, itemType ItemType, locale string) ([]Item, error) {
	if !itemType.Valid() {
		return nil, fmt.Errorf("invalid item type %q", itemType)
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return nil, fmt.Errorf("locale is required")
	}

	next := fmt.Sprintf("%s/%s/%s.json", apiPrefix, url.PathEscape(locale), itemType.Plural())
	items := make([]Item, 0, 64)
	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("list %s: more than %d pages", itemType.Plural(), maxPages)
		}

		var payload map[string]json.RawMessage
		if err := c.getJSON(ctx, next, &payload); err != nil {
			return nil, err
		}

		var batch []Item
		if raw, ok := payload[itemType.Plural()]; ok {
			if err := json.Unmarshal(raw, &batch); err != nil {
				return nil, fmt.Errorf("decode %s page: %w", itemType.Plural(), err)
			}
		}
		items = append(items, batch...)

		next = ""
		if raw, ok := payload["next_page"]; ok {
			var nextPage *string
			if err := json.Unmarshal(raw, &nextPage); err != nil {
				return nil, fmt.Errorf("decode next_page: %w", err)
			}
			if nextPage != nil {
				next = strings.TrimSpace(*nextPage)
			}
		}
	}
	return items, nil
}

// ShowItem fetches one item by ID.
func (c *Client) ShowItem(ctx context.Context, itemType ItemType, id int64) (Item, error) {
	if !itemType.Valid() {
		return Item{}, fmt.Errorf("invalid item type %q", itemType)
	}

	var payload map[string]json.RawMessage
	if err := c.getJSON(ctx, itemPath(itemType, id)+".json", &payload); err != nil {
		return Item{}, err
	}
	raw, ok := payload[string(itemType)]
	if !ok {
		return Item{}, fmt.Errorf("%s %d: response has no %q object", itemType, id, itemType)
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return Item{}, fmt.Errorf("decode %s %d: %w", itemType, id, err)
	}
	return item, nil
}

func (c *Client) ArticleAttachments(ctx context.Context, articleID int64) ([]Attachment, error) {
	var payload struct {
		ArticleAttachments []Attachment `json:"article_attachments"`
	}
	if err := c.getJSON(ctx, itemPath(TypeArticle, articleID)+"/attachments.json", &payload); err != nil {
		return nil, err
	}
	return payload.ArticleAttachments, nil
}

func (c *Client) ShowTranslation(ctx context.Context, itemType ItemType, id int64, locale string) (Translation, error) {
	var payload struct {
		Translation Translation `json:"translation"`
	}
	if err := c.getJSON(ctx, translationPath(itemType, id, locale), &payload); err != nil {
		return Translation{}, err
	}
	return payload.Translation, nil
}

func (c *Client) UpdateTranslation(ctx context.Context, itemType ItemType, id int64, translation Translation) error {
	return c.sendJSON(ctx, http.MethodPut, translationPath(itemType, id, translation.Locale), translationBody{Translation: translation})
}

func (c *Client) CreateTranslation(ctx context.Context, itemType ItemType, id int64, translation Translation) error {
	path := fmt.Sprintf("%s/%s/%d/translations.json", apiPrefix, itemType.Plural(), id)
	return c.sendJSON(ctx, http.MethodPost, path, translationBody{Translation: translation})
}

// UpsertTranslation updates the translation when it exists and creates it otherwise.
// A 404 on create means the source item is gone; that is reported as SourceGone, not an error.
func (c *Client) UpsertTranslation(ctx context.Context, itemType ItemType, id int64, translation Translation) (UpsertOutcome, error) {
	if !itemType.Valid() {
		return 0, fmt.Errorf("invalid item type %q", itemType)
	}
	if strings.TrimSpace(translation.Locale) == "" {
		return 0, fmt.Errorf("translation locale is required")
	}

	_, err := c.ShowTranslation(ctx, itemType, id, translation.Locale)
	if err == nil {
		if err := c.UpdateTranslation(ctx, itemType, id, translation); err != nil {
			return 0, err
		}
		return Updated, nil
	}
	if !IsNotFound(err) {
		return 0, err
	}

	if err := c.CreateTranslation(ctx, itemType, id, translation); err != nil {
		if IsNotFound(err) {
			return SourceGone, nil
		}
		return 0, err
	}
	return Created, nil
}

type translationBody struct {
	Translation Translation `json:"translation"`
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("zendesk client is not initialized")
	}

	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return fmt.Errorf("zendesk GET %s: %w", path, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return newAPIError(http.MethodGet, path, resp.StatusCode(), resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode zendesk GET %s: %w", path, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("zendesk client is not initialized")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Execute(method, path)
	if err != nil {
		return fmt.Errorf("zendesk %s %s: %w", method, path, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return newAPIError(method, path, resp.StatusCode(), resp.Body())
	}
	return nil
}

func itemPath(itemType ItemType, id int64) string {
	return fmt.Sprintf("%s/%s/%d", apiPrefix, itemType.Plural(), id)
}

func translationPath(itemType ItemType, id int64, locale string) string {
	return fmt.Sprintf("%s/translations/%s.json", itemPath(itemType, id), url.PathEscape(locale))
}
