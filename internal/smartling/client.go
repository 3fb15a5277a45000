package smartling

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Files API endpoints.
const (
	pathUpload       = "/v1/file/upload"
	pathList         = "/v1/file/list"
	pathLastModified = "/v1/file/last_modified"
	pathGet          = "/v1/file/get"
	pathDelete       = "/v1/file/delete"
	pathImport       = "/v1/file/import"
	pathStatus       = "/v1/file/status"
	pathRename       = "/v1/file/rename"
)

// Client exposes the Smartling Files API operations. Every call is stateless and
// authenticated by the underlying Requester.
type Client struct {
	requester Requester
}

func NewClient(requester Requester) *Client {
	return &Client{requester: requester}
}

// Upload sends a source file for translation.
func (c *Client) Upload(ctx context.Context, data UploadData) (*Response, error) {
	if err := validateUploadData("upload", data); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fileUri", data.URI)
	params.Set("fileType", data.Type)
	if data.ApproveContent != nil {
		params.Set("approved", strconv.FormatBool(*data.ApproveContent))
	}
	if callback := strings.TrimSpace(data.CallbackURL); callback != "" {
		params.Set("callbackUrl", callback)
	}
	for i, directive := range data.Directives {
		if strings.TrimSpace(directive.Name) == "" {
			return nil, &ValidationError{Op: "upload", Field: fmt.Sprintf("directives[%d]", i), Message: "name is required"}
		}
		params.Set(directive.Field(), directive.Value)
	}

	return c.upload(ctx, pathUpload, params, data, "application/octet-stream")
}

// List returns the files of the project matching opts.
func (c *Client) List(ctx context.Context, opts ListOptions) (*Response, error) {
	if opts.Offset < 0 {
		return nil, &ValidationError{Op: "list", Field: "offset", Message: "must be >= 0"}
	}
	if opts.Limit < 0 {
		return nil, &ValidationError{Op: "list", Field: "limit", Message: "must be >= 0"}
	}

	params := url.Values{}
	setIfPresent(params, "uriMask", opts.URIMask)
	setIfPresent(params, "locale", opts.Locale)
	setIfPresent(params, "orderBy", opts.OrderBy)
	for _, fileType := range opts.FileTypes {
		setIfPresent(params, "fileTypes", fileType)
	}
	for _, condition := range opts.Conditions {
		setIfPresent(params, "conditions", condition)
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	setTime(params, "lastUploadedAfter", opts.LastUploadedAfter)
	setTime(params, "lastUploadedBefore", opts.LastUploadedBefore)

	return c.do(ctx, http.MethodPost, pathList, params)
}

// LastModified reports when the translations of a file last changed, for one or all locales.
func (c *Client) LastModified(ctx context.Context, fileURI string, opts LastModifiedOptions) (*Response, error) {
	if err := requireField("last_modified", "fileUri", fileURI); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fileUri", fileURI)
	setIfPresent(params, "locale", opts.Locale)
	setTime(params, "lastModifiedAfter", opts.LastModifiedAfter)

	return c.do(ctx, http.MethodGet, pathLastModified, params)
}

// Get downloads a file, translated into opts.Locale when set. The body is the file content.
func (c *Client) Get(ctx context.Context, fileURI string, opts GetOptions) (*Response, error) {
	if err := requireField("get", "fileUri", fileURI); err != nil {
		return nil, err
	}
	if opts.RetrievalType != "" && !IsRetrievalType(opts.RetrievalType) {
		return nil, &ValidationError{
			Op:      "get",
			Field:   "retrievalType",
			Message: fmt.Sprintf("%q is not one of %s", opts.RetrievalType, strings.Join(RetrievalTypes, ", ")),
		}
	}

	params := url.Values{}
	params.Set("fileUri", fileURI)
	setIfPresent(params, "locale", opts.Locale)
	setIfPresent(params, "retrievalType", opts.RetrievalType)
	if opts.IncludeOriginalStrings != nil {
		params.Set("includeOriginalStrings", strconv.FormatBool(*opts.IncludeOriginalStrings))
	}

	return c.do(ctx, http.MethodGet, pathGet, params)
}

// Delete removes a file and all of its translations.
func (c *Client) Delete(ctx context.Context, fileURI string) (*Response, error) {
	if err := requireField("delete", "fileUri", fileURI); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fileUri", fileURI)
	return c.do(ctx, http.MethodPost, pathDelete, params)
}

// Import loads an already translated file for one locale. The file part is sent as text/plain.
func (c *Client) Import(ctx context.Context, data UploadData, locale string, opts ImportOptions) (*Response, error) {
	if err := validateUploadData("import", data); err != nil {
		return nil, err
	}
	if err := requireField("import", "locale", locale); err != nil {
		return nil, err
	}
	state := opts.TranslationState
	if state == "" {
		state = TranslationStatePublished
	}
	if state != TranslationStatePublished && state != TranslationStatePostTranslation {
		return nil, &ValidationError{
			Op:      "import",
			Field:   "translationState",
			Message: fmt.Sprintf("%q is not one of %s, %s", state, TranslationStatePublished, TranslationStatePostTranslation),
		}
	}

	params := url.Values{}
	params.Set("fileUri", data.URI)
	params.Set("fileType", data.Type)
	params.Set("locale", locale)
	params.Set("overwrite", strconv.FormatBool(opts.Overwrite))
	params.Set("translationState", state)

	return c.upload(ctx, pathImport, params, data, "text/plain")
}

// Status reports translation progress of a file for one locale.
func (c *Client) Status(ctx context.Context, fileURI, locale string) (*Response, error) {
	if err := requireField("status", "fileUri", fileURI); err != nil {
		return nil, err
	}
	if err := requireField("status", "locale", locale); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fileUri", fileURI)
	params.Set("locale", locale)
	return c.do(ctx, http.MethodPost, pathStatus, params)
}

// Rename changes the URI of a file, keeping its translations.
func (c *Client) Rename(ctx context.Context, fileURI, newURI string) (*Response, error) {
	if err := requireField("rename", "fileUri", fileURI); err != nil {
		return nil, err
	}
	if err := requireField("rename", "newFileUri", newURI); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fileUri", fileURI)
	params.Set("newFileUri", newURI)
	return c.do(ctx, http.MethodPost, pathRename, params)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*Response, error) {
	if c == nil || c.requester == nil {
		return nil, fmt.Errorf("smartling client is not initialized")
	}
	return c.requester.Do(ctx, method, path, params)
}

func (c *Client) upload(ctx context.Context, path string, params url.Values, data UploadData, contentType string) (*Response, error) {
	if c == nil || c.requester == nil {
		return nil, fmt.Errorf("smartling client is not initialized")
	}
	return c.requester.Upload(ctx, path, params, FilePart{
		Path:        data.FilePath(),
		Name:        data.Name,
		ContentType: contentType,
	})
}

// IsRetrievalType reports whether value is an allowed Get retrieval type.
func IsRetrievalType(value string) bool {
	for _, allowed := range RetrievalTypes {
		if value == allowed {
			return true
		}
	}
	return false
}

func validateUploadData(op string, data UploadData) error {
	if err := requireField(op, "uri", data.URI); err != nil {
		return err
	}
	if err := requireField(op, "name", data.Name); err != nil {
		return err
	}
	if err := requireField(op, "type", data.Type); err != nil {
		return err
	}
	return nil
}

func requireField(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Op: op, Field: field, Message: "is required"}
	}
	return nil
}

func setIfPresent(params url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		params.Add(key, v)
	}
}

func setTime(params url.Values, key string, value time.Time) {
	if !value.IsZero() {
		params.Set(key, value.UTC().Format(time.RFC3339))
	}
}
