package smartling

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// File types understood by the Files API.
const (
	FileTypeJSON      = "json"
	FileTypePlainText = "plain_text"
)

// Retrieval types accepted by Get.
const (
	RetrievalPublished = "published"
	RetrievalPending   = "pending"
	RetrievalPseudo    = "pseudo"
)

// RetrievalTypes lists the allowed Get retrieval types.
var RetrievalTypes = []string{RetrievalPublished, RetrievalPending, RetrievalPseudo}

// Translation states accepted by Import.
const (
	TranslationStatePublished       = "PUBLISHED"
	TranslationStatePostTranslation = "POST_TRANSLATION"
)

// DirectivePrefix namespaces directive names in request fields.
const DirectivePrefix = "smartling."

// Directive is a key/value translation hint attached to an upload.
type Directive struct {
	Name  string
	Value string
}

// Field returns the request field name carrying the directive.
func (d Directive) Field() string {
	name := strings.TrimSpace(d.Name)
	if strings.HasPrefix(name, DirectivePrefix) {
		return name
	}
	return DirectivePrefix + name
}

// UploadData describes one file to upload or import. The file is read from Dir/Name.
type UploadData struct {
	URI  string
	Name string
	Type string
	Dir  string

	// ApproveContent is sent as "approved" when set.
	ApproveContent *bool
	CallbackURL    string
	Directives     []Directive
}

// FilePath is the local location of the file to send.
func (u UploadData) FilePath() string {
	return filepath.Join(u.Dir, u.Name)
}

// WithDirective returns a copy of u with one more directive appended.
func (u UploadData) WithDirective(name, value string) UploadData {
	directives := make([]Directive, 0, len(u.Directives)+1)
	directives = append(directives, u.Directives...)
	u.Directives = append(directives, Directive{Name: name, Value: value})
	return u
}

// ListOptions filters List. Zero values are not sent.
type ListOptions struct {
	URIMask            string
	FileTypes          []string
	Locale             string
	Conditions         []string
	OrderBy            string
	Offset             int
	Limit              int
	LastUploadedAfter  time.Time
	LastUploadedBefore time.Time
}

// GetOptions controls Get. Zero values are not sent.
type GetOptions struct {
	Locale                 string
	RetrievalType          string
	IncludeOriginalStrings *bool
}

// LastModifiedOptions controls LastModified. Zero values are not sent.
type LastModifiedOptions struct {
	Locale            string
	LastModifiedAfter time.Time
}

// ImportOptions controls Import.
type ImportOptions struct {
	Overwrite        bool
	TranslationState string
}

// Response is the outcome of every Smartling call: the HTTP status, the raw body,
// and the decoded envelope when the body is one.
type Response struct {
	StatusCode int
	Body       []byte

	Code     string
	Messages []string
	Data     json.RawMessage
}

type envelope struct {
	Response struct {
		Code     string          `json:"code"`
		Messages []string        `json:"messages"`
		Data     json.RawMessage `json:"data"`
	} `json:"response"`
}

// NewResponse builds a Response from a status and raw body, decoding the envelope when present.
func NewResponse(statusCode int, body []byte) *Response {
	resp := &Response{
		StatusCode: statusCode,
		Body:       body,
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Response.Code != "" {
		resp.Code = env.Response.Code
		resp.Messages = env.Response.Messages
		resp.Data = env.Response.Data
	}
	return resp
}

// OK reports a 2xx status whose envelope, if any, is SUCCESS.
func (r *Response) OK() bool {
	if r == nil || r.StatusCode < 200 || r.StatusCode >= 300 {
		return false
	}
	return r.Code == "" || r.Code == "SUCCESS"
}

func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Err returns nil for a successful response and an *APIError otherwise.
func (r *Response) Err() error {
	if r == nil {
		return fmt.Errorf("smartling response is nil")
	}
	if r.OK() {
		return nil
	}
	return &APIError{
		StatusCode: r.StatusCode,
		Code:       r.Code,
		Messages:   r.Messages,
		Body:       string(r.Body),
	}
}

// DecodeData unmarshals the envelope data object into v.
func (r *Response) DecodeData(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return fmt.Errorf("smartling response has no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode smartling response data: %w", err)
	}
	return nil
}

type UploadResult struct {
	OverWritten bool `json:"overWritten"`
	StringCount int  `json:"stringCount"`
	WordCount   int  `json:"wordCount"`
}

type FileInfo struct {
	FileURI              string `json:"fileUri"`
	FileType             string `json:"fileType"`
	LastUploaded         string `json:"lastUploaded"`
	StringCount          int    `json:"stringCount"`
	WordCount            int    `json:"wordCount"`
	ApprovedStringCount  int    `json:"approvedStringCount"`
	CompletedStringCount int    `json:"completedStringCount"`
}

type FileList struct {
	FileCount int        `json:"fileCount"`
	FileList  []FileInfo `json:"fileList"`
}

type FileStatus struct {
	FileInfo
	Locale string `json:"locale,omitempty"`
}

// Complete reports whether every string of the file is translated.
func (s FileStatus) Complete() bool {
	return s.StringCount > 0 && s.CompletedStringCount >= s.StringCount
}

type LastModifiedItem struct {
	Locale       string `json:"locale"`
	LastModified string `json:"lastModified"`
}

type LastModifiedList struct {
	Items []LastModifiedItem `json:"items"`
}

func DecodeUpload(resp *Response) (UploadResult, error) {
	var result UploadResult
	err := resp.DecodeData(&result)
	return result, err
}

func DecodeList(resp *Response) (FileList, error) {
	var list FileList
	err := resp.DecodeData(&list)
	return list, err
}

func DecodeStatus(resp *Response) (FileStatus, error) {
	var status FileStatus
	err := resp.DecodeData(&status)
	return status, err
}

func DecodeLastModified(resp *Response) (LastModifiedList, error) {
	var list LastModifiedList
	err := resp.DecodeData(&list)
	return list, err
}
