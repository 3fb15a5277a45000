package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/smartlingzd/internal/config"
	"horse.fit/smartlingzd/internal/locale"
	"horse.fit/smartlingzd/internal/smartling"
	"horse.fit/smartlingzd/internal/zendesk"
)

type upsertCall struct {
	itemType    zendesk.ItemType
	id          int64
	translation zendesk.Translation
}

type stubZendesk struct {
	items          map[zendesk.ItemType][]zendesk.Item
	showErr        map[int64]error
	attachments    map[int64][]zendesk.Attachment
	attachmentsErr error
	upsertOutcome  zendesk.UpsertOutcome
	upsertErr      error

	listCalls []zendesk.ItemType
	showCalls []int64
	upserts   []upsertCall
}

func newStubZendesk() *stubZendesk {
	return &stubZendesk{
		items:       map[zendesk.ItemType][]zendesk.Item{},
		showErr:     map[int64]error{},
		attachments: map[int64][]zendesk.Attachment{},
	}
}

func (z *stubZendesk) ListItems(_ context.Context, itemType zendesk.ItemType, loc string) ([]zendesk.Item, error) {
	if loc != locale.ZendeskSource {
		return nil, fmt.Errorf("unexpected locale %q", loc)
	}
	z.listCalls = append(z.listCalls, itemType)
	return z.items[itemType], nil
}

func (z *stubZendesk) ShowItem(_ context.Context, itemType zendesk.ItemType, id int64) (zendesk.Item, error) {
	z.showCalls = append(z.showCalls, id)
	if err := z.showErr[id]; err != nil {
		return zendesk.Item{}, err
	}
	for _, item := range z.items[itemType] {
		if item.ID == id {
			return item, nil
		}
	}
	return mustItem(fmt.Sprintf(`{"id":%d,"name":"Item %d"}`, id, id)), nil
}

func (z *stubZendesk) ArticleAttachments(_ context.Context, articleID int64) ([]zendesk.Attachment, error) {
	if z.attachmentsErr != nil {
		return nil, z.attachmentsErr
	}
	return z.attachments[articleID], nil
}

func (z *stubZendesk) UpsertTranslation(_ context.Context, itemType zendesk.ItemType, id int64, translation zendesk.Translation) (zendesk.UpsertOutcome, error) {
	z.upserts = append(z.upserts, upsertCall{itemType: itemType, id: id, translation: translation})
	if z.upsertErr != nil {
		return 0, z.upsertErr
	}
	return z.upsertOutcome, nil
}

type getCall struct {
	uri  string
	opts smartling.GetOptions
}

type importCall struct {
	data   smartling.UploadData
	locale string
	opts   smartling.ImportOptions
}

type stubSmartling struct {
	uploadResp *smartling.Response
	// completed maps a Smartling locale to the URIs reported as fully translated.
	completed map[string][]string
	getStatus int
	statuses  map[string]string
	// listStatus makes List answer with an error status for a Smartling locale.
	listStatus map[string]int

	uploads   []smartling.UploadData
	lists     []smartling.ListOptions
	gets      []getCall
	imports   []importCall
	statusFor []string
}

func newStubSmartling() *stubSmartling {
	return &stubSmartling{
		completed:  map[string][]string{},
		getStatus:  http.StatusOK,
		statuses:   map[string]string{},
		listStatus: map[string]int{},
	}
}

func (s *stubSmartling) Upload(_ context.Context, data smartling.UploadData) (*smartling.Response, error) {
	s.uploads = append(s.uploads, data)
	if s.uploadResp != nil {
		return s.uploadResp, nil
	}
	return smartling.NewResponse(http.StatusOK, []byte(`{"response":{"code":"SUCCESS","messages":[],"data":{"overWritten":false,"stringCount":2,"wordCount":10}}}`)), nil
}

func (s *stubSmartling) List(_ context.Context, opts smartling.ListOptions) (*smartling.Response, error) {
	s.lists = append(s.lists, opts)
	if status, ok := s.listStatus[opts.Locale]; ok {
		return smartling.NewResponse(status, []byte(`{"response":{"code":"GENERAL_ERROR","messages":["list failed"]}}`)), nil
	}
	uris := s.completed[opts.Locale]

	var page []string
	if opts.Offset < len(uris) {
		page = uris[opts.Offset:]
	}
	if len(page) > listPageSize {
		page = page[:listPageSize]
	}

	files := make([]map[string]any, 0, len(page))
	for _, uri := range page {
		files = append(files, map[string]any{"fileUri": uri, "fileType": "json"})
	}
	data, err := json.Marshal(map[string]any{"fileCount": len(uris), "fileList": files})
	if err != nil {
		return nil, err
	}
	return smartling.NewResponse(http.StatusOK, []byte(`{"response":{"code":"SUCCESS","messages":[],"data":`+string(data)+`}}`)), nil
}

func (s *stubSmartling) LastModified(_ context.Context, _ string, _ smartling.LastModifiedOptions) (*smartling.Response, error) {
	return smartling.NewResponse(http.StatusOK, []byte(`{"response":{"code":"SUCCESS","messages":[],"data":{"items":[]}}}`)), nil
}

func (s *stubSmartling) Get(_ context.Context, uri string, opts smartling.GetOptions) (*smartling.Response, error) {
	s.gets = append(s.gets, getCall{uri: uri, opts: opts})
	if s.getStatus != http.StatusOK {
		return smartling.NewResponse(s.getStatus, []byte(`{"response":{"code":"AUTHENTICATION_ERROR","messages":["bad key"]}}`)), nil
	}
	return smartling.NewResponse(http.StatusOK, []byte(translatedBody(uri, opts.Locale))), nil
}

func (s *stubSmartling) Import(_ context.Context, data smartling.UploadData, loc string, opts smartling.ImportOptions) (*smartling.Response, error) {
	s.imports = append(s.imports, importCall{data: data, locale: loc, opts: opts})
	return smartling.NewResponse(http.StatusOK, []byte(`{"response":{"code":"SUCCESS","messages":[],"data":{}}}`)), nil
}

func (s *stubSmartling) Status(_ context.Context, uri, loc string) (*smartling.Response, error) {
	s.statusFor = append(s.statusFor, uri+"@"+loc)
	body, ok := s.statuses[uri]
	if !ok {
		return smartling.NewResponse(http.StatusNotFound, []byte(`{"response":{"code":"VALIDATION_ERROR","messages":["file not found"]}}`)), nil
	}
	return smartling.NewResponse(http.StatusOK, []byte(`{"response":{"code":"SUCCESS","messages":[],"data":`+body+`}}`)), nil
}

// translatedBody fakes the translated JSON Smartling returns for a source file URI.
func translatedBody(uri, slLocale string) string {
	var id int64
	switch {
	case strings.HasPrefix(uri, "article_"):
		fmt.Sscanf(uri, "article_%d.json", &id)
		return fmt.Sprintf(`{"id":%d,"title":"Titre %d (%s)","body":"<p>Voir <a href=\"/hc/en-us/articles/%d\">ici</a></p><img src=\"/hc/article_attachments/1/shot_en-us.png\">","draft":false}`, id, id, slLocale, id)
	case strings.HasPrefix(uri, "section_"):
		fmt.Sscanf(uri, "section_%d.json", &id)
	default:
		fmt.Sscanf(uri, "category_%d.json", &id)
	}
	return fmt.Sprintf(`{"id":%d,"name":"Nom %d","description":"Description %s"}`, id, id, slLocale)
}

func mustItem(raw string) zendesk.Item {
	var item zendesk.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		panic(err)
	}
	return item
}

func article(id int64, draft bool) zendesk.Item {
	return mustItem(fmt.Sprintf(`{"id":%d,"draft":%t,"title":"Article %d","body":"<p>Body %d</p>"}`, id, draft, id, id))
}

func testMapping(t *testing.T) *locale.Mapping {
	t.Helper()

	m, err := locale.NewMapping(map[string]string{"fr": "fr-FR", "de": "de-DE"})
	if err != nil {
		t.Fatalf("new mapping: %v", err)
	}
	return m
}

func filter(include, exclude []int64) config.TransferFilter {
	f := config.TransferFilter{Include: map[int64]struct{}{}, Exclude: map[int64]struct{}{}}
	for _, id := range include {
		f.Include[id] = struct{}{}
	}
	for _, id := range exclude {
		f.Exclude[id] = struct{}{}
	}
	return f
}

func newTestService(t *testing.T, zd *stubZendesk, sl *stubSmartling, f config.TransferFilter) *Service {
	t.Helper()

	dir := t.TempDir()
	svc, err := NewService(zd, sl, Options{
		Locales:        testMapping(t),
		Filter:         f,
		SourceDir:      dir + "/source",
		TranslationDir: dir + "/translations",
		Approve:        true,
		Logger:         zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func uploadedURIs(sl *stubSmartling) []string {
	uris := make([]string, 0, len(sl.uploads))
	for _, data := range sl.uploads {
		uris = append(uris, data.URI)
	}
	return uris
}

func gotURIs(sl *stubSmartling) []string {
	uris := make([]string, 0, len(sl.gets))
	for _, call := range sl.gets {
		uris = append(uris, call.uri+"@"+call.opts.Locale)
	}
	return uris
}
