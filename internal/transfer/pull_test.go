package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"horse.fit/smartlingzd/internal/smartling"
	"horse.fit/smartlingzd/internal/zendesk"
)

func TestPullAllTakesCompletedNonDraftFilteredItems(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.items[zendesk.TypeArticle] = []zendesk.Item{
		article(1, false),
		article(2, true),
		article(3, false),
		article(4, false),
	}
	sl := newStubSmartling()
	sl.completed["fr-FR"] = []string{"article_1.json", "article_2.json", "article_3.json", "article_5.json", "article_1_v2.json"}
	svc := newTestService(t, zd, sl, filter(nil, []int64{3}))

	stats, err := svc.Pull(context.Background(), Request{
		Articles:      Selection{All: true},
		Locales:       []string{"fr"},
		RetrievalType: smartling.RetrievalPending,
	})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}

	if got := strings.Join(gotURIs(sl), ","); got != "article_1.json@fr-FR" {
		t.Fatalf("unexpected downloads: %s", got)
	}
	if sl.gets[0].opts.RetrievalType != smartling.RetrievalPublished {
		t.Fatalf("expected all-pull to force published, got %q", sl.gets[0].opts.RetrievalType)
	}
	if opts := sl.gets[0].opts; opts.IncludeOriginalStrings == nil || !*opts.IncludeOriginalStrings {
		t.Fatalf("expected original strings to be requested")
	}
	list := sl.lists[0]
	if list.URIMask != "article" || list.Locale != "fr-FR" || list.Conditions[0] != "haveAllTranslated" || list.FileTypes[0] != "json" {
		t.Fatalf("unexpected list options: %+v", list)
	}
	if stats.Total != 1 || stats.Transferred != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPullExplicitIDsIncludeDraftsAndUseRetrievalType(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.items[zendesk.TypeArticle] = []zendesk.Item{article(2, true)}
	sl := newStubSmartling()
	svc := newTestService(t, zd, sl, filter([]int64{99}, []int64{2}))

	stats, err := svc.Pull(context.Background(), Request{
		Articles:      Selection{IDs: []int64{2, 4}},
		Locales:       []string{"fr", "de"},
		RetrievalType: smartling.RetrievalPending,
	})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}

	want := "article_2.json@fr-FR,article_2.json@de-DE,article_4.json@fr-FR,article_4.json@de-DE"
	if got := strings.Join(gotURIs(sl), ","); got != want {
		t.Fatalf("unexpected downloads:\n got: %s\nwant: %s", got, want)
	}
	for _, call := range sl.gets {
		if call.opts.RetrievalType != smartling.RetrievalPending {
			t.Fatalf("expected requested retrieval type, got %q", call.opts.RetrievalType)
		}
	}
	if len(zd.listCalls) != 0 || len(sl.lists) != 0 {
		t.Fatalf("explicit ids must not list inventory or completed files")
	}
	if stats.Transferred != 4 || len(zd.upserts) != 4 {
		t.Fatalf("unexpected stats %+v upserts=%d", stats, len(zd.upserts))
	}
}

func TestPullBuildsArticleTranslationWithLocalizedLinks(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.attachments[7] = []zendesk.Attachment{{ID: 70, FileName: "shot_fr.png", ContentURL: "https://cdn.example.com/70/shot_fr.png"}}
	sl := newStubSmartling()
	svc := newTestService(t, zd, sl, filter(nil, nil))

	if _, err := svc.Pull(context.Background(), Request{Articles: Selection{IDs: []int64{7}}, Locales: []string{"fr"}}); err != nil {
		t.Fatalf("pull: %v", err)
	}

	if len(zd.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(zd.upserts))
	}
	call := zd.upserts[0]
	tr := call.translation
	if call.itemType != zendesk.TypeArticle || call.id != 7 || tr.Locale != "fr" {
		t.Fatalf("unexpected upsert target: %+v", call)
	}
	if tr.Title == nil || *tr.Title != "Titre 7 (fr-FR)" || tr.Draft == nil || *tr.Draft {
		t.Fatalf("unexpected article fields: %+v", tr)
	}
	if tr.Body == nil || !strings.Contains(*tr.Body, `href="/hc/fr/articles/7"`) || !strings.Contains(*tr.Body, `src="https://cdn.example.com/70/shot_fr.png"`) {
		t.Fatalf("expected localized links, got %v", tr.Body)
	}
	if tr.Name != nil || tr.Description != nil {
		t.Fatalf("article translation must not carry name or description")
	}

	raw, err := os.ReadFile(filepath.Join(svc.opts.TranslationDir, "article_7_fr-FR.json"))
	if err != nil {
		t.Fatalf("read translation file: %v", err)
	}
	if !strings.Contains(string(raw), `"title": "Titre 7 (fr-FR)"`) {
		t.Fatalf("unexpected translation file:\n%s", raw)
	}
}

func TestPullSectionTranslation(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	sl := newStubSmartling()
	svc := newTestService(t, zd, sl, filter(nil, nil))

	if _, err := svc.Pull(context.Background(), Request{Sections: Selection{IDs: []int64{5}}, Locales: []string{"de"}}); err != nil {
		t.Fatalf("pull: %v", err)
	}
	tr := zd.upserts[0].translation
	if tr.Locale != "de" || tr.Name == nil || *tr.Name != "Nom 5" || tr.Description == nil || *tr.Description != "Description de-DE" {
		t.Fatalf("unexpected section translation: %+v", tr)
	}
	if tr.Title != nil || tr.Body != nil || tr.Draft != nil {
		t.Fatalf("section translation must not carry article fields")
	}
}

func TestPullSkipsLinkFixingWhenArticleGone(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.attachmentsErr = &zendesk.APIError{StatusCode: http.StatusNotFound}
	sl := newStubSmartling()
	svc := newTestService(t, zd, sl, filter(nil, nil))

	if _, err := svc.Pull(context.Background(), Request{Articles: Selection{IDs: []int64{7}}, Locales: []string{"fr"}}); err != nil {
		t.Fatalf("pull: %v", err)
	}
	body := *zd.upserts[0].translation.Body
	if !strings.Contains(body, `href="/hc/en-us/articles/7"`) {
		t.Fatalf("expected body unchanged, got %s", body)
	}
}

func TestPullSourceGoneIsSkipped(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.upsertOutcome = zendesk.SourceGone
	sl := newStubSmartling()
	svc := newTestService(t, zd, sl, filter(nil, nil))

	stats, err := svc.Pull(context.Background(), Request{Categories: Selection{IDs: []int64{3}}, Locales: []string{"fr"}})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if stats.Skipped != 1 || stats.Transferred != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPullAllContinuesAfterFailedLocaleListing(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.items[zendesk.TypeArticle] = []zendesk.Item{article(1, false)}
	sl := newStubSmartling()
	sl.listStatus["de-DE"] = http.StatusInternalServerError
	sl.completed["fr-FR"] = []string{"article_1.json"}
	svc := newTestService(t, zd, sl, filter(nil, nil))

	stats, err := svc.Pull(context.Background(), Request{
		Articles: Selection{All: true},
		Locales:  []string{"de", "fr"},
	})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if got := strings.Join(gotURIs(sl), ","); got != "article_1.json@fr-FR" {
		t.Fatalf("expected the next locale to be pulled, got %s", got)
	}
	if stats.Total != 2 || stats.Failed != 1 || stats.Transferred != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPullAllStopsOnUnauthorizedListing(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.items[zendesk.TypeArticle] = []zendesk.Item{article(1, false)}
	sl := newStubSmartling()
	sl.listStatus["de-DE"] = http.StatusUnauthorized
	sl.completed["fr-FR"] = []string{"article_1.json"}
	svc := newTestService(t, zd, sl, filter(nil, nil))

	_, err := svc.Pull(context.Background(), Request{
		Articles: Selection{All: true},
		Locales:  []string{"de", "fr"},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(sl.gets) != 0 {
		t.Fatalf("expected no downloads after rejected listing")
	}
}

func TestPullStopsOnUnauthorizedDownload(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	sl := newStubSmartling()
	sl.getStatus = http.StatusUnauthorized
	svc := newTestService(t, zd, sl, filter(nil, nil))

	_, err := svc.Pull(context.Background(), Request{Articles: Selection{IDs: []int64{1, 2}}, Locales: []string{"fr"}})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(sl.gets) != 1 || len(zd.upserts) != 0 {
		t.Fatalf("expected run to stop after first rejection")
	}
}

func TestPullCountsZendeskFailures(t *testing.T) {
	t.Parallel()

	zd := newStubZendesk()
	zd.upsertErr = &zendesk.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "invalid"}
	sl := newStubSmartling()
	svc := newTestService(t, zd, sl, filter(nil, nil))

	stats, err := svc.Pull(context.Background(), Request{Sections: Selection{IDs: []int64{1, 2}}, Locales: []string{"fr"}})
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if stats.Failed != 2 || stats.Total != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCompletedIDsFollowsPages(t *testing.T) {
	t.Parallel()

	uris := make([]string, 0, 501)
	for i := 1; i <= 501; i++ {
		uris = append(uris, fmt.Sprintf("article_%d.json", i))
	}
	sl := newStubSmartling()
	sl.completed["de-DE"] = uris
	svc := newTestService(t, newStubZendesk(), sl, filter(nil, nil))

	ids, err := svc.completedIDs(context.Background(), zendesk.TypeArticle, "de-DE")
	if err != nil {
		t.Fatalf("completed ids: %v", err)
	}
	if len(ids) != 501 || ids[500] != 501 {
		t.Fatalf("expected 501 ids across pages, got %d", len(ids))
	}
	if len(sl.lists) != 2 || sl.lists[0].Offset != 0 || sl.lists[1].Offset != 500 {
		t.Fatalf("unexpected list calls: %+v", sl.lists)
	}
}

func TestPullRequiresLocales(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubZendesk(), newStubSmartling(), filter(nil, nil))
	if _, err := svc.Pull(context.Background(), Request{Articles: Selection{IDs: []int64{1}}}); err == nil {
		t.Fatalf("expected missing locales to fail")
	}
}
