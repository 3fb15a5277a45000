package transfer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"horse.fit/smartlingzd/internal/langdetect"
	"horse.fit/smartlingzd/internal/linkfix"
	"horse.fit/smartlingzd/internal/reader"
	"horse.fit/smartlingzd/internal/smartling"
	"horse.fit/smartlingzd/internal/zendesk"
	payloadschema "horse.fit/smartlingzd/schema"
)

type pullOutcome int

const (
	pulled pullOutcome = iota
	pullSkipped
)

// Pull downloads translations from Smartling and writes them to Zendesk.
// An "all" selection takes the translation-complete files of non-draft, filtered
// source items and always retrieves the published version. Explicit IDs are
// pulled for every requested locale with req.RetrievalType.
func (s *Service) Pull(ctx context.Context, req Request) (RunStats, error) {
	if len(req.Locales) == 0 {
		return RunStats{}, fmt.Errorf("at least one locale is required")
	}

	total := RunStats{}
	for _, itemType := range zendesk.ItemTypes {
		sel := req.Selection(itemType)
		if sel.Empty() {
			continue
		}

		var (
			stats RunStats
			err   error
		)
		if sel.All {
			stats, err = s.pullAll(ctx, itemType, req.Locales)
		} else {
			stats, err = s.pullIDs(ctx, itemType, sel.IDs, req.Locales, req.RetrievalType)
		}
		total.add(stats)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Service) pullIDs(ctx context.Context, itemType zendesk.ItemType, ids []int64, zdLocales []string, retrievalType string) (RunStats, error) {
	stats := RunStats{}
	if retrievalType == "" {
		retrievalType = smartling.RetrievalPublished
	}
	s.log.Info().Str("item_type", string(itemType)).Int("items", len(ids)).Msg("transferring translations from smartling")

	for _, id := range ids {
		for _, zdLocale := range zdLocales {
			if err := s.pullCounted(ctx, &stats, itemType, id, zdLocale, retrievalType); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (s *Service) pullAll(ctx context.Context, itemType zendesk.ItemType, zdLocales []string) (RunStats, error) {
	stats := RunStats{}

	items, err := s.inventory(ctx, itemType)
	if err != nil {
		return stats, err
	}
	wanted := make(map[int64]struct{}, len(items))
	for _, item := range items {
		wanted[item.ID] = struct{}{}
	}

	for _, zdLocale := range zdLocales {
		slLocale, err := s.opts.Locales.Smartling(zdLocale)
		if err != nil {
			return stats, err
		}
		completed, err := s.completedIDs(ctx, itemType, slLocale)
		if err != nil {
			if fatalErr := fatal(err); fatalErr != nil {
				return stats, fatalErr
			}
			s.log.Error().Err(err).
				Str("item_type", string(itemType)).
				Str("locale", slLocale).
				Msg("listing completed files failed")
			stats.Total++
			stats.Failed++
			continue
		}

		for _, id := range completed {
			if _, ok := wanted[id]; !ok {
				continue
			}
			if err := s.pullCounted(ctx, &stats, itemType, id, zdLocale, smartling.RetrievalPublished); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// pullCounted pulls one item and locale and tallies the result. Only errors that
// stop the run are returned.
func (s *Service) pullCounted(ctx context.Context, stats *RunStats, itemType zendesk.ItemType, id int64, zdLocale, retrievalType string) error {
	stats.Total++
	outcome, err := s.pullItem(ctx, itemType, id, zdLocale, retrievalType)
	if err != nil {
		if fatalErr := fatal(err); fatalErr != nil {
			return fatalErr
		}
		s.log.Error().Err(err).
			Str("item_type", string(itemType)).
			Int64("id", id).
			Str("locale", zdLocale).
			Msg("translation transfer failed")
		stats.Failed++
		return nil
	}
	if outcome == pullSkipped {
		stats.Skipped++
		return nil
	}
	stats.Transferred++
	return nil
}

// completedIDs lists the items of a type whose file is fully translated into slLocale.
func (s *Service) completedIDs(ctx context.Context, itemType zendesk.ItemType, slLocale string) ([]int64, error) {
	ids := make([]int64, 0, 64)
	seen := map[int64]struct{}{}
	for offset := 0; ; offset += listPageSize {
		resp, err := s.sl.List(ctx, smartling.ListOptions{
			URIMask:    string(itemType),
			FileTypes:  []string{smartling.FileTypeJSON},
			Locale:     slLocale,
			Conditions: []string{"haveAllTranslated"},
			Offset:     offset,
		})
		if err := responseErr(resp, err); err != nil {
			return nil, err
		}
		page, err := smartling.DecodeList(resp)
		if err != nil {
			return nil, err
		}

		for _, file := range page.FileList {
			id, ok := parseFileURI(itemType, file.FileURI)
			if !ok {
				s.log.Debug().Str("file", file.FileURI).Msg("ignoring file with unexpected uri")
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}

		if len(page.FileList) == 0 || offset+listPageSize >= page.FileCount {
			break
		}
	}
	s.log.Debug().Str("item_type", string(itemType)).Str("locale", slLocale).Int("completed", len(ids)).Msg("listed completed files")
	return ids, nil
}

func (s *Service) pullItem(ctx context.Context, itemType zendesk.ItemType, id int64, zdLocale, retrievalType string) (pullOutcome, error) {
	slLocale, err := s.opts.Locales.Smartling(zdLocale)
	if err != nil {
		return pullSkipped, err
	}
	uri := SourceFileName(itemType, id)
	logger := s.log.With().Str("file", uri).Str("locale", slLocale).Logger()
	logger.Info().Msg("transferring translation from smartling")

	if logger.GetLevel() <= zerolog.DebugLevel {
		s.logLastModified(ctx, &logger, uri, slLocale)
	}

	includeOriginal := true
	resp, err := s.sl.Get(ctx, uri, smartling.GetOptions{
		Locale:                 slLocale,
		RetrievalType:          retrievalType,
		IncludeOriginalStrings: &includeOriginal,
	})
	if err := responseErr(resp, err); err != nil {
		return pullSkipped, fmt.Errorf("download %s: %w", uri, err)
	}

	payload, err := payloadschema.ValidateTranslationPayload(string(itemType), resp.Body)
	if err != nil {
		return pullSkipped, fmt.Errorf("validate %s: %w", uri, err)
	}
	if payload.ID != id {
		return pullSkipped, fmt.Errorf("validate %s: file holds item %d", uri, payload.ID)
	}

	// the locale mapping is injective, so this is the locale we started from
	back, err := s.opts.Locales.Zendesk(slLocale)
	if err != nil {
		return pullSkipped, err
	}

	translation, err := s.buildTranslation(ctx, &logger, itemType, id, back, payload)
	if err != nil {
		return pullSkipped, err
	}

	if s.opts.VerifyLanguage && !s.languageMatches(&logger, itemType, back, payload) {
		return pullSkipped, nil
	}

	if s.opts.DryRun {
		_, err := fmt.Fprintf(s.opts.Out, "would update %s translation %d (%s)\n", itemType, id, back)
		return pulled, err
	}

	path := filepath.Join(s.opts.TranslationDir, TranslationFileName(itemType, id, slLocale))
	if err := writePrettyJSON(path, resp.Body); err != nil {
		return pullSkipped, err
	}

	outcome, err := s.zd.UpsertTranslation(ctx, itemType, id, translation)
	if err != nil {
		return pullSkipped, fmt.Errorf("upload %s translation %d: %w", itemType, id, err)
	}
	if outcome == zendesk.SourceGone {
		logger.Info().Msg("source item gone, skipping translation upload")
		return pullSkipped, nil
	}
	logger.Debug().Str("outcome", outcome.String()).Msg("translation uploaded to zendesk")
	return pulled, nil
}

func (s *Service) buildTranslation(ctx context.Context, logger *zerolog.Logger, itemType zendesk.ItemType, id int64, zdLocale string, payload *payloadschema.Translation) (zendesk.Translation, error) {
	translation := zendesk.Translation{Locale: zdLocale}
	if itemType != zendesk.TypeArticle {
		name := payload.Name
		translation.Name = &name
		translation.Description = payload.Description
		return translation, nil
	}

	title := payload.Title
	draft := payload.Draft
	body := ""
	if payload.Body != nil {
		body = *payload.Body
	}
	translation.Title = &title
	translation.Draft = &draft

	fixed, err := s.localizeLinks(ctx, logger, id, body, zdLocale)
	if err != nil {
		return translation, err
	}
	translation.Body = &fixed
	return translation, nil
}

// localizeLinks rewrites the article links for zdLocale. A missing source article
// leaves the body as downloaded.
func (s *Service) localizeLinks(ctx context.Context, logger *zerolog.Logger, articleID int64, body, zdLocale string) (string, error) {
	logger.Debug().Msg("fixing article links")

	attachments, err := s.zd.ArticleAttachments(ctx, articleID)
	if err != nil {
		if zendesk.IsNotFound(err) {
			logger.Info().Msg("source article gone, skipping link fixing")
			return body, nil
		}
		return body, fmt.Errorf("list attachments of article %d: %w", articleID, err)
	}

	fixed, report, err := linkfix.Localize(body, zdLocale, attachments)
	if err != nil {
		return body, err
	}
	for _, name := range report.MissingImages {
		logger.Warn().Str("image", name).Msg("no localized version of image found")
	}
	logger.Debug().Int("anchors", report.Anchors).Int("images", report.Images).Msg("links localized")
	return fixed, nil
}

func (s *Service) languageMatches(logger *zerolog.Logger, itemType zendesk.ItemType, zdLocale string, payload *payloadschema.Translation) bool {
	text := payload.Name
	if itemType == zendesk.TypeArticle {
		body := ""
		if payload.Body != nil {
			body = *payload.Body
		}
		preview, err := reader.Preview(body, "", payload.Title, 2000)
		if err != nil {
			preview = payload.Title
		}
		text = payload.Title + "\n\n" + preview
	} else if payload.Description != nil {
		text += "\n\n" + *payload.Description
	}

	ok, detected := langdetect.Matches(text, zdLocale)
	if !ok {
		logger.Warn().Str("detected", detected).Msg("translation is not in the target language, skipping")
	}
	return ok
}

func (s *Service) logLastModified(ctx context.Context, logger *zerolog.Logger, uri, slLocale string) {
	resp, err := s.sl.LastModified(ctx, uri, smartling.LastModifiedOptions{Locale: slLocale})
	if err := responseErr(resp, err); err != nil {
		logger.Debug().Err(err).Msg("last modified lookup failed")
		return
	}
	list, err := smartling.DecodeLastModified(resp)
	if err != nil {
		logger.Debug().Err(err).Msg("decode last modified failed")
		return
	}
	for _, item := range list.Items {
		logger.Debug().Str("item_locale", item.Locale).Str("last_modified", item.LastModified).Msg("translation last modified")
	}
}
