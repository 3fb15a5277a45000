package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"horse.fit/smartlingzd/internal/reader"
	"horse.fit/smartlingzd/internal/smartling"
	"horse.fit/smartlingzd/internal/zendesk"
)

// Push uploads the selected Zendesk source items to Smartling, one upload per item.
// Types are processed in the order categories, sections, articles.
func (s *Service) Push(ctx context.Context, req Request) (RunStats, error) {
	total := RunStats{}
	for _, itemType := range zendesk.ItemTypes {
		sel := req.Selection(itemType)
		if sel.Empty() {
			continue
		}

		stats, err := s.pushType(ctx, itemType, sel)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Service) pushType(ctx context.Context, itemType zendesk.ItemType, sel Selection) (RunStats, error) {
	stats := RunStats{}
	s.log.Info().Str("item_type", string(itemType)).Str("selection", sel.String()).Msg("transferring source items to smartling")

	if sel.All {
		items, err := s.inventory(ctx, itemType)
		if err != nil {
			return stats, err
		}
		for _, item := range items {
			stats.Total++
			if err := s.pushItem(ctx, itemType, item); err != nil {
				if fatalErr := fatal(err); fatalErr != nil {
					return stats, fatalErr
				}
				s.log.Error().Err(err).Str("item_type", string(itemType)).Int64("id", item.ID).Msg("upload failed")
				stats.Failed++
				continue
			}
			stats.Transferred++
		}
		return stats, nil
	}

	for _, id := range sel.IDs {
		stats.Total++
		item, err := s.zd.ShowItem(ctx, itemType, id)
		if err != nil {
			if fatalErr := fatal(err); fatalErr != nil {
				return stats, fatalErr
			}
			if zendesk.IsNotFound(err) {
				s.log.Warn().Str("item_type", string(itemType)).Int64("id", id).Msg("item not found")
				stats.Skipped++
				continue
			}
			s.log.Error().Err(err).Str("item_type", string(itemType)).Int64("id", id).Msg("fetch source item failed")
			stats.Failed++
			continue
		}

		if err := s.pushItem(ctx, itemType, item); err != nil {
			if fatalErr := fatal(err); fatalErr != nil {
				return stats, fatalErr
			}
			s.log.Error().Err(err).Str("item_type", string(itemType)).Int64("id", id).Msg("upload failed")
			stats.Failed++
			continue
		}
		stats.Transferred++
	}
	return stats, nil
}

// pushItem writes the item as JSON to the source directory and uploads that file.
func (s *Service) pushItem(ctx context.Context, itemType zendesk.ItemType, item zendesk.Item) error {
	name := SourceFileName(itemType, item.ID)

	if s.opts.DryRun {
		return s.reportPush(itemType, item, name)
	}

	if err := writePrettyJSON(filepath.Join(s.opts.SourceDir, name), item.Raw); err != nil {
		return err
	}

	s.log.Info().Str("file", name).Msg("uploading to smartling")
	resp, err := s.sl.Upload(ctx, s.uploadData(itemType, name))
	if err := responseErr(resp, err); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	if result, err := smartling.DecodeUpload(resp); err == nil {
		s.log.Debug().
			Str("file", name).
			Bool("overwritten", result.OverWritten).
			Int("string_count", result.StringCount).
			Int("word_count", result.WordCount).
			Msg("uploaded to smartling")
	}
	return nil
}

func (s *Service) uploadData(itemType zendesk.ItemType, name string) smartling.UploadData {
	approve := s.opts.Approve
	data := smartling.UploadData{
		URI:            name,
		Name:           name,
		Type:           smartling.FileTypeJSON,
		Dir:            s.opts.SourceDir,
		ApproveContent: &approve,
	}
	return data.
		WithDirective("translate_paths", strings.Join(itemType.TranslatedFields(), ",")).
		WithDirective("string_format_paths", "html:body").
		WithDirective("source_key_paths", "title").
		WithDirective("smartling.namespace", "zendesk")
}

func (s *Service) reportPush(itemType zendesk.ItemType, item zendesk.Item, name string) error {
	line := fmt.Sprintf("would upload %s", name)
	if itemType == zendesk.TypeArticle {
		var fields struct {
			Title   string `json:"title"`
			Body    string `json:"body"`
			HTMLURL string `json:"html_url"`
		}
		if err := json.Unmarshal(item.Raw, &fields); err == nil {
			preview, err := reader.Preview(fields.Body, fields.HTMLURL, fields.Title, reader.DefaultPreviewChars)
			if err != nil {
				s.log.Debug().Err(err).Int64("id", item.ID).Msg("article preview failed")
			}
			line = fmt.Sprintf("%s %q: %s", line, fields.Title, strings.ReplaceAll(preview, "\n\n", " / "))
		}
	}
	_, err := fmt.Fprintln(s.opts.Out, line)
	return err
}
