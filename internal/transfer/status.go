package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"horse.fit/smartlingzd/internal/smartling"
	"horse.fit/smartlingzd/internal/zendesk"
)

// StatusRow is the translation progress of one item in one locale.
type StatusRow struct {
	ItemType        zendesk.ItemType
	ID              int64
	ZendeskLocale   string
	SmartlingLocale string
	Strings         int
	Completed       int
	Words           int
	Err             error

	complete bool
}

func (r StatusRow) Complete() bool {
	return r.Err == nil && r.complete
}

// Status reports translation progress for explicit item IDs in each locale.
func (s *Service) Status(ctx context.Context, req Request) ([]StatusRow, RunStats, error) {
	stats := RunStats{}
	rows := make([]StatusRow, 0, 16)
	if len(req.Locales) == 0 {
		return rows, stats, fmt.Errorf("at least one locale is required")
	}

	err := s.eachExplicit(req, func(itemType zendesk.ItemType, id int64, zdLocale, slLocale string) error {
		stats.Total++
		row := StatusRow{ItemType: itemType, ID: id, ZendeskLocale: zdLocale, SmartlingLocale: slLocale}

		resp, err := s.sl.Status(ctx, SourceFileName(itemType, id), slLocale)
		if err := responseErr(resp, err); err != nil {
			if fatalErr := fatal(err); fatalErr != nil {
				return fatalErr
			}
			row.Err = err
			rows = append(rows, row)
			stats.Failed++
			s.log.Error().Err(err).Str("item_type", string(itemType)).Int64("id", id).Str("locale", slLocale).Msg("status failed")
			return nil
		}

		status, err := smartling.DecodeStatus(resp)
		if err != nil {
			row.Err = err
			rows = append(rows, row)
			stats.Failed++
			return nil
		}
		row.Strings = status.StringCount
		row.Completed = status.CompletedStringCount
		row.Words = status.WordCount
		row.complete = status.Complete()
		rows = append(rows, row)
		stats.Transferred++
		return nil
	})
	return rows, stats, err
}

// Import sends previously downloaded translation files back to Smartling,
// overwriting the published translation.
func (s *Service) Import(ctx context.Context, req Request) (RunStats, error) {
	stats := RunStats{}
	if len(req.Locales) == 0 {
		return stats, fmt.Errorf("at least one locale is required")
	}

	err := s.eachExplicit(req, func(itemType zendesk.ItemType, id int64, zdLocale, slLocale string) error {
		stats.Total++
		uri := SourceFileName(itemType, id)
		name := TranslationFileName(itemType, id, slLocale)
		logger := s.log.With().Str("file", name).Str("locale", slLocale).Logger()

		if _, err := os.Stat(filepath.Join(s.opts.TranslationDir, name)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn().Msg("no translation file to import")
				stats.Skipped++
				return nil
			}
			logger.Error().Err(err).Msg("import failed")
			stats.Failed++
			return nil
		}

		if s.opts.DryRun {
			if _, err := fmt.Fprintf(s.opts.Out, "would import %s as %s\n", name, uri); err != nil {
				return err
			}
			stats.Transferred++
			return nil
		}

		logger.Info().Msg("importing translation into smartling")
		resp, err := s.sl.Import(ctx, smartling.UploadData{
			URI:  uri,
			Name: name,
			Type: smartling.FileTypeJSON,
			Dir:  s.opts.TranslationDir,
		}, slLocale, smartling.ImportOptions{
			Overwrite:        true,
			TranslationState: smartling.TranslationStatePublished,
		})
		if err := responseErr(resp, err); err != nil {
			if fatalErr := fatal(err); fatalErr != nil {
				return fatalErr
			}
			logger.Error().Err(err).Msg("import failed")
			stats.Failed++
			return nil
		}
		stats.Transferred++
		return nil
	})
	return stats, err
}

// eachExplicit calls fn for every explicit ID and locale, in type order.
// "all" selections are rejected.
func (s *Service) eachExplicit(req Request, fn func(itemType zendesk.ItemType, id int64, zdLocale, slLocale string) error) error {
	for _, itemType := range zendesk.ItemTypes {
		sel := req.Selection(itemType)
		if sel.All {
			return fmt.Errorf("%s: \"all\" is not supported here, list ids explicitly", itemType.Plural())
		}
		for _, id := range sel.IDs {
			for _, zdLocale := range req.Locales {
				slLocale, err := s.opts.Locales.Smartling(zdLocale)
				if err != nil {
					return err
				}
				if err := fn(itemType, id, zdLocale, slLocale); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
