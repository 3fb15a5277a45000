package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/smartlingzd/internal/config"
	"horse.fit/smartlingzd/internal/locale"
	"horse.fit/smartlingzd/internal/smartling"
	"horse.fit/smartlingzd/internal/zendesk"
)

// ErrUnauthorized aborts a run: one of the services rejected the credentials.
var ErrUnauthorized = errors.New("not authorized")

const (
	DefaultSourceDir      = "sourcefromzd"
	DefaultTranslationDir = "translationsfromsl"

	listPageSize = 500
)

// Zendesk is the part of the Help Center client the service uses.
type Zendesk interface {
	ListItems(ctx context.Context, itemType zendesk.ItemType, locale string) ([]zendesk.Item, error)
	ShowItem(ctx context.Context, itemType zendesk.ItemType, id int64) (zendesk.Item, error)
	ArticleAttachments(ctx context.Context, articleID int64) ([]zendesk.Attachment, error)
	UpsertTranslation(ctx context.Context, itemType zendesk.ItemType, id int64, translation zendesk.Translation) (zendesk.UpsertOutcome, error)
}

// Smartling is the part of the Files API client the service uses.
type Smartling interface {
	Upload(ctx context.Context, data smartling.UploadData) (*smartling.Response, error)
	List(ctx context.Context, opts smartling.ListOptions) (*smartling.Response, error)
	LastModified(ctx context.Context, fileURI string, opts smartling.LastModifiedOptions) (*smartling.Response, error)
	Get(ctx context.Context, fileURI string, opts smartling.GetOptions) (*smartling.Response, error)
	Import(ctx context.Context, data smartling.UploadData, locale string, opts smartling.ImportOptions) (*smartling.Response, error)
	Status(ctx context.Context, fileURI, locale string) (*smartling.Response, error)
}

// RunStats reports transfer counters. Total counts item and locale pairs.
type RunStats struct {
	Total       int `json:"total"`
	Transferred int `json:"transferred"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

func (s *RunStats) add(other RunStats) {
	s.Total += other.Total
	s.Transferred += other.Transferred
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

type Options struct {
	Locales *locale.Mapping
	Filter  config.TransferFilter

	SourceDir      string
	TranslationDir string
	Approve        bool

	DryRun         bool
	VerifyLanguage bool

	Logger zerolog.Logger
	// Out receives dry-run reports.
	Out io.Writer
}

// Service moves Help Center content between Zendesk and Smartling.
type Service struct {
	zd   Zendesk
	sl   Smartling
	opts Options
	log  zerolog.Logger
}

func NewService(zd Zendesk, sl Smartling, opts Options) (*Service, error) {
	if zd == nil {
		return nil, fmt.Errorf("zendesk client is required")
	}
	if sl == nil {
		return nil, fmt.Errorf("smartling client is required")
	}
	if opts.Locales == nil {
		return nil, fmt.Errorf("locale mapping is required")
	}
	if strings.TrimSpace(opts.SourceDir) == "" {
		opts.SourceDir = DefaultSourceDir
	}
	if strings.TrimSpace(opts.TranslationDir) == "" {
		opts.TranslationDir = DefaultTranslationDir
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Service{zd: zd, sl: sl, opts: opts, log: opts.Logger}, nil
}

// PrepareSourceDir empties the directory of source files written by a push.
// Downloaded translations are kept for a later import.
func (s *Service) PrepareSourceDir() error {
	return resetDir(s.opts.SourceDir)
}

// PrepareTranslationDir empties the directory of translations written by a pull.
func (s *Service) PrepareTranslationDir() error {
	return resetDir(s.opts.TranslationDir)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clean %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// inventory lists every source item of a type. Articles are narrowed by the
// transfer filter and drafts are dropped.
func (s *Service) inventory(ctx context.Context, itemType zendesk.ItemType) ([]zendesk.Item, error) {
	s.log.Info().Str("item_type", string(itemType)).Msg("listing source items in zendesk")

	items, err := s.zd.ListItems(ctx, itemType, locale.ZendeskSource)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", itemType.Plural(), err)
	}
	if itemType != zendesk.TypeArticle {
		return items, nil
	}

	kept := make([]zendesk.Item, 0, len(items))
	for _, item := range items {
		if item.Draft {
			s.log.Info().Int64("id", item.ID).Msg("skipping draft article")
			continue
		}
		if !s.opts.Filter.Allows(item.ID) {
			s.log.Info().Int64("id", item.ID).Msg("skipping article due to transfer config")
			continue
		}
		kept = append(kept, item)
	}
	s.log.Info().Int("listed", len(items)).Int("kept", len(kept)).Msg("filtered source articles")
	return kept, nil
}

// fatal returns the error that must stop the run, or nil when err only fails one item.
func fatal(err error) error {
	if err == nil {
		return nil
	}
	if zendesk.IsUnauthorized(err) || smartling.IsUnauthorized(err) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// responseErr folds a transport error and an unsuccessful response into one error.
func responseErr(resp *smartling.Response, err error) error {
	if err != nil {
		return err
	}
	return resp.Err()
}

// writePrettyJSON writes raw with sorted keys and four-space indentation.
func writePrettyJSON(path string, raw []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	var out bytes.Buffer
	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
