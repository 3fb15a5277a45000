package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	// DefaultTransferPath is the optional file holding article include/exclude lists.
	DefaultTransferPath = "translate.cfg"

	sectionIncludeArticles = "include-articles"
	sectionExcludeArticles = "exclude-articles"
)

// TransferFilter restricts which articles an "all" selection transfers.
// An empty Include means every article; an empty Exclude means none.
type TransferFilter struct {
	Include map[int64]struct{}
	Exclude map[int64]struct{}
}

// LoadTransferFilter reads the include/exclude article lists. A missing file yields an empty filter.
func LoadTransferFilter(path string) (TransferFilter, error) {
	filter := TransferFilter{
		Include: map[int64]struct{}{},
		Exclude: map[int64]struct{}{},
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultTransferPath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filter, nil
		}
		return filter, fmt.Errorf("%w in %s: %v", ErrConfig, path, err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, path)
	if err != nil {
		return filter, fmt.Errorf("%w in %s: %v", ErrConfig, path, err)
	}

	for _, sec := range file.Sections() {
		var target map[int64]struct{}
		switch sec.Name() {
		case ini.DefaultSection:
			if len(sec.Keys()) > 0 {
				return filter, fmt.Errorf("%w in %s: entries must be inside a section", ErrConfig, path)
			}
			continue
		case sectionIncludeArticles:
			target = filter.Include
		case sectionExcludeArticles:
			target = filter.Exclude
		default:
			return filter, fmt.Errorf("%w: invalid section in %s: %s", ErrConfig, path, sec.Name())
		}

		for _, key := range sec.Keys() {
			id, err := strconv.ParseInt(strings.TrimSpace(key.Name()), 10, 64)
			if err != nil || id <= 0 {
				return filter, fmt.Errorf("%w: invalid entry in %s: %s", ErrConfig, path, key.Name())
			}
			target[id] = struct{}{}
		}
	}

	return filter, nil
}

// Allows reports whether an article passes the include and exclude lists.
func (f TransferFilter) Allows(id int64) bool {
	if _, excluded := f.Exclude[id]; excluded {
		return false
	}
	if len(f.Include) == 0 {
		return true
	}
	_, included := f.Include[id]
	return included
}

func (f TransferFilter) IsEmpty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

func (f TransferFilter) IncludeIDs() []int64 {
	return sortedIDs(f.Include)
}

func (f TransferFilter) ExcludeIDs() []int64 {
	return sortedIDs(f.Exclude)
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
