package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/BartekS5/metrics-etl/pkg/logger"
)

// FolderLayouts are the partition folder names recognised as dates, most
// specific first.
var FolderLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
	"2006-01",
	"200601",
	"2006",
}

// ParseFolderDate parses a partition folder name as a date.
func ParseFolderDate(name string) (time.Time, bool) {
	for _, layout := range FolderLayouts {
		if t, err := time.Parse(layout, name); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LatestFolder returns the subfolder of prefix whose name is the most recent
// date. Names that are not dates are skipped. Equal dates written in different
// layouts resolve to the lexically greater name.
func LatestFolder(ctx context.Context, lister Lister, container, prefix string) (string, error) {
	folders, err := lister.ListFolders(ctx, container, prefix)
	if err != nil {
		return "", err
	}

	var (
		latest     string
		latestTime time.Time
		found      bool
	)
	for _, name := range folders {
		t, ok := ParseFolderDate(name)
		if !ok {
			logger.Warnf("Skipping folder %q under %s/%s: name is not a date", name, container, prefix)
			continue
		}
		if !found || t.After(latestTime) || (t.Equal(latestTime) && name > latest) {
			latest, latestTime, found = name, t, true
		}
	}

	if !found {
		return "", fmt.Errorf("%s/%s: %w", container, prefix, ErrNoFolder)
	}
	return latest, nil
}
