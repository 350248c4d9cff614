package models

import (
	"path"
	"strings"
)

// Format selects the decoder used for a source blob.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

// FormatFromFilename guesses a format from the file extension, defaulting to CSV.
func FormatFromFilename(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".parquet", ".pq":
		return FormatParquet
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Source locates one input blob. Folder is the dated partition picked by the
// latest-folder lookup and is empty until then.
type Source struct {
	Role      string
	Container string
	Path      string
	Folder    string
	File      string
	Format    Format
	// Columns that must be present once the blob is decoded.
	Required []string
}

func (s Source) Dir() string {
	return JoinFolder(s.Path, s.Folder)
}

// Sink locates the output blob. Folder mirrors the input partition.
type Sink struct {
	Container string
	Path      string
	Folder    string
	File      string
}

func (s Sink) Dir() string {
	return JoinFolder(s.Path, s.Folder)
}

// JoinFolder joins a configured path prefix and a partition folder name the
// way store keys are laid out: no leading slash, slash separated.
func JoinFolder(prefix, folder string) string {
	p := path.Join(prefix, folder)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}
