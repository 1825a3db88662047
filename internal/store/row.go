// Package store implements the append-only columnar fact table (component
// I): one MetricRow per (revision, path, path_type) triple, persisted as a
// parquet file with LZ4 block compression.
package store

// PathType enumerates the five row kinds spec.md §3 allows.
type PathType string

const (
	PathTypeRoot      PathType = "root"
	PathTypeDirectory PathType = "directory"
	PathTypeFile      PathType = "file"
	PathTypeFunction  PathType = "function"
	PathTypeClass     PathType = "class"
)

// MetricRow is the store's physical record. All fields past the first six
// are nullable; which ones are populated is governed by PathType per
// spec.md §3's nullability table.
type MetricRow struct {
	Revision        string  `parquet:"revision,lz4_raw"`
	RevisionDate    int64   `parquet:"revision_date,lz4_raw"`
	RevisionAuthor  *string `parquet:"revision_author,optional,lz4_raw"`
	RevisionMessage *string `parquet:"revision_message,optional,lz4_raw"`
	Path            string  `parquet:"path,lz4_raw"`
	PathType        string  `parquet:"path_type,lz4_raw"`

	LOC            *int64 `parquet:"loc,optional,lz4_raw"`
	SLOC           *int64 `parquet:"sloc,optional,lz4_raw"`
	LLOC           *int64 `parquet:"lloc,optional,lz4_raw"`
	Comments       *int64 `parquet:"comments,optional,lz4_raw"`
	Multi          *int64 `parquet:"multi,optional,lz4_raw"`
	Blank          *int64 `parquet:"blank,optional,lz4_raw"`
	SingleComments *int64 `parquet:"single_comments,optional,lz4_raw"`

	Complexity     *float64 `parquet:"complexity,optional,lz4_raw"`
	RealComplexity *int64   `parquet:"real_complexity,optional,lz4_raw"`

	H1         *int64   `parquet:"h1,optional,lz4_raw"`
	H2         *int64   `parquet:"h2,optional,lz4_raw"`
	N1         *int64   `parquet:"n1,optional,lz4_raw"`
	N2         *int64   `parquet:"n2,optional,lz4_raw"`
	Vocabulary *int64   `parquet:"vocabulary,optional,lz4_raw"`
	Length     *int64   `parquet:"length,optional,lz4_raw"`
	Volume     *float64 `parquet:"volume,optional,lz4_raw"`
	Difficulty *float64 `parquet:"difficulty,optional,lz4_raw"`
	Effort     *float64 `parquet:"effort,optional,lz4_raw"`

	MI   *float64 `parquet:"mi,optional,lz4_raw"`
	Rank *string  `parquet:"rank,optional,lz4_raw"`

	LineNo    *int64  `parquet:"lineno,optional,lz4_raw"`
	EndLine   *int64  `parquet:"endline,optional,lz4_raw"`
	IsMethod  *bool   `parquet:"is_method,optional,lz4_raw"`
	ClassName *string `parquet:"classname,optional,lz4_raw"`
}
