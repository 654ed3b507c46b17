package ports

// SizeParser parses human-readable size specs (like "20MB") into bytes.
type SizeParser interface {
	Parse(sizeStr string) (int64, error)
}
