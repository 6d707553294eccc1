package shortener

import "time"

// Code represents a short URL code.
type Code string

// ShortURL is a short link record: a code, its destination and its visit counter.
type ShortURL struct {
	Code        Code
	OriginalURL string
	VisitCount  int64
	CreatedAt   time.Time
}
