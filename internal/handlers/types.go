package handlers

import "time"

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		OriginalURL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"originalUrl,omitempty"`
		CustomCode  string `doc:"Optional code to use instead of a generated one" example:"launch" json:"customCode,omitempty"`
	}
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		Message     string `doc:"Outcome message"    example:"Short URL created successfully"     json:"message"`
		ShortURL    string `doc:"The full short URL" example:"http://ScaleURL/abc123"             json:"shortUrl"`
		ShortCode   string `doc:"The short code"     example:"abc123"                             json:"shortCode"`
		OriginalURL string `doc:"The original URL"   example:"https://example.com/very/long/path" json:"originalUrl"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The original URL" header:"Location"`
}

// AnalyticsRequest is the request for the analytics of a single code.
type AnalyticsRequest struct {
	ShortCode string `doc:"The short code" example:"abc123" path:"shortCode"`
}

// URLAnalytics is the public view of a short link record.
type URLAnalytics struct {
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	VisitCount  int64     `json:"visitCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AnalyticsResponse is the response for the analytics of a single code.
type AnalyticsResponse struct {
	Body struct {
		Success   bool         `json:"success"`
		Analytics URLAnalytics `json:"analytics"`
	}
}

// TopURLsRequest is the request for the most visited codes in a time range.
type TopURLsRequest struct {
	Range string `doc:"Creation time range: today, week or month" example:"week" path:"range"`
	Limit int    `default:"10" doc:"Maximum number of results" maximum:"100" minimum:"1" query:"limit"`
}

// TopURLsResponse is the response for the most visited codes in a time range.
type TopURLsResponse struct {
	Body struct {
		Success bool           `json:"success"`
		Count   int            `json:"count"`
		TopURLs []URLAnalytics `json:"topUrls"`
	}
}
