package types

import (
	"time"
)

// Browser selects the browser a driver session automates
type Browser string

const (
	BrowserUnset   Browser = ""
	BrowserChrome  Browser = "chrome"
	BrowserFirefox Browser = "firefox"
)

// Results contains the tally of a fetch run
type Results struct {
	Total   int
	Success int
	Failure int
}

// Add counts one fetch attempt
func (r *Results) Add(ok bool) {
	r.Total++
	if ok {
		r.Success++
	} else {
		r.Failure++
	}
}

// PageResult contains information about one fetch attempt
type PageResult struct {
	RunID      string    `json:"run_id"`
	URL        string    `json:"url"`
	FinalURL   string    `json:"final_url,omitempty"`
	Host       string    `json:"host"`
	FilePath   string    `json:"file_path,omitempty"`
	Title      string    `json:"title,omitempty"`
	LinkCount  int       `json:"link_count"`
	ImageCount int       `json:"image_count"`
	FetchedAt  time.Time `json:"fetched_at"`
	Error      string    `json:"error,omitempty"`
}

// OK reports whether the attempt succeeded
func (p PageResult) OK() bool {
	return p.Error == ""
}
