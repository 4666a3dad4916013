package domain

import "strings"

// Source is one employer career board.
type Source struct {
	Name    string `yaml:"name" validate:"required"`
	BaseURL string `yaml:"url" validate:"required,url"`
}

// SearchURL is the board listing filtered by term.
func (s Source) SearchURL(term string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/jobs?job_name=" + queryEscape(term)
}
