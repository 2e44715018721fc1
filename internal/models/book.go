package models

import "strings"

// Person is an author entry as reported by the catalogue.
type Person struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year,omitempty"`
	DeathYear *int   `json:"death_year,omitempty"`
}

// Book represents a single catalogue record. Values are kept verbatim from the API.
type Book struct {
	ID            int               `json:"id"`
	Title         string            `json:"title"`
	Authors       []Person          `json:"authors"`
	Subjects      []string          `json:"subjects,omitempty"`
	Bookshelves   []string          `json:"bookshelves,omitempty"`
	Languages     []string          `json:"languages,omitempty"`
	Copyright     *bool             `json:"copyright,omitempty"`
	MediaType     string            `json:"media_type,omitempty"`
	Formats       map[string]string `json:"formats"`
	DownloadCount int               `json:"download_count,omitempty"`
}

// Format keys used by the presentation layer.
const (
	FormatCover = "image/jpeg"
	FormatHTML  = "text/html"
)

// AuthorNames joins author names in catalogue order.
func (b Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, "; ")
}

// CoverURL returns the cover image link, or "" when the book has none.
func (b Book) CoverURL() string {
	return b.Formats[FormatCover]
}

// ReadURL returns the HTML edition link, or "" when the book has none.
func (b Book) ReadURL() string {
	return b.Formats[FormatHTML]
}
