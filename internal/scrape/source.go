// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Default listing pages for the built-in sources. Tests point sources at
// httptest servers by constructing them with another URL.
const (
	UniversityStudyURL      = "https://www.universitystudy.ca/scholarships/"
	ScholarshipPositionsURL = "https://scholarship-positions.com/"
)

// Listing is one opportunity found on a source page.
type Listing struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Link        string `json:"link" yaml:"link"`
}

// Source knows where a site lists opportunities and how to read them.
type Source interface {
	// Name identifies the source in records and logs (e.g. "universitystudy.ca").
	Name() string
	// URL is the listing page to fetch.
	URL() string
	// HostCountry is reported on every call from this source.
	HostCountry() string
	// Parse extracts listings from the fetched page.
	Parse(doc *goquery.Document) []Listing
}

// UniversityStudy reads the universitystudy.ca scholarship index, where each
// opportunity is an <article> with an <h2> title and a link.
type UniversityStudy struct {
	PageURL string
}

func (s *UniversityStudy) Name() string        { return "universitystudy.ca" }
func (s *UniversityStudy) URL() string         { return s.PageURL }
func (s *UniversityStudy) HostCountry() string { return "Canada" }

// Parse keeps articles that have both a heading and a link, and whose link
// is absolute. Relative links point at site navigation, not opportunities.
func (s *UniversityStudy) Parse(doc *goquery.Document) []Listing {
	var listings []Listing
	doc.Find("article").Each(func(_ int, article *goquery.Selection) {
		heading := article.Find("h2").First()
		link := article.Find("a").First()
		if heading.Length() == 0 || link.Length() == 0 {
			return
		}

		href, _ := link.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return
		}

		listings = append(listings, Listing{
			Title:       cleanText(heading),
			Description: cleanText(article.Find("p").First()),
			Link:        href,
		})
	})
	return listings
}

// ScholarshipPositions reads the scholarship-positions.com front page, a
// WordPress blog whose post titles are h3.entry-title links.
type ScholarshipPositions struct {
	PageURL string
}

func (s *ScholarshipPositions) Name() string        { return "scholarship-positions.com" }
func (s *ScholarshipPositions) URL() string         { return s.PageURL }
func (s *ScholarshipPositions) HostCountry() string { return "Various" }

// Parse takes every post title link. The post excerpt, when the theme
// renders one, becomes the description.
func (s *ScholarshipPositions) Parse(doc *goquery.Document) []Listing {
	var listings []Listing
	doc.Find("h3.entry-title a").Each(func(_ int, a *goquery.Selection) {
		title := cleanText(a)
		href, _ := a.Attr("href")
		if title == "" || href == "" {
			return
		}

		excerpt := a.Closest("article").Find(".entry-summary, .entry-content").First()
		listings = append(listings, Listing{
			Title:       title,
			Description: cleanText(excerpt),
			Link:        href,
		})
	})
	return listings
}

// Builtin returns the production sources in their fixed run order.
func Builtin() []Source {
	return []Source{
		&UniversityStudy{PageURL: UniversityStudyURL},
		&ScholarshipPositions{PageURL: ScholarshipPositionsURL},
	}
}

// Select returns the sources whose names are listed, in the order of
// sources. An empty names list selects everything.
func Select(sources []Source, names []string) ([]Source, error) {
	if len(names) == 0 {
		return sources, nil
	}

	byName := make(map[string]Source, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return nil, fmt.Errorf("unknown source %q", n)
		}
		want[n] = true
	}

	var out []Source
	for _, s := range sources {
		if want[s.Name()] {
			out = append(out, s)
		}
	}
	return out, nil
}

// cleanText returns the selection's text with runs of whitespace collapsed.
func cleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
