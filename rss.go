package folio

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Category    string  `xml:"category"`
	Author      string  `xml:"author,omitempty"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// renderRSS writes the feed of published posts. Links point at the default
// locale.
func (a *App) renderRSS(c echo.Context, posts []content.BlogPost) error {
	base := a.Config.Site.URL
	locale := a.defaultLocale()
	items := make([]rssItem, 0, len(posts))
	var latest time.Time
	for _, p := range posts {
		if p.PublishedAt.After(latest) {
			latest = p.PublishedAt
		}
		link := base + p.Link(string(locale))
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Excerpt,
			Category:    p.Category.Label(),
			Author:      p.Author.Name,
			PubDate:     p.PublishedAt.Format(time.RFC1123Z),
			GUID:        rssGUID{Value: link, IsPermaLink: true},
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Site.Name,
			Link:        base + "/" + string(locale) + "/",
			Description: a.Config.Site.Description,
			Language:    string(locale),
			Items:       items,
		},
	}
	if !latest.IsZero() {
		feed.Channel.LastBuildDate = latest.Format(time.RFC1123Z)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}
