// Package feed ingests the torrent-release RSS feed and turns release
// titles into show announcements.
package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"streamdex/models"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; streamdex/1.0)"
)

// titlePattern recognizes the two release-naming conventions the feed
// uses: "<name> Season N Episode M" and "<name> SNEM".
var titlePattern = regexp.MustCompile(`(?i)^(.*?)(?: Season (\d+) Episode (\d+)| S(\d+)E(\d+))`)

// languageMarkers are the non-English tokens that reject a release when
// "english" is absent from its title.
var languageMarkers = regexp.MustCompile(`(?i)\b(spanish|french|german|italian|russian|korean|japanese)\b`)

// Ingestor fetches and parses the release feed.
type Ingestor struct {
	feedURL string
	parser  *gofeed.Parser
	httpc   *http.Client
}

// NewIngestor constructs an ingestor for the given feed URL. A nil
// client gets a default with a request timeout.
func NewIngestor(feedURL string, httpc *http.Client) *Ingestor {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Ingestor{
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
		httpc:   httpc,
	}
}

// ParseTitle extracts the show name from a release title. The second
// return is false when the title matches neither naming convention.
func ParseTitle(raw string) (string, bool) {
	m := titlePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", false
	}
	return name, true
}

// KeepLanguage reports whether a release title passes the language
// heuristic: an explicit "english" token always keeps it, otherwise it
// is kept unless a known non-English marker appears. Titles with no
// language marker at all are presumptively English.
func KeepLanguage(raw string) bool {
	if strings.Contains(strings.ToLower(raw), "english") {
		return true
	}
	return !languageMarkers.MatchString(raw)
}

// FetchCandidates fetches the feed and returns one announcement per
// entry whose title matches an episode naming convention and passes the
// language filter. Entries matching neither pattern are dropped
// silently; naming drift in the feed is expected, not an error. No
// deduplication happens here.
func (in *Ingestor) FetchCandidates(ctx context.Context) ([]models.Announcement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := in.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	parsed, err := in.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	announcements := make([]models.Announcement, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		name, ok := ParseTitle(item.Title)
		if !ok {
			continue
		}
		if !KeepLanguage(item.Title) {
			continue
		}
		a := models.Announcement{
			RawTitle: item.Title,
			ShowName: name,
			Link:     item.Link,
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		announcements = append(announcements, a)
	}

	log.Printf("[feed] parsed %d announcements from %d feed entries", len(announcements), len(parsed.Items))
	return announcements, nil
}
