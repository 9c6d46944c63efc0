package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"
)

// FetchURL downloads a single page and returns its readable text content.
// Only http/https URLs are accepted; no links are followed.
func FetchURL(rawURL string, timeout time.Duration) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: not a valid http(s) url", ErrUnsupportedFormat)
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	c.SetRequestTimeout(timeout)

	var (
		content  string
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		body := r.Body

		// Some sites ignore Accept-Encoding and hand back brotli anyway.
		if strings.Contains(r.Headers.Get("Content-Encoding"), "br") {
			decompressed, err := decompressBrotli(body)
			if err != nil {
				fetchErr = fmt.Errorf("failed to decompress response: %w", err)
				return
			}
			body = decompressed
		}

		reader, err := charset.NewReader(bytes.NewReader(body), r.Headers.Get("Content-Type"))
		if err != nil {
			reader = bytes.NewReader(body)
		}

		doc, err := goquery.NewDocumentFromReader(reader)
		if err != nil {
			fetchErr = fmt.Errorf("failed to parse html: %w", err)
			return
		}
		content = extractMainContent(doc)
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	})

	if err := c.Visit(rawURL); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", rawURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	if strings.TrimSpace(content) == "" {
		slog.Warn("no readable content extracted", "url", rawURL)
		return "", errors.New("no readable content on page")
	}
	return content, nil
}

func decompressBrotli(data []byte) ([]byte, error) {
	reader := brotli.NewReader(bytes.NewReader(data))
	var out bytes.Buffer
	if _, err := out.ReadFrom(reader); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// extractMainContent strips chrome elements and returns the text of the
// first content region that looks substantial.
func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside, .nav, .navbar, .footer, .header, .sidebar, .menu, .advertisement, .ads").Remove()

	selectors := []string{"main", "article", "[role='main']", ".content", ".main-content", "#content", "#main", "body"}
	for _, sel := range selectors {
		if text := cleanText(doc.Find(sel).First().Text()); len(text) > 100 {
			return text
		}
	}
	return cleanText(doc.Find("body").Text())
}

func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
