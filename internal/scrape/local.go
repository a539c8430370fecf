package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; InstitutionResearch/1.0)"
	defaultMaxBytes  = 512 * 1024
	minPageText      = 20
)

// LocalOption configures a LocalScraper.
type LocalOption func(*LocalScraper)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) LocalOption {
	return func(l *LocalScraper) { l.userAgent = ua }
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) LocalOption {
	return func(l *LocalScraper) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithLocalHTTPClient replaces the HTTP client.
func WithLocalHTTPClient(hc *http.Client) LocalOption {
	return func(l *LocalScraper) { l.client = hc }
}

// LocalScraper fetches HTML directly and reduces it to readable text plus the
// page's careers links. It needs no API key and sits last in the chain.
type LocalScraper struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewLocalScraper creates a LocalScraper.
func NewLocalScraper(opts ...LocalOption) *LocalScraper {
	l := &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: defaultUserAgent,
		maxBytes:  defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches targetURL. Blocked pages, HTTP errors and pages without
// readable text are errors so the chain can move on.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	final := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: parse html")
	}
	page := readPage(doc, final)
	if len(page.text) < minPageText {
		return nil, eris.New("local_http: empty page")
	}

	markdown := page.text
	if len(page.careers) > 0 {
		markdown += "\n\nCareers links:\n- " + strings.Join(page.careers, "\n- ")
	}

	p := Page{
		URL:        targetURL,
		Title:      page.title,
		Markdown:   markdown,
		StatusCode: resp.StatusCode,
	}
	if final != targetURL {
		p.FinalURL = final
	}
	return &Result{Page: p, Source: "local_http"}, nil
}

// careersRe matches link text or paths that point at job listings, in the
// languages the research usually targets.
var careersRe = regexp.MustCompile(`(?i)\b(careers?|jobs?|vacanc(y|ies)|vacatures?|werken(-| )bij|werken|karriere|stellen(angebote)?|emplois?|carri[eè]res?|join[- ]us|work[- ]with[- ]us)\b`)

var (
	spaceRe      = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n(\s*\n)+`)
)

type readable struct {
	title   string
	text    string
	careers []string
}

// readPage walks doc collecting the title, the body text without page chrome,
// and absolute URLs of links that look like careers pages.
func readPage(doc *html.Node, base string) readable {
	var (
		out  readable
		sb   strings.Builder
		seen = map[string]bool{}
	)
	baseURL, _ := url.Parse(base)

	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		if depth > 100 {
			return
		}
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg", "template":
				return
			case "title":
				if out.title == "" {
					out.title = strings.TrimSpace(nodeText(n))
				}
				return
			case "nav", "footer", "header":
				// Careers links often live in the chrome; collect them but skip the text.
				collectCareers(n, baseURL, seen, &out.careers)
				return
			case "a":
				addCareer(n, baseURL, seen, &out.careers)
			case "h1", "h2", "h3", "h4", "h5", "h6":
				fmt.Fprintf(&sb, "\n\n%s ", strings.Repeat("#", int(n.Data[1]-'0')))
			case "p", "div", "section", "article", "tr":
				sb.WriteString("\n\n")
			case "br":
				sb.WriteString("\n")
			case "li":
				sb.WriteString("\n- ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(doc, 0)

	out.text = cleanText(sb.String())
	return out
}

func collectCareers(n *html.Node, base *url.URL, seen map[string]bool, dst *[]string) {
	if n.Type == html.ElementNode && n.Data == "a" {
		addCareer(n, base, seen, dst)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectCareers(c, base, seen, dst)
	}
}

func addCareer(a *html.Node, base *url.URL, seen map[string]bool, dst *[]string) {
	href := strings.TrimSpace(attr(a, "href"))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
		return
	}
	if !careersRe.MatchString(href) && !careersRe.MatchString(nodeText(a)) {
		return
	}
	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	abs := ref.String()
	if base != nil {
		abs = base.ResolveReference(ref).String()
	}
	if !seen[abs] {
		seen[abs] = true
		*dst = append(*dst, abs)
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func cleanText(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
