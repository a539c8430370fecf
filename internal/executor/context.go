package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/scrape"
	"github.com/sells-group/institution-research/pkg/jina"
)

// PageReader reads a batch of pages. *scrape.Chain satisfies it.
type PageReader interface {
	ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []scrape.Result
}

// Gatherer collects web context for a work item: search results for its
// query and the readable text of its URLs.
type Gatherer struct {
	Search       jina.Client
	Pages        PageReader
	Hint         SearchHint
	ContextChars int
}

// Gathered is the context block plus what it cost to collect.
type Gathered struct {
	Text    string
	Sources []string
	Tokens  int
}

// Gather runs the search and page reads for item. Failures are logged and
// yield less context, never an error.
func (g *Gatherer) Gather(ctx context.Context, item model.WorkItem) Gathered {
	var (
		out Gathered
		b   strings.Builder
	)
	log := zap.L().With(zap.String("subject", item.Subject), zap.String("kind", string(item.Kind)))

	if g.Search != nil && strings.TrimSpace(item.Query) != "" {
		resp, err := g.Search.Search(ctx, item.Query,
			jina.WithCountry(g.Hint.Country),
			jina.WithLanguage(g.Hint.Language),
			jina.WithNum(g.Hint.Results),
		)
		switch {
		case err != nil:
			log.Warn("executor: web search failed", zap.String("query", item.Query), zap.Error(err))
		case len(resp.Data) > 0:
			out.Tokens += resp.Tokens()
			fmt.Fprintf(&b, "## Web search results for %q\n\n", item.Query)
			for i, r := range resp.Data {
				snippet := r.Description
				if snippet == "" {
					snippet = truncate(r.Content, 400)
				}
				fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, r.Title, r.URL, snippet)
				out.Sources = append(out.Sources, r.URL)
			}
			b.WriteString("\n")
		}
	}

	if g.Pages != nil && len(item.URLs) > 0 {
		for _, r := range g.Pages.ScrapeAll(ctx, item.URLs, 2) {
			out.Tokens += r.Page.Tokens
			fmt.Fprintf(&b, "## Page %s (HTTP %d, via %s)\n\n", r.Page.URL, r.Page.StatusCode, r.Source)
			if r.Page.FinalURL != "" {
				fmt.Fprintf(&b, "Redirected to %s\n\n", r.Page.FinalURL)
			}
			fmt.Fprintf(&b, "%s\n\n", truncate(r.Page.Markdown, g.ContextChars))
			out.Sources = append(out.Sources, r.Page.URL)
		}
	}

	out.Text = strings.TrimSpace(b.String())
	return out
}

// withContext appends gathered context to a prompt.
func withContext(prompt string, g Gathered) string {
	if g.Text == "" {
		return prompt
	}
	return prompt + "\n\n# Web research context\n\n" + g.Text
}

// truncate cuts s to at most n bytes on a rune boundary. n <= 0 means no limit.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
