package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalScraper_CleanHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Deltares</title><style>p{}</style></head>
<body><nav>Menu</nav><h1>Werken bij Deltares</h1><p>Water &amp; subsurface research institute.</p>
<script>track()</script><footer>Copyright 2025</footer></body></html>`))
	}))
	defer srv.Close()

	s := NewLocalScraper()
	assert.Equal(t, "local_http", s.Name())

	result, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "local_http", result.Source)
	assert.Equal(t, "Deltares", result.Page.Title)
	assert.Equal(t, 200, result.Page.StatusCode)
	assert.Contains(t, result.Page.Markdown, "Werken bij Deltares")
	assert.Contains(t, result.Page.Markdown, "Water & subsurface")
	assert.NotContains(t, result.Page.Markdown, "Menu")
	assert.NotContains(t, result.Page.Markdown, "track()")
	assert.NotContains(t, result.Page.Markdown, "Copyright 2025")
}

func TestLocalScraper_CareersLinksAndRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/en/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/en/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>TNO</title></head><body>
<header><a href="/en/careers/">Careers</a><a href="/en/about/">About</a></header>
<main><h2>Applied research</h2><ul><li>Energy transition</li><li>Defence</li></ul>
<p>See our <a href="https://jobs.tno.nl/vacatures">open vacatures</a> or <a href="/en/careers/">join us</a>.</p></main>
</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	result, err := NewLocalScraper(WithUserAgent("test-agent")).Scrape(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/", result.Page.URL)
	assert.Equal(t, srv.URL+"/en/", result.Page.FinalURL)
	assert.Contains(t, result.Page.Markdown, "## Applied research")
	assert.Contains(t, result.Page.Markdown, "- Energy transition")
	assert.Contains(t, result.Page.Markdown, "Careers links:\n- "+srv.URL+"/en/careers/\n- https://jobs.tno.nl/vacatures")
	assert.NotContains(t, result.Page.Markdown, "/en/about/")
}

func TestLocalScraper_UserAgentAndLimit(t *testing.T) {
	t.Parallel()

	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><body><p>` + strings.Repeat("research ", 200) + `</p></body></html>`))
	}))
	defer srv.Close()

	result, err := NewLocalScraper(WithUserAgent("test-agent"), WithMaxBytes(64)).Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", <-gotUA)
	assert.Empty(t, result.Page.FinalURL)
	assert.Less(t, len(result.Page.Markdown), 64)
}

func TestLocalScraper_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "cloudflare",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Cf-Ray", "abc123")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`<html><body>Access denied</body></html>`))
			},
			wantErr: "blocked (cloudflare)",
		},
		{
			name: "captcha",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html><body><div class="g-recaptcha">Please solve the captcha to continue to the site content.</div></body></html>`))
			},
			wantErr: "blocked (captcha)",
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`<html><body>The page you were looking for could not be located on this server anymore.</body></html>`))
			},
			wantErr: "status 404",
		},
		{
			name: "empty",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html></html>`))
			},
			wantErr: "empty page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewLocalScraper().Scrape(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDetectContentBlock(t *testing.T) {
	t.Parallel()

	blocked, kind := DetectContentBlock("Access Denied. You don't have permission.")
	assert.True(t, blocked)
	assert.Equal(t, BlockDenied, kind)

	blocked, _ = DetectContentBlock("Our research covers many topics.")
	assert.False(t, blocked)
}
