package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of block detected.
type BlockType string

// Block kinds reported by DetectBlock and DetectContentBlock.
const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockDenied     BlockType = "denied"
)

// challengeSignatures appear on interstitial pages returned instead of content.
var challengeSignatures = map[string]BlockType{
	"checking your browser": BlockCloudflare,
	"just a moment":         BlockCloudflare,
	"attention required":    BlockCloudflare,
	"enable javascript":     BlockJSShell,
	"please enable cookies": BlockJSShell,
	"access denied":         BlockDenied,
	"403 forbidden":         BlockDenied,
	"captcha":               BlockCaptcha,
}

// DetectBlock checks a raw HTTP response for anti-bot protection.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	if len(body) < 2000 && strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
		return true, BlockJSShell
	}
	return DetectContentBlock(string(body))
}

// DetectContentBlock checks extracted page text for a challenge page. Only
// short texts are considered: a long article that mentions "captcha" is content.
func DetectContentBlock(text string) (bool, BlockType) {
	if len(text) >= 1000 {
		return false, BlockNone
	}
	lower := strings.ToLower(text)
	for sig, kind := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true, kind
		}
	}
	return false, BlockNone
}
