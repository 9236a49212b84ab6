package visitor

import (
	"net/url"
	"strings"
)

const (
	ReferrerDirect  = "Direct"
	ReferrerUnknown = "Unknown"
)

var referrerLabels = map[string]string{
	"t.co":                 "Twitter/X",
	"twitter.com":          "Twitter/X",
	"x.com":                "Twitter/X",
	"facebook.com":         "Facebook",
	"m.facebook.com":       "Facebook",
	"l.facebook.com":       "Facebook",
	"fb.me":                "Facebook",
	"instagram.com":        "Instagram",
	"l.instagram.com":      "Instagram",
	"linkedin.com":         "LinkedIn",
	"lnkd.in":              "LinkedIn",
	"reddit.com":           "Reddit",
	"old.reddit.com":       "Reddit",
	"youtube.com":          "YouTube",
	"m.youtube.com":        "YouTube",
	"youtu.be":             "YouTube",
	"google.com":           "Google",
	"bing.com":             "Bing",
	"duckduckgo.com":       "DuckDuckGo",
	"news.ycombinator.com": "Hacker News",
	"pinterest.com":        "Pinterest",
	"tiktok.com":           "TikTok",
	"web.whatsapp.com":     "WhatsApp",
	"wa.me":                "WhatsApp",
	"t.me":                 "Telegram",
}

const (
	UTMSource   = "utm_source"
	UTMMedium   = "utm_medium"
	UTMCampaign = "utm_campaign"
	UTMTerm     = "utm_term"
	UTMContent  = "utm_content"
)

// UTMKeys is the fixed set of campaign parameters we extract.
var UTMKeys = []string{UTMSource, UTMMedium, UTMCampaign, UTMTerm, UTMContent}

// ParseReferrer returns a friendly label or bare domain for a referrer URL,
// "Direct" when there is none and "Unknown" when it cannot be parsed.
func ParseReferrer(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ReferrerDirect
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ReferrerUnknown
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ReferrerUnknown
	}
	host = strings.TrimPrefix(host, "www.")

	if label, ok := referrerLabels[host]; ok {
		return label
	}
	return host
}

// ParseUTMParams extracts the UTM whitelist from a URL, omitting absent keys.
// Malformed input yields an empty map.
func ParseUTMParams(raw string) map[string]string {
	out := make(map[string]string)

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return out
	}
	q := u.Query()
	for _, key := range UTMKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			out[key] = v
		}
	}
	return out
}
