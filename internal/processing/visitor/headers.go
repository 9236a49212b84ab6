package visitor

import (
	"net"
	"net/url"
	"strings"
)

const UnknownIP = "unknown"

// HeaderMap is the only view of request headers the pipeline needs.
// http.Header satisfies it.
type HeaderMap interface {
	Get(name string) string
}

// GeoHint carries location headers set by the edge platform in front of us.
type GeoHint struct {
	Country string
	City    string
	Region  string
}

func (h GeoHint) IsEmpty() bool {
	return h.Country == "" && h.City == "" && h.Region == ""
}

// RequestInfo is the uniform record extracted from a raw request.
type RequestInfo struct {
	IP             string
	UserAgent      string
	Referrer       string
	AcceptLanguage string
	GeoHint        GeoHint
}

var (
	countryHeaders = []string{"X-Vercel-IP-Country", "CF-IPCountry", "X-Geo-Country"}
	cityHeaders    = []string{"X-Vercel-IP-City", "X-Geo-City"}
	regionHeaders  = []string{"X-Vercel-IP-Country-Region", "X-Geo-Region"}
)

// Normalize extracts client IP, user-agent, referrer and geo hint headers.
// It never fails: missing values come back empty, a missing IP as UnknownIP.
func Normalize(h HeaderMap, remoteAddr string) RequestInfo {
	if h == nil {
		h = emptyHeaders{}
	}
	return RequestInfo{
		IP:             ClientIP(h, remoteAddr),
		UserAgent:      strings.TrimSpace(h.Get("User-Agent")),
		Referrer:       strings.TrimSpace(h.Get("Referer")),
		AcceptLanguage: strings.TrimSpace(h.Get("Accept-Language")),
		GeoHint:        GeoHintFromHeaders(h),
	}
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then the
// socket peer address.
func ClientIP(h HeaderMap, remoteAddr string) string {
	if h != nil {
		if fwd := h.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if real := strings.TrimSpace(h.Get("X-Real-IP")); real != "" {
			return real
		}
	}

	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return UnknownIP
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
		return host
	}
	return strings.Trim(remoteAddr, "[]")
}

// GeoHintFromHeaders reads the platform geo headers. City values are
// URL-encoded by some platforms.
func GeoHintFromHeaders(h HeaderMap) GeoHint {
	if h == nil {
		return GeoHint{}
	}
	country := firstHeader(h, countryHeaders)
	// Cloudflare uses XX for unknown and T1 for Tor.
	if country == "XX" || country == "T1" {
		country = ""
	}
	return GeoHint{
		Country: strings.ToUpper(country),
		City:    decodeHeader(firstHeader(h, cityHeaders)),
		Region:  decodeHeader(firstHeader(h, regionHeaders)),
	}
}

func firstHeader(h HeaderMap, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func decodeHeader(v string) string {
	if v == "" {
		return ""
	}
	decoded, err := url.QueryUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}

type emptyHeaders struct{}

func (emptyHeaders) Get(string) string { return "" }
