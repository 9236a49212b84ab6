package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/IgorGrieder/clicktrack/internal/domain"
	"github.com/IgorGrieder/clicktrack/pkg/httpclient"
)

var (
	ErrUnknownProvider = errors.New("geo: unknown provider")
	ErrLookupFailed    = errors.New("geo: provider reported failure")
)

const maxResponseBytes = 64 << 10

// Provider resolves a public IP into a location. Each implementation maps
// its own response shape onto domain.GeoLocation.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (domain.GeoLocation, error)
}

// HTTPProvider is a JSON geo-IP endpoint. endpoint builds the request URL
// and decode turns the body into a location.
type HTTPProvider struct {
	name     string
	client   *httpclient.Client
	endpoint func(ip string) string
	decode   func(body []byte) (domain.GeoLocation, error)
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Lookup(ctx context.Context, ip string) (domain.GeoLocation, error) {
	resp, err := p.client.Get(ctx, p.endpoint(ip), nil, map[string]string{"Accept": "application/json"})
	if err != nil {
		return domain.GeoLocation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoLocation{}, fmt.Errorf("%s: unexpected status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.GeoLocation{}, fmt.Errorf("%s: read body: %w", p.name, err)
	}

	loc, err := p.decode(body)
	if err != nil {
		return domain.GeoLocation{}, fmt.Errorf("%s: %w", p.name, err)
	}
	return loc, nil
}

// NewIPAPICo queries ipapi.co style endpoints: GET {base}/{ip}/json/.
func NewIPAPICo(baseURL string, client *httpclient.Client) *HTTPProvider {
	base := strings.TrimRight(baseURL, "/")
	return &HTTPProvider{
		name:   "ipapi.co",
		client: client,
		endpoint: func(ip string) string {
			return base + "/" + url.PathEscape(ip) + "/json/"
		},
		decode: decodeIPAPICo,
	}
}

type ipapiCoResponse struct {
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
	CountryCode string   `json:"country_code"`
	CountryName string   `json:"country_name"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func decodeIPAPICo(body []byte) (domain.GeoLocation, error) {
	var r ipapiCoResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return domain.GeoLocation{}, err
	}
	if r.Error {
		return domain.GeoLocation{}, fmt.Errorf("%w: %s", ErrLookupFailed, r.Reason)
	}
	return normalize(r.CountryCode, r.CountryName, r.City, r.Region, r.Latitude, r.Longitude), nil
}

// NewIPWhoIs queries ipwho.is style endpoints: GET {base}/{ip}.
func NewIPWhoIs(baseURL string, client *httpclient.Client) *HTTPProvider {
	base := strings.TrimRight(baseURL, "/")
	return &HTTPProvider{
		name:   "ipwho.is",
		client: client,
		endpoint: func(ip string) string {
			return base + "/" + url.PathEscape(ip)
		},
		decode: decodeIPWhoIs,
	}
}

type ipwhoisResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	CountryCode string   `json:"country_code"`
	Country     string   `json:"country"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func decodeIPWhoIs(body []byte) (domain.GeoLocation, error) {
	var r ipwhoisResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return domain.GeoLocation{}, err
	}
	if !r.Success {
		return domain.GeoLocation{}, fmt.Errorf("%w: %s", ErrLookupFailed, r.Message)
	}
	return normalize(r.CountryCode, r.Country, r.City, r.Region, r.Latitude, r.Longitude), nil
}

// NewIPAPICom queries ip-api.com style endpoints: GET {base}/json/{ip}.
// The free tier is plaintext only, so config validation gates it behind
// GEO_ALLOW_INSECURE.
func NewIPAPICom(baseURL string, client *httpclient.Client) *HTTPProvider {
	base := strings.TrimRight(baseURL, "/")
	return &HTTPProvider{
		name:   "ip-api.com",
		client: client,
		endpoint: func(ip string) string {
			return base + "/json/" + url.PathEscape(ip) + "?fields=status,message,countryCode,country,city,regionName,lat,lon"
		},
		decode: decodeIPAPICom,
	}
}

type ipapiComResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	CountryCode string   `json:"countryCode"`
	Country     string   `json:"country"`
	City        string   `json:"city"`
	RegionName  string   `json:"regionName"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

func decodeIPAPICom(body []byte) (domain.GeoLocation, error) {
	var r ipapiComResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return domain.GeoLocation{}, err
	}
	if r.Status != "success" {
		return domain.GeoLocation{}, fmt.Errorf("%w: %s", ErrLookupFailed, r.Message)
	}
	return normalize(r.CountryCode, r.Country, r.City, r.RegionName, r.Lat, r.Lon), nil
}

func normalize(countryCode, countryName, city, region string, lat, lon *float64) domain.GeoLocation {
	return domain.GeoLocation{
		Country:     strings.ToUpper(strings.TrimSpace(countryCode)),
		CountryName: strings.TrimSpace(countryName),
		City:        strings.TrimSpace(city),
		Region:      strings.TrimSpace(region),
		Latitude:    lat,
		Longitude:   lon,
	}
}

// ProviderFromURL picks the response shape by host. Every provider gets its
// own client so one failing upstream cannot open another's breaker.
func ProviderFromURL(raw string, newClient func(name string) *httpclient.Client) (Provider, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "ipapi.co" || strings.HasSuffix(host, ".ipapi.co"):
		return NewIPAPICo(raw, newClient("ipapi.co")), nil
	case host == "ipwho.is" || strings.HasSuffix(host, ".ipwho.is"):
		return NewIPWhoIs(raw, newClient("ipwho.is")), nil
	case host == "ip-api.com" || strings.HasSuffix(host, ".ip-api.com"):
		return NewIPAPICom(raw, newClient("ip-api.com")), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
	}
}
