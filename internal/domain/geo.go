package domain

// GeoLocation is an approximate visitor location. Empty strings and nil
// coordinates mean "no data", whichever provider produced the value.
type GeoLocation struct {
	Country     string   `json:"country,omitempty"`
	CountryName string   `json:"countryName,omitempty"`
	City        string   `json:"city,omitempty"`
	Region      string   `json:"region,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

func (g GeoLocation) IsEmpty() bool {
	return g.Country == "" && g.CountryName == "" && g.City == "" && g.Region == "" &&
		g.Latitude == nil && g.Longitude == nil
}
