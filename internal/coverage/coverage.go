// Package coverage maps postal codes to the area codes the service can
// provision numbers in. The table is static; callers are expected to have
// validated the zip format before lookup.
package coverage

import "sort"

// Location describes the geography a supported zip code resolves to.
type Location struct {
	AreaCode string `json:"area_code"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// Supported coverage table, zip → location. Metro zips sharing a city may
// map to different overlay area codes.
var zipTable = map[string]Location{
	// Atlanta, GA
	"30301": {AreaCode: "404", City: "Atlanta", State: "GA"},
	"30303": {AreaCode: "404", City: "Atlanta", State: "GA"},
	"30305": {AreaCode: "404", City: "Atlanta", State: "GA"},
	"30309": {AreaCode: "404", City: "Atlanta", State: "GA"},
	"30312": {AreaCode: "404", City: "Atlanta", State: "GA"},
	"30318": {AreaCode: "404", City: "Atlanta", State: "GA"},
	"30328": {AreaCode: "470", City: "Atlanta", State: "GA"},
	"30338": {AreaCode: "470", City: "Atlanta", State: "GA"},
	"30339": {AreaCode: "678", City: "Atlanta", State: "GA"},
	"30342": {AreaCode: "678", City: "Atlanta", State: "GA"},

	// Nashville, TN
	"37201": {AreaCode: "615", City: "Nashville", State: "TN"},
	"37203": {AreaCode: "615", City: "Nashville", State: "TN"},
	"37206": {AreaCode: "615", City: "Nashville", State: "TN"},
	"37211": {AreaCode: "629", City: "Nashville", State: "TN"},

	// Charlotte, NC
	"28202": {AreaCode: "704", City: "Charlotte", State: "NC"},
	"28203": {AreaCode: "704", City: "Charlotte", State: "NC"},
	"28205": {AreaCode: "980", City: "Charlotte", State: "NC"},

	// Austin, TX
	"78701": {AreaCode: "512", City: "Austin", State: "TX"},
	"78702": {AreaCode: "512", City: "Austin", State: "TX"},
	"78745": {AreaCode: "737", City: "Austin", State: "TX"},

	// Dallas, TX
	"75201": {AreaCode: "214", City: "Dallas", State: "TX"},
	"75204": {AreaCode: "214", City: "Dallas", State: "TX"},
	"75231": {AreaCode: "972", City: "Dallas", State: "TX"},

	// Denver, CO
	"80202": {AreaCode: "303", City: "Denver", State: "CO"},
	"80205": {AreaCode: "303", City: "Denver", State: "CO"},
	"80211": {AreaCode: "720", City: "Denver", State: "CO"},

	// Phoenix, AZ
	"85003": {AreaCode: "602", City: "Phoenix", State: "AZ"},
	"85008": {AreaCode: "602", City: "Phoenix", State: "AZ"},
	"85018": {AreaCode: "480", City: "Phoenix", State: "AZ"},
}

// Resolve returns the location for a supported zip code. The second return
// is false when the zip is outside coverage; no format validation is done.
func Resolve(zipCode string) (Location, bool) {
	loc, ok := zipTable[zipCode]
	return loc, ok
}

// IsSupported reports whether numbers can be provisioned for the zip code.
func IsSupported(zipCode string) bool {
	_, ok := zipTable[zipCode]
	return ok
}

// AreaCodesForCity returns the distinct area codes covered for a city,
// sorted for stable output. Empty slice when the city is not covered.
func AreaCodesForCity(city string) []string {
	seen := map[string]bool{}
	var codes []string
	for _, loc := range zipTable {
		if loc.City == city && !seen[loc.AreaCode] {
			seen[loc.AreaCode] = true
			codes = append(codes, loc.AreaCode)
		}
	}
	sort.Strings(codes)
	return codes
}
