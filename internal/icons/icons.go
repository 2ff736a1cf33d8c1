// Package icons maps external weather-condition codes onto the fixed set of
// icon categories the face knows how to draw.
package icons

// Category is a weather-icon class. The zero value is Clear.
type Category int

const (
	Clear Category = iota
	LightClouds
	Cloudy
	LightRain
	Rain
	Snow
	Fog
	Storm
)

var categoryNames = [...]string{
	Clear:       "clear",
	LightClouds: "light-clouds",
	Cloudy:      "cloudy",
	LightRain:   "light-rain",
	Rain:        "rain",
	Snow:        "snow",
	Fog:         "fog",
	Storm:       "storm",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{Clear, LightClouds, Cloudy, LightRain, Rain, Snow, Fog, Storm}
}

// rule is one row of the classification table. Ranges are inclusive.
type rule struct {
	lo, hi   int
	category Category
}

// Order matters: the first matching row wins. 761 falls in both the 701-761
// atmosphere range and the 761/781 storm codes. It is classified as a storm,
// so its row sits ahead of the range that would otherwise claim it as fog.
var rules = []rule{
	{200, 232, Storm},
	{300, 321, LightRain},
	{500, 504, Rain},
	{511, 511, Snow},
	{520, 531, Rain},
	{600, 622, Snow},
	{761, 761, Storm},
	{701, 761, Fog},
	{781, 781, Storm},
	{800, 800, Clear},
	{801, 801, LightClouds},
	{802, 804, Cloudy},
}

// Classify returns the icon category for a weather-condition code. Codes not
// covered by the table map to Clear; it never fails.
func Classify(code int) Category {
	for _, r := range rules {
		if code >= r.lo && code <= r.hi {
			return r.category
		}
	}
	return Clear
}

// ClassifyOptional classifies a code that may be absent.
func ClassifyOptional(code *int) Category {
	if code == nil {
		return Clear
	}
	return Classify(*code)
}
