package icons

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code int
		want Category
	}{
		{name: "thunderstorm low edge", code: 200, want: Storm},
		{name: "thunderstorm high edge", code: 232, want: Storm},
		{name: "drizzle", code: 300, want: LightRain},
		{name: "drizzle high edge", code: 321, want: LightRain},
		{name: "rain", code: 500, want: Rain},
		{name: "rain high edge", code: 504, want: Rain},
		{name: "freezing rain", code: 511, want: Snow},
		{name: "shower rain", code: 520, want: Rain},
		{name: "shower rain high edge", code: 531, want: Rain},
		{name: "snow", code: 600, want: Snow},
		{name: "snow high edge", code: 622, want: Snow},
		{name: "mist", code: 701, want: Fog},
		{name: "sand", code: 751, want: Fog},
		{name: "dust", code: 761, want: Storm},
		{name: "tornado", code: 781, want: Storm},
		{name: "clear sky", code: 800, want: Clear},
		{name: "few clouds", code: 801, want: LightClouds},
		{name: "scattered clouds", code: 802, want: Cloudy},
		{name: "overcast", code: 804, want: Cloudy},
		{name: "gap between drizzle and rain", code: 400, want: Clear},
		{name: "gap inside rain block", code: 505, want: Clear},
		{name: "gap after fog", code: 771, want: Clear},
		{name: "zero", code: 0, want: Clear},
		{name: "negative", code: -1, want: Clear},
		{name: "past table", code: 900, want: Clear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.code); got != tt.want {
				t.Errorf("Classify(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestClassifyStormAndCloudyRanges(t *testing.T) {
	for c := 200; c <= 232; c++ {
		if got := Classify(c); got != Storm {
			t.Errorf("Classify(%d) = %v, want storm", c, got)
		}
	}
	for _, c := range []int{761, 781} {
		if got := Classify(c); got != Storm {
			t.Errorf("Classify(%d) = %v, want storm", c, got)
		}
	}
	for c := 802; c <= 804; c++ {
		if got := Classify(c); got != Cloudy {
			t.Errorf("Classify(%d) = %v, want cloudy", c, got)
		}
	}
}

func TestClassifyUncoveredCodesDefaultToClear(t *testing.T) {
	covered := func(c int) bool {
		for _, r := range rules {
			if c >= r.lo && c <= r.hi {
				return true
			}
		}
		return false
	}
	for c := -50; c <= 1000; c++ {
		if covered(c) {
			continue
		}
		if got := Classify(c); got != Clear {
			t.Errorf("Classify(%d) = %v, want clear", c, got)
		}
	}
}

func TestClassifyOptional(t *testing.T) {
	if got := ClassifyOptional(nil); got != Clear {
		t.Errorf("ClassifyOptional(nil) = %v, want clear", got)
	}
	code := 801
	if got := ClassifyOptional(&code); got != LightClouds {
		t.Errorf("ClassifyOptional(801) = %v, want light-clouds", got)
	}
}

func TestCategoryString(t *testing.T) {
	want := []string{"clear", "light-clouds", "cloudy", "light-rain", "rain", "snow", "fog", "storm"}
	for i, c := range Categories() {
		if c.String() != want[i] {
			t.Errorf("Category(%d).String() = %q, want %q", c, c.String(), want[i])
		}
	}
	if got := Category(99).String(); got != "unknown" {
		t.Errorf("Category(99).String() = %q, want unknown", got)
	}
}
