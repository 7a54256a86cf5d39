package footprint

import (
	"encoding/json"
	"math"
	"testing"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCalculateHomeEmissions(t *testing.T) {
	r := Calculate(Survey{Electricity: 300, HouseholdSize: 1})
	if !closeTo(r.Breakdown.Home, 255) {
		t.Errorf("home = %v, want 255", r.Breakdown.Home)
	}

	// full renewable supply zeroes the electricity share
	r = Calculate(Survey{Electricity: 300, RenewablePercent: 100, HouseholdSize: 1})
	if !closeTo(r.Breakdown.Home, 0) {
		t.Errorf("home with 100%% renewable = %v, want 0", r.Breakdown.Home)
	}

	r = Calculate(Survey{Electricity: 300, Gas: 10, Water: 100, HouseholdSize: 2})
	want := (255.0 + 53.0 + 17.0) / 2.0
	if !closeTo(r.Breakdown.Home, want) {
		t.Errorf("home = %v, want %v", r.Breakdown.Home, want)
	}
}

func TestCalculateTransportEmissions(t *testing.T) {
	r := Calculate(Survey{CarMileage: 1000, CarType: "gasoline"})
	if !closeTo(r.Breakdown.Transport, 400) {
		t.Errorf("transport = %v, want 400", r.Breakdown.Transport)
	}

	r = Calculate(Survey{CarMileage: 1000, CarType: "electric", PublicTransport: 100, Flights: 2, FlightType: "longHaul"})
	want := 100.0 + 15.0 + 580.0
	if !closeTo(r.Breakdown.Transport, want) {
		t.Errorf("transport = %v, want %v", r.Breakdown.Transport, want)
	}
}

func TestCalculateLifestyleEmissions(t *testing.T) {
	r := Calculate(Survey{DietType: "vegan"})
	if !closeTo(r.Breakdown.Lifestyle, 500) {
		t.Errorf("lifestyle = %v, want 500", r.Breakdown.Lifestyle)
	}

	r = Calculate(Survey{DietType: "highMeat", FoodWaste: 2, Shopping: 100, Recycling: 80})
	want := 2000.0 + 2*0.5*52 + 100*0.3*12 - 80*0.005*52
	if !closeTo(r.Breakdown.Lifestyle, want) {
		t.Errorf("lifestyle = %v, want %v", r.Breakdown.Lifestyle, want)
	}
}

func TestCalculateDefaults(t *testing.T) {
	r := Calculate(Survey{})

	// zero household size clamps to one, unknown diet falls back to omnivore
	if !closeTo(r.Breakdown.Home, 0) {
		t.Errorf("home = %v, want 0", r.Breakdown.Home)
	}
	if !closeTo(r.Breakdown.Lifestyle, 1500) {
		t.Errorf("lifestyle = %v, want 1500 (omnivore fallback)", r.Breakdown.Lifestyle)
	}

	r = Calculate(Survey{Electricity: 100, HouseholdSize: -3})
	if !closeTo(r.Breakdown.Home, 85) {
		t.Errorf("home with negative household = %v, want 85", r.Breakdown.Home)
	}
}

func TestCalculateUnknownEnumFallbacks(t *testing.T) {
	r := Calculate(Survey{CarMileage: 100, CarType: "rocket", Flights: 1, FlightType: "orbital"})
	want := 100*0.4 + 90.0
	if !closeTo(r.Breakdown.Transport, want) {
		t.Errorf("transport = %v, want %v (gasoline/domestic fallback)", r.Breakdown.Transport, want)
	}
}

func TestCalculateClampsNegativeInputs(t *testing.T) {
	r := Calculate(Survey{Electricity: -500, Gas: -10, CarMileage: -200, DietType: "vegan", Recycling: 200})
	if !closeTo(r.Breakdown.Home, 0) {
		t.Errorf("home = %v, want 0", r.Breakdown.Home)
	}
	if !closeTo(r.Breakdown.Transport, 0) {
		t.Errorf("transport = %v, want 0", r.Breakdown.Transport)
	}
	// recycling caps at 100
	if !closeTo(r.Breakdown.Lifestyle, 500-100*0.005*52) {
		t.Errorf("lifestyle = %v, want %v", r.Breakdown.Lifestyle, 500-100*0.005*52)
	}
}

func TestCalculateComparisonIncludesUser(t *testing.T) {
	r := Calculate(Survey{Electricity: 300, HouseholdSize: 1, DietType: "vegan", CarType: "electric", Recycling: 100, RenewablePercent: 100})
	if !closeTo(r.Comparison["user"], r.Breakdown.Total) {
		t.Errorf("comparison user = %v, want total %v", r.Comparison["user"], r.Breakdown.Total)
	}
	for k, want := range map[string]float64{"world": 5000, "usa": 16500, "eu": 8000, "china": 7500, "india": 2000, "sustainable": 2000} {
		if r.Comparison[k] != want {
			t.Errorf("comparison %s = %v, want %v", k, r.Comparison[k], want)
		}
	}
}

func TestSuggestions(t *testing.T) {
	t.Run("low-impact survey yields none", func(t *testing.T) {
		r := Calculate(Survey{
			Electricity:      100,
			RenewablePercent: 80,
			Gas:              10,
			Water:            1000,
			HouseholdSize:    2,
			CarMileage:       200,
			CarType:          "electric",
			Flights:          1,
			DietType:         "vegan",
			FoodWaste:        1,
			Shopping:         50,
			Recycling:        90,
		})
		if len(r.Suggestions) != 0 {
			t.Errorf("suggestions = %v, want none", r.Suggestions)
		}
	})

	t.Run("defaults trigger the baseline four", func(t *testing.T) {
		r := Calculate(Survey{})
		want := []string{
			"Consider switching to a renewable energy provider or installing solar panels.",
			"Consider switching to a hybrid or electric vehicle for your next car purchase.",
			"Reducing meat consumption, especially red meat, can significantly lower your carbon footprint.",
			"Increase recycling and composting to divert waste from landfills.",
		}
		if len(r.Suggestions) != len(want) {
			t.Fatalf("got %d suggestions, want %d: %v", len(r.Suggestions), len(want), r.Suggestions)
		}
		for i := range want {
			if r.Suggestions[i] != want[i] {
				t.Errorf("suggestion[%d] = %q, want %q", i, r.Suggestions[i], want[i])
			}
		}
	})

	t.Run("threshold boundaries", func(t *testing.T) {
		cases := []struct {
			name    string
			survey  Survey
			trigger string
		}{
			{"electricity over 300", Survey{Electricity: 301, RenewablePercent: 80, CarType: "electric", DietType: "vegan", Recycling: 90}, "Reduce electricity usage by using energy-efficient appliances and LED lighting."},
			{"gas over 30", Survey{Gas: 31, RenewablePercent: 80, CarType: "electric", DietType: "vegan", Recycling: 90}, "Improve home insulation to reduce heating costs and carbon emissions."},
			{"water over 3000", Survey{Water: 3001, RenewablePercent: 80, CarType: "electric", DietType: "vegan", Recycling: 90}, "Install water-efficient fixtures to reduce water consumption."},
			{"mileage over 1000", Survey{CarMileage: 1001, RenewablePercent: 80, CarType: "electric", DietType: "vegan", Recycling: 90}, "Try carpooling, combining trips, or using public transportation to reduce driving."},
			{"flights over 3", Survey{Flights: 4, RenewablePercent: 80, CarType: "electric", DietType: "vegan", Recycling: 90}, "Consider alternatives to flying such as trains for shorter trips or virtual meetings."},
			{"food waste over 2", Survey{FoodWaste: 3, RenewablePercent: 80, CarType: "electric", DietType: "vegan", Recycling: 90}, "Plan meals and store food properly to reduce food waste."},
			{"shopping over 300", Survey{Shopping: 301, RenewablePercent: 80, CarType: "electric", DietType: "vegan", Recycling: 90}, "Consider buying second-hand items and choosing products with less packaging."},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				r := Calculate(tc.survey)
				found := false
				for _, s := range r.Suggestions {
					if s == tc.trigger {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("suggestions %v missing %q", r.Suggestions, tc.trigger)
				}
			})
		}
	})
}

func TestNumberCoercion(t *testing.T) {
	cases := []struct {
		name string
		body string
		want float64
	}{
		{"number", `{"electricity": 300}`, 300},
		{"string", `{"electricity": "300"}`, 300},
		{"string with spaces", `{"electricity": " 42 "}`, 42},
		{"null", `{"electricity": null}`, 0},
		{"garbage string", `{"electricity": "abc"}`, 0},
		{"empty string", `{"electricity": ""}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s Survey
			if err := json.Unmarshal([]byte(tc.body), &s); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if float64(s.Electricity) != tc.want {
				t.Errorf("electricity = %v, want %v", float64(s.Electricity), tc.want)
			}
		})
	}
}
