package footprint

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number tolerates numeric survey values arriving as JSON numbers, quoted
// strings, or null. Anything unparseable coerces to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || string(raw) == "null" {
		*n = 0
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			*n = 0
			return nil
		}
		raw = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Survey is the carbon footprint questionnaire. All quantities are monthly
// unless noted.
type Survey struct {
	// home
	Electricity      Number `json:"electricity"`      // kWh
	RenewablePercent Number `json:"renewablePercent"` // 0-100
	Gas              Number `json:"gas"`              // therms
	Water            Number `json:"water"`            // gallons
	HouseholdSize    Number `json:"householdSize"`
	HomeType         string `json:"homeType"`

	// transport
	CarMileage      Number `json:"carMileage"` // miles
	CarType         string `json:"carType"`
	PublicTransport Number `json:"publicTransport"` // miles
	Flights         Number `json:"flights"`         // per year
	FlightType      string `json:"flightType"`

	// lifestyle
	DietType  string `json:"dietType"`
	FoodWaste Number `json:"foodWaste"` // lb per week
	Shopping  Number `json:"shopping"`  // spend per month
	Recycling Number `json:"recycling"` // 0-100
}

// Breakdown holds per-category annual emissions in kg CO2e.
type Breakdown struct {
	Home      float64 `json:"home"`
	Transport float64 `json:"transport"`
	Lifestyle float64 `json:"lifestyle"`
	Total     float64 `json:"total"`
}

// Result is the full estimator output.
type Result struct {
	Breakdown   Breakdown          `json:"breakdown"`
	Suggestions []string           `json:"suggestions"`
	Comparison  map[string]float64 `json:"comparison"`
}

// Emission factors, kg CO2e per unit.
const (
	factorElectricity       = 0.85
	factorRenewableDiscount = 0.01
	factorGas               = 5.3
	factorWater             = 0.17
	factorPublicTransport   = 0.15
	factorFoodWaste         = 0.5
	factorShopping          = 0.3
	factorRecycling         = 0.005
	dietAnnualBase          = 1000.0
)

var carFactors = map[string]float64{
	"gasoline": 0.4,
	"diesel":   0.45,
	"hybrid":   0.2,
	"electric": 0.1,
}

var flightFactors = map[string]float64{
	"domestic":  90,
	"shortHaul": 150,
	"longHaul":  290,
}

var dietFactors = map[string]float64{
	"vegan":       0.5,
	"vegetarian":  0.8,
	"pescatarian": 1.2,
	"omnivore":    1.5,
	"highMeat":    2.0,
}

// Per-capita annual footprint references, kg CO2e.
var comparisonBaselines = map[string]float64{
	"world":       5000,
	"usa":         16500,
	"eu":          8000,
	"china":       7500,
	"india":       2000,
	"sustainable": 2000,
}

// Calculate runs the estimator. It is total: every input produces a result.
func Calculate(s Survey) Result {
	s = normalize(s)

	electricityEmissions := float64(s.Electricity) * factorElectricity * (1 - float64(s.RenewablePercent)*factorRenewableDiscount)
	gasEmissions := float64(s.Gas) * factorGas
	waterEmissions := float64(s.Water) * factorWater
	home := (electricityEmissions + gasEmissions + waterEmissions) / float64(s.HouseholdSize)

	transport := float64(s.CarMileage)*carFactors[s.CarType] +
		float64(s.PublicTransport)*factorPublicTransport +
		float64(s.Flights)*flightFactors[s.FlightType]

	lifestyle := dietAnnualBase*dietFactors[s.DietType] +
		float64(s.FoodWaste)*factorFoodWaste*52 +
		float64(s.Shopping)*factorShopping*12 -
		float64(s.Recycling)*factorRecycling*52

	total := home + transport + lifestyle

	comparison := make(map[string]float64, len(comparisonBaselines)+1)
	for k, v := range comparisonBaselines {
		comparison[k] = v
	}
	comparison["user"] = total

	return Result{
		Breakdown: Breakdown{
			Home:      home,
			Transport: transport,
			Lifestyle: lifestyle,
			Total:     total,
		},
		Suggestions: suggestions(s),
		Comparison:  comparison,
	}
}

// suggestions emits every matching advisory, in fixed order.
func suggestions(s Survey) []string {
	out := []string{}

	if s.RenewablePercent < 50 {
		out = append(out, "Consider switching to a renewable energy provider or installing solar panels.")
	}
	if s.Electricity > 300 {
		out = append(out, "Reduce electricity usage by using energy-efficient appliances and LED lighting.")
	}
	if s.Gas > 30 {
		out = append(out, "Improve home insulation to reduce heating costs and carbon emissions.")
	}
	if s.Water > 3000 {
		out = append(out, "Install water-efficient fixtures to reduce water consumption.")
	}

	if s.CarType == "gasoline" || s.CarType == "diesel" {
		out = append(out, "Consider switching to a hybrid or electric vehicle for your next car purchase.")
	}
	if s.CarMileage > 1000 {
		out = append(out, "Try carpooling, combining trips, or using public transportation to reduce driving.")
	}
	if s.Flights > 3 {
		out = append(out, "Consider alternatives to flying such as trains for shorter trips or virtual meetings.")
	}

	if s.DietType == "highMeat" || s.DietType == "omnivore" {
		out = append(out, "Reducing meat consumption, especially red meat, can significantly lower your carbon footprint.")
	}
	if s.FoodWaste > 2 {
		out = append(out, "Plan meals and store food properly to reduce food waste.")
	}
	if s.Shopping > 300 {
		out = append(out, "Consider buying second-hand items and choosing products with less packaging.")
	}
	if s.Recycling < 70 {
		out = append(out, "Increase recycling and composting to divert waste from landfills.")
	}

	return out
}

func normalize(s Survey) Survey {
	s.Electricity = clampNonNegative(s.Electricity)
	s.RenewablePercent = clampPercent(s.RenewablePercent)
	s.Gas = clampNonNegative(s.Gas)
	s.Water = clampNonNegative(s.Water)
	if s.HouseholdSize < 1 {
		s.HouseholdSize = 1
	} else {
		s.HouseholdSize = Number(math.Floor(float64(s.HouseholdSize)))
	}

	s.CarMileage = clampNonNegative(s.CarMileage)
	s.PublicTransport = clampNonNegative(s.PublicTransport)
	s.Flights = clampNonNegative(s.Flights)
	if _, ok := carFactors[s.CarType]; !ok {
		s.CarType = "gasoline"
	}
	if _, ok := flightFactors[s.FlightType]; !ok {
		s.FlightType = "domestic"
	}

	if _, ok := dietFactors[s.DietType]; !ok {
		s.DietType = "omnivore"
	}
	s.FoodWaste = clampNonNegative(s.FoodWaste)
	s.Shopping = clampNonNegative(s.Shopping)
	s.Recycling = clampPercent(s.Recycling)

	return s
}

func clampNonNegative(n Number) Number {
	if n < 0 {
		return 0
	}
	return n
}

func clampPercent(n Number) Number {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
