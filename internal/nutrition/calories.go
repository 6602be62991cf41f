// Package nutrition estimates daily energy and protein needs from the
// biometrics entered on the meal-planning form.
package nutrition

import (
	"fmt"
	"math"
	"strings"
)

// Activity level categories accepted by the form.
const (
	Sedentary        = "sedentary"
	LightlyActive    = "lightly_active"
	ModeratelyActive = "moderately_active"
	VeryActive       = "very_active"
	ExtremelyActive  = "extremely_active"
)

const defaultActivityFactor = 1.55

var activityFactors = map[string]float64{
	Sedentary:        1.2,
	LightlyActive:    1.375,
	ModeratelyActive: 1.55,
	VeryActive:       1.725,
	ExtremelyActive:  1.9,
}

// ActivityFactor returns the multiplier for level; unknown levels count as
// moderately active.
func ActivityFactor(level string) float64 {
	if factor, ok := activityFactors[level]; ok {
		return factor
	}
	return defaultActivityFactor
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day.
func BMR(age int, weightKg, heightCm float64, sex string) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if strings.EqualFold(strings.TrimSpace(sex), "male") {
		return base + 5
	}
	return base - 161
}

// CalorieNeeds is BMR scaled by the activity factor, rounded half up.
func CalorieNeeds(age int, weightKg, heightCm float64, sex, activity string) int {
	return RoundHalfUp(BMR(age, weightKg, heightCm, sex) * ActivityFactor(activity))
}

// Protein is the daily protein target in grams (1 g per kg).
func Protein(weightKg float64) int {
	return RoundHalfUp(weightKg * 1.0)
}

// RoundHalfUp rounds to the nearest integer with ties going towards +Inf,
// so 2008.5 becomes 2009 and -2.5 becomes -2.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Estimate is the derived daily needs shown under the activity field.
type Estimate struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
}

// Summary renders the estimate the way the form displays it.
func (e Estimate) Summary() string {
	return fmt.Sprintf("Estimated Daily Needs: %d calories, %dg protein", e.Calories, e.Protein)
}
