package nutrition

import (
	"strings"

	"github.com/zhouzirui/healthdesk/internal/model/forms"
	"github.com/zhouzirui/healthdesk/internal/validation"
)

// Inputs watched by the Estimator.
const (
	InputAge      = "age"
	InputWeight   = "weight"
	InputHeight   = "height"
	InputSex      = "sex"
	InputActivity = "activity_level"
)

// Estimator recomputes the estimate whenever one of its five inputs changes.
// At most one estimate is current; a new one replaces the old. It is not safe
// for concurrent use.
type Estimator struct {
	values  map[string]string
	current *Estimate
}

// NewEstimator returns an Estimator with no inputs set.
func NewEstimator() *Estimator {
	return &Estimator{values: make(map[string]string, 5)}
}

// Watches reports whether changes to field trigger a recomputation.
func Watches(field string) bool {
	switch field {
	case InputAge, InputWeight, InputHeight, InputSex, InputActivity:
		return true
	}
	return false
}

// Update records a change to field. When all inputs are usable the estimate
// is recomputed and returned; otherwise the previous estimate is kept.
func (e *Estimator) Update(field, raw string) (Estimate, bool) {
	if !Watches(field) {
		return Estimate{}, false
	}
	e.values[field] = raw

	est, ok := compute(e.values[InputAge], e.values[InputWeight], e.values[InputHeight], e.values[InputSex], e.values[InputActivity])
	if !ok {
		return Estimate{}, false
	}
	e.current = &est
	return est, true
}

// Current returns the estimate on display, if any.
func (e *Estimator) Current() (Estimate, bool) {
	if e.current == nil {
		return Estimate{}, false
	}
	return *e.current, true
}

// FromMealPlan computes the estimate for a submitted meal-plan form.
func FromMealPlan(form forms.MealPlan) (Estimate, bool) {
	return compute(form.Age, form.Weight, form.Height, form.Sex, form.ActivityLevel)
}

func compute(ageRaw, weightRaw, heightRaw, sex, activity string) (Estimate, bool) {
	age, ok := validation.ParseLeadingInt(ageRaw)
	if !ok || age == 0 {
		return Estimate{}, false
	}
	weight, ok := validation.ParseLeadingFloat(weightRaw)
	if !ok || weight == 0 {
		return Estimate{}, false
	}
	height, ok := validation.ParseLeadingFloat(heightRaw)
	if !ok || height == 0 {
		return Estimate{}, false
	}
	sex = strings.TrimSpace(sex)
	activity = strings.TrimSpace(activity)
	if sex == "" || activity == "" {
		return Estimate{}, false
	}

	return Estimate{
		Calories: CalorieNeeds(age, weight, height, sex, activity),
		Protein:  Protein(weight),
	}, true
}
