package validation

import (
	"strings"

	"github.com/zhouzirui/healthdesk/internal/model/forms"
)

// Field is one input of a form as submitted.
type Field struct {
	ID       string
	Value    string
	Required bool
}

// FieldResult pairs a field id with its validation result.
type FieldResult struct {
	ID string `json:"id"`
	Result
}

// FormResult aggregates the validation of a whole form.
type FormResult struct {
	Valid  bool          `json:"valid"`
	Fields []FieldResult `json:"fields"`
	// Focus is the first offending field; adapters focus it and scroll it into view.
	Focus  string `json:"focus,omitempty"`
	Notice string `json:"notice,omitempty"`
}

// Errors returns the failed fields keyed by id.
func (r FormResult) Errors() map[string]string {
	errs := make(map[string]string)
	for _, f := range r.Fields {
		if !f.Valid {
			errs[f.ID] = f.Message
		}
	}
	return errs
}

// ValidateForm re-validates every required field and reports whether the
// form may be submitted.
func ValidateForm(fields []Field) FormResult {
	result := FormResult{Valid: true, Fields: make([]FieldResult, 0, len(fields))}

	for _, field := range fields {
		if !field.Required {
			continue
		}

		var res Result
		if strings.TrimSpace(field.Value) == "" {
			res = fail(MsgRequired)
		} else if HasRule(field.ID) {
			res = ValidateField(field.ID, field.Value)
		} else {
			res = ok()
		}

		result.Fields = append(result.Fields, FieldResult{ID: field.ID, Result: res})
		if !res.Valid {
			if result.Valid {
				result.Focus = field.ID
			}
			result.Valid = false
		}
	}

	if !result.Valid {
		result.Notice = MsgFormInvalid
	}
	return result
}

// MealPlanFields lays the meal-plan form out in page order.
func MealPlanFields(form forms.MealPlan) []Field {
	return []Field{
		{ID: FieldAge, Value: form.Age, Required: true},
		{ID: "sex", Value: form.Sex, Required: true},
		{ID: FieldWeight, Value: form.Weight, Required: true},
		{ID: FieldHeight, Value: form.Height, Required: true},
		{ID: "activity_level", Value: form.ActivityLevel, Required: true},
		{ID: FieldBudget, Value: form.Budget, Required: true},
		{ID: "dietary_preference", Value: form.DietaryPreference, Required: true},
	}
}

// MealPlanRequires reports whether the meal-plan form marks fieldID as required.
func MealPlanRequires(fieldID string) bool {
	for _, field := range MealPlanFields(forms.MealPlan{}) {
		if field.ID == fieldID {
			return field.Required
		}
	}
	return false
}
