package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/healthdesk/internal/model/forms"
)

func validMealPlan() forms.MealPlan {
	return forms.MealPlan{
		Age:               "25",
		Sex:               "male",
		Weight:            "70",
		Height:            "175",
		ActivityLevel:     "sedentary",
		Budget:            "200",
		DietaryPreference: "veg",
	}
}

func TestValidateFormAllValid(t *testing.T) {
	res := ValidateForm(MealPlanFields(validMealPlan()))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Focus)
	assert.Empty(t, res.Notice)
	assert.Len(t, res.Fields, 7)
	assert.Empty(t, res.Errors())
}

func TestValidateFormFocusesFirstInvalid(t *testing.T) {
	form := validMealPlan()
	form.Weight = "2"
	form.Budget = "5001"
	form.DietaryPreference = ""

	res := ValidateForm(MealPlanFields(form))
	require.False(t, res.Valid)
	assert.Equal(t, FieldWeight, res.Focus)
	assert.Equal(t, MsgFormInvalid, res.Notice)

	errs := res.Errors()
	assert.Len(t, errs, 3)
	assert.Equal(t, MsgWeight, errs[FieldWeight])
	assert.Equal(t, MsgBudgetHigh, errs[FieldBudget])
	assert.Equal(t, MsgRequired, errs["dietary_preference"])
}

func TestValidateFormEmptyNumericIsRequiredError(t *testing.T) {
	form := validMealPlan()
	form.Age = " "

	res := ValidateForm(MealPlanFields(form))
	assert.False(t, res.Valid)
	assert.Equal(t, MsgRequired, res.Errors()[FieldAge])
}

func TestValidateFormSkipsOptionalFields(t *testing.T) {
	res := ValidateForm([]Field{
		{ID: "notes", Value: "", Required: false},
		{ID: FieldAge, Value: "40", Required: true},
	})
	assert.True(t, res.Valid)
	assert.Len(t, res.Fields, 1)
}
