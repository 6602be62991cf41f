// Package forms declares the payloads of the site's HTML forms.
package forms

// MealPlan is the meal-planning form. Numeric inputs stay strings so the
// validator sees exactly what the user typed.
type MealPlan struct {
	Age               string   `schema:"age" json:"age"`
	Sex               string   `schema:"sex" json:"sex"`
	Weight            string   `schema:"weight" json:"weight"`
	Height            string   `schema:"height" json:"height"`
	ActivityLevel     string   `schema:"activity_level" json:"activity_level"`
	Budget            string   `schema:"budget" json:"budget"`
	DietaryPreference string   `schema:"dietary_preference" json:"dietary_preference"`
	PantryItems       []string `schema:"pantry_items" json:"pantry_items,omitempty"`
}

// SignIn is the sign-in form.
type SignIn struct {
	Email    string `schema:"email"`
	Password string `schema:"password"`
}

// SignUp is the account creation form.
type SignUp struct {
	FirstName       string `schema:"firstName"`
	LastName        string `schema:"lastName"`
	Email           string `schema:"email"`
	Phone           string `schema:"phone"`
	Password        string `schema:"password"`
	ConfirmPassword string `schema:"confirmPassword"`
	Terms           bool   `schema:"terms"`
}

// ForgotPassword is the password reset request form.
type ForgotPassword struct {
	Email string `schema:"email"`
}
