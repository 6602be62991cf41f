package validation

import (
	"regexp"
	"unicode/utf8"

	"github.com/zhouzirui/healthdesk/internal/model/forms"
)

const (
	MsgSignInInvalid   = "Please enter a valid email and password (minimum 6 characters)."
	MsgNameRequired    = "Please enter your first and last name."
	MsgEmailInvalid    = "Please enter a valid email address."
	MsgPhoneInvalid    = "Please enter a valid phone number."
	MsgPasswordShort   = "Password must be at least 6 characters long."
	MsgPasswordsDiffer = "Passwords do not match."
	MsgTermsRequired   = "Please accept the Terms & Conditions."

	minPasswordLength = 6
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
)

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone accepts up to 16 digits with an optional leading plus, ignoring
// spaces, dashes and parentheses.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phoneSeparators.ReplaceAllString(phone, ""))
}

func validPassword(password string) bool {
	return utf8.RuneCountInString(password) >= minPasswordLength
}

// ValidateSignIn checks the sign-in form.
func ValidateSignIn(form forms.SignIn) Result {
	if ValidEmail(form.Email) && validPassword(form.Password) {
		return ok()
	}
	return fail(MsgSignInInvalid)
}

// ValidateSignUp checks the account creation form; the first failing rule wins.
func ValidateSignUp(form forms.SignUp) Result {
	switch {
	case form.FirstName == "" || form.LastName == "":
		return fail(MsgNameRequired)
	case !ValidEmail(form.Email):
		return fail(MsgEmailInvalid)
	case !ValidPhone(form.Phone):
		return fail(MsgPhoneInvalid)
	case !validPassword(form.Password):
		return fail(MsgPasswordShort)
	case form.Password != form.ConfirmPassword:
		return fail(MsgPasswordsDiffer)
	case !form.Terms:
		return fail(MsgTermsRequired)
	}
	return ok()
}

// ValidateForgotPassword checks the password reset form.
func ValidateForgotPassword(form forms.ForgotPassword) Result {
	if !ValidEmail(form.Email) {
		return fail(MsgEmailInvalid)
	}
	return ok()
}
