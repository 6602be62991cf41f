// Package forms gates the site's HTML forms: nothing is submitted while a
// validation error is unresolved.
package forms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	model "github.com/zhouzirui/healthdesk/internal/model/forms"
	"github.com/zhouzirui/healthdesk/internal/nutrition"
	"github.com/zhouzirui/healthdesk/internal/validation"
)

// Form names.
const (
	MealPlan       = "meal-plan"
	SignIn         = "signin"
	SignUp         = "signup"
	ForgotPassword = "forgot-password"
)

// DefaultSubmitDelay is how long the busy indicator shows before a valid form
// is submitted.
const DefaultSubmitDelay = 500 * time.Millisecond

var (
	ErrUnknownForm   = errors.New("unknown form")
	ErrMalformedForm = errors.New("malformed form values")
	ErrSubmitFailed  = errors.New("form submission failed")
)

// Definition describes where a form posts and where the user lands after a
// successful submission.
type Definition struct {
	Name     string `json:"name"`
	Action   string `json:"action"`
	Redirect string `json:"redirect,omitempty"`
}

// Definitions lists the forms the gate knows about.
func Definitions() []Definition {
	return []Definition{
		{Name: MealPlan, Action: "/generate_plan"},
		{Name: SignIn, Action: "/signin", Redirect: "/"},
		{Name: SignUp, Action: "/signup", Redirect: "/signin"},
		{Name: ForgotPassword, Action: "/forgot-password", Redirect: "/signin"},
	}
}

// Outcome is what the page needs to show after validating or submitting.
type Outcome struct {
	Form      string                   `json:"form"`
	Valid     bool                     `json:"valid"`
	Fields    []validation.FieldResult `json:"fields,omitempty"`
	Focus     string                   `json:"focus,omitempty"`
	Notice    string                   `json:"notice,omitempty"`
	Estimate  *nutrition.Estimate      `json:"estimate,omitempty"`
	Submitted bool                     `json:"submitted"`
	Redirect  string                   `json:"redirect,omitempty"`
}

// Options configures a Gate.
type Options struct {
	// TargetBaseURL receives the native submissions. Empty accepts valid
	// submissions locally.
	TargetBaseURL string
	SubmitDelay   time.Duration
	Timeout       time.Duration
	Logger        *zap.Logger
}

// Gate validates forms and forwards the valid ones.
type Gate struct {
	defs    map[string]Definition
	decoder *schema.Decoder
	client  *resty.Client
	delay   time.Duration
	logger  *zap.Logger
}

// NewGate builds a gate over Definitions.
func NewGate(opts Options) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	defs := make(map[string]Definition)
	for _, def := range Definitions() {
		defs[def.Name] = def
	}

	g := &Gate{
		defs:    defs,
		decoder: decoder,
		delay:   opts.SubmitDelay,
		logger:  logger.Named("form_gate"),
	}
	if base := strings.TrimRight(opts.TargetBaseURL, "/"); base != "" {
		g.client = resty.New().SetBaseURL(base)
		if opts.Timeout > 0 {
			g.client.SetTimeout(opts.Timeout)
		}
	}
	return g
}

// Definition looks up a form by name.
func (g *Gate) Definition(name string) (Definition, bool) {
	def, ok := g.defs[name]
	return def, ok
}

// Validate decodes values and runs the form's rules.
func (g *Gate) Validate(name string, values url.Values) (Outcome, error) {
	if _, ok := g.defs[name]; !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownForm, name)
	}

	out := Outcome{Form: name}
	switch name {
	case MealPlan:
		var form model.MealPlan
		if err := g.decode(&form, values); err != nil {
			return Outcome{}, err
		}
		res := validation.ValidateForm(validation.MealPlanFields(form))
		out.Valid = res.Valid
		out.Fields = res.Fields
		out.Focus = res.Focus
		out.Notice = res.Notice
		if est, ok := nutrition.FromMealPlan(form); ok && res.Valid {
			out.Estimate = &est
		}
	case SignIn:
		var form model.SignIn
		if err := g.decode(&form, values); err != nil {
			return Outcome{}, err
		}
		out.setResult(validation.ValidateSignIn(form))
	case SignUp:
		var form model.SignUp
		if err := g.decode(&form, values); err != nil {
			return Outcome{}, err
		}
		out.setResult(validation.ValidateSignUp(form))
	case ForgotPassword:
		var form model.ForgotPassword
		if err := g.decode(&form, values); err != nil {
			return Outcome{}, err
		}
		out.setResult(validation.ValidateForgotPassword(form))
	}
	return out, nil
}

// Submit validates the form and, when it passes, waits out the submit delay
// and performs the submission. An invalid form is returned as is and never
// leaves the gate.
func (g *Gate) Submit(ctx context.Context, name string, values url.Values) (Outcome, error) {
	out, err := g.Validate(name, values)
	if err != nil || !out.Valid {
		return out, err
	}

	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return out, ctx.Err()
		case <-timer.C:
		}
	}

	def := g.defs[name]
	if g.client != nil {
		if err := g.forward(ctx, def, values); err != nil {
			return out, err
		}
	} else {
		g.logger.Info("form accepted locally", zap.String("form", name))
	}

	out.Submitted = true
	out.Redirect = def.Redirect
	return out, nil
}

func (g *Gate) forward(ctx context.Context, def Definition, values url.Values) error {
	res, err := g.client.R().
		SetContext(ctx).
		SetFormDataFromValues(values).
		Post(def.Action)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("forward %s: %w", def.Name, ctxErr)
		}
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if !res.IsSuccess() {
		g.logger.Warn("form target rejected submission",
			zap.String("form", def.Name),
			zap.Int("status", res.StatusCode()),
		)
		return fmt.Errorf("%w: status %d", ErrSubmitFailed, res.StatusCode())
	}
	g.logger.Info("form submitted", zap.String("form", def.Name), zap.String("action", def.Action))
	return nil
}

// DecodeMealPlan decodes meal-plan values without validating them.
func (g *Gate) DecodeMealPlan(values url.Values) (model.MealPlan, error) {
	var form model.MealPlan
	err := g.decode(&form, values)
	return form, err
}

func (g *Gate) decode(dst any, values url.Values) error {
	if err := g.decoder.Decode(dst, values); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}
	return nil
}

func (o *Outcome) setResult(res validation.Result) {
	o.Valid = res.Valid
	o.Notice = res.Message
}
