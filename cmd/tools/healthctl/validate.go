package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	formsvc "github.com/zhouzirui/healthdesk/internal/service/forms"
	"github.com/zhouzirui/healthdesk/internal/validation"
)

// errInvalid is returned when the checked input fails its rules.
var errInvalid = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a field or a whole form against the site's rules",
}

var validateFieldCmd = &cobra.Command{
	Use:     "field <id> <value>",
	Short:   "Validate a single field as it would be on blur",
	Example: "  healthctl validate field budget 5001",
	Args:    cobra.ExactArgs(2),
	RunE:    runValidateField,
}

var validateFormCmd = &cobra.Command{
	Use:     "form <name> [key=value...]",
	Short:   "Validate a whole form as it would be on submit",
	Example: "  healthctl validate form signin email=a@b.co password=secret",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runValidateForm,
}

func init() {
	validateCmd.AddCommand(validateFieldCmd)
	validateCmd.AddCommand(validateFormCmd)
}

func runValidateField(cmd *cobra.Command, args []string) error {
	res := validation.ValidateInput(args[0], args[1], validation.MealPlanRequires(args[0]))
	if !res.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], res.Message)
		return errInvalid
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
	return nil
}

func runValidateForm(cmd *cobra.Command, args []string) error {
	values := url.Values{}
	for _, pair := range args[1:] {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", pair)
		}
		values.Add(key, value)
	}

	out, err := formsvc.NewGate(formsvc.Options{Logger: logger}).Validate(args[0], values)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if out.Valid {
		fmt.Fprintln(w, "ok")
		if out.Estimate != nil {
			fmt.Fprintln(w, out.Estimate.Summary())
		}
		return nil
	}

	for _, field := range out.Fields {
		if !field.Valid {
			fmt.Fprintf(w, "%s: %s\n", field.ID, field.Message)
		}
	}
	if out.Notice != "" {
		fmt.Fprintln(w, out.Notice)
	}
	if out.Focus != "" {
		fmt.Fprintf(w, "focus: %s\n", out.Focus)
	}
	return errInvalid
}
