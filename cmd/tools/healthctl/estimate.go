package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/healthdesk/internal/model/forms"
	"github.com/zhouzirui/healthdesk/internal/nutrition"
	"github.com/zhouzirui/healthdesk/internal/validation"
)

var (
	estAge      string
	estSex      string
	estWeight   string
	estHeight   string
	estActivity string
	estBudget   string
	estDiet     string
	estPantry   []string
	estOut      string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate daily calorie and protein needs",
	Long: `Computes the Mifflin-St Jeor estimate shown on the meal-planning form.

With --out the full form is validated and exported as an XLSX workbook.`,
	Args: cobra.NoArgs,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVar(&estAge, "age", "", "Age in years")
	estimateCmd.Flags().StringVar(&estSex, "sex", "", "male or female")
	estimateCmd.Flags().StringVar(&estWeight, "weight", "", "Weight in kg")
	estimateCmd.Flags().StringVar(&estHeight, "height", "", "Height in cm")
	estimateCmd.Flags().StringVar(&estActivity, "activity", nutrition.ModeratelyActive, "Activity level")
	estimateCmd.Flags().StringVar(&estBudget, "budget", "", "Daily budget in rupees (export only)")
	estimateCmd.Flags().StringVar(&estDiet, "diet", "", "Dietary preference (export only)")
	estimateCmd.Flags().StringSliceVar(&estPantry, "pantry", nil, "Pantry items (export only)")
	estimateCmd.Flags().StringVarP(&estOut, "out", "o", "", "Write the plan workbook to this path")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	est := nutrition.NewEstimator()
	for field, value := range map[string]string{
		nutrition.InputAge:      estAge,
		nutrition.InputSex:      estSex,
		nutrition.InputWeight:   estWeight,
		nutrition.InputHeight:   estHeight,
		nutrition.InputActivity: estActivity,
	} {
		est.Update(field, value)
	}

	current, ok := est.Current()
	if !ok {
		return errors.New("age, sex, weight, height and activity level are all required")
	}
	fmt.Fprintln(cmd.OutOrStdout(), current.Summary())

	if estOut == "" {
		return nil
	}

	form := forms.MealPlan{
		Age:               estAge,
		Sex:               estSex,
		Weight:            estWeight,
		Height:            estHeight,
		ActivityLevel:     estActivity,
		Budget:            estBudget,
		DietaryPreference: estDiet,
		PantryItems:       estPantry,
	}
	if res := validation.ValidateForm(validation.MealPlanFields(form)); !res.Valid {
		for id, msg := range res.Errors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", id, msg)
		}
		return errors.New(res.Notice)
	}

	f, err := os.Create(estOut)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := nutrition.WriteWorkbook(f, form, current); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close workbook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", estOut)
	return nil
}
