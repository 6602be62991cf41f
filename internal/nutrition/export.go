package nutrition

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zhouzirui/healthdesk/internal/model/forms"
)

// PlanSheet is the worksheet name used by WriteWorkbook.
const PlanSheet = "Plan"

// WriteWorkbook exports the submitted profile and its estimate as XLSX.
func WriteWorkbook(w io.Writer, form forms.MealPlan, est Estimate) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", PlanSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Smart Indian Meal Planner"},
		{"Field", "Value"},
		{"Age", form.Age},
		{"Sex", form.Sex},
		{"Weight (kg)", form.Weight},
		{"Height (cm)", form.Height},
		{"Activity level", form.ActivityLevel},
		{"Budget (₹/day)", form.Budget},
		{"Dietary preference", form.DietaryPreference},
		{"Pantry items", strings.Join(form.PantryItems, ", ")},
		{"Estimated calories (kcal)", est.Calories},
		{"Protein (g)", est.Protein},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(PlanSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(PlanSheet, "A1", "B2", header); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetColWidth(PlanSheet, "A", "A", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
