package forms

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/nutrition"
	formsvc "github.com/zhouzirui/healthdesk/internal/service/forms"
	"github.com/zhouzirui/healthdesk/internal/validation"
	"github.com/zhouzirui/healthdesk/internal/view"
	"github.com/zhouzirui/healthdesk/pkg/utils"
)

const maxFormBytes = 64 << 10

// statusClientClosedRequest is logged when the caller went away mid-submission.
const statusClientClosedRequest = 499

// Handler 表单校验、热量估算与导出的HTTP处理器
type Handler struct {
	gate   *formsvc.Gate
	logger *zap.Logger
}

// New 创建表单处理器
func New(gate *formsvc.Gate, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gate: gate, logger: logger.Named("forms")}
}

// RegisterRoutes 注册表单相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/forms", h.handleListForms)
	r.Post("/forms/{form}/validate", h.handleValidateForm)
	r.Post("/forms/{form}/submit", h.handleSubmitForm)
	r.Post("/fields/{field}/validate", h.handleValidateField)
	r.Post("/estimate", h.handleEstimate)
	r.Post("/plan/export", h.handleExportPlan)
}

func (h *Handler) handleListForms(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, formsvc.Definitions())
}

// handleValidateForm 校验整张表单，不提交
func (h *Handler) handleValidateForm(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	out, err := h.gate.Validate(chi.URLParam(r, "form"), r.PostForm)
	if err != nil {
		respondGateError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

// handleSubmitForm 校验通过后提交表单
func (h *Handler) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	name := chi.URLParam(r, "form")
	out, err := h.gate.Submit(r.Context(), name, r.PostForm)
	if err != nil && r.Context().Err() != nil && errors.Is(err, context.Canceled) {
		h.logger.Debug("form submission abandoned by client", zap.String("form", name))
		w.WriteHeader(statusClientClosedRequest)
		return
	}
	if err != nil {
		h.logger.Warn("form submission failed", zap.String("form", name), zap.Error(err))
		respondGateError(w, err)
		return
	}
	if !out.Valid {
		utils.RespondJSON(w, http.StatusUnprocessableEntity, out)
		return
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

// handleValidateField 失焦时校验单个字段
func (h *Handler) handleValidateField(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	field := chi.URLParam(r, "field")
	// 未声明required时按膳食计划表单的定义判断
	required := validation.MealPlanRequires(field)
	if raw := r.PostForm.Get("required"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid required flag")
			return
		}
		required = parsed
	}

	result := validation.FieldResult{ID: field, Result: validation.ValidateInput(field, r.PostForm.Get("value"), required)}
	utils.RespondJSON(w, http.StatusOK, result)
}

// handleEstimate 根据表单当前值估算每日热量与蛋白质
func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	form, err := h.gate.DecodeMealPlan(r.PostForm)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	est, ok := nutrition.FromMealPlan(form)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if utils.WantsHTML(r) {
		utils.RespondHTML(w, http.StatusOK, view.EstimateHTML(est))
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"estimate": est,
		"summary":  est.Summary(),
	})
}

// handleExportPlan 导出XLSX格式的个人资料与估算结果
func (h *Handler) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	out, err := h.gate.Validate(formsvc.MealPlan, r.PostForm)
	if err != nil {
		respondGateError(w, err)
		return
	}
	if !out.Valid || out.Estimate == nil {
		utils.RespondJSON(w, http.StatusUnprocessableEntity, out)
		return
	}

	form, err := h.gate.DecodeMealPlan(r.PostForm)
	if err != nil {
		respondGateError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := nutrition.WriteWorkbook(&buf, form, *out.Estimate); err != nil {
		h.logger.Error("export workbook failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="meal_plan.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write workbook response failed", zap.Error(err))
	}
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid form body")
		return false
	}
	return true
}

func respondGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, formsvc.ErrUnknownForm):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, formsvc.ErrMalformedForm):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, formsvc.ErrSubmitFailed):
		utils.RespondError(w, http.StatusBadGateway, "submission failed, please try again")
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
