package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hireloop-dev/recruit-manager/backend/internal/domain"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "服务器内部错误",
		Data:    nil,
	})
}

// domainError 把领域层的结构化错误翻译成统一的响应，
// 校验错误把完整的 字段 -> 问题列表 放进 data，方便前端逐字段展示
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	var transitionErr *domain.InvalidStatusTransitionError
	var lockedErr *domain.FieldLockedError
	var budgetErr *domain.BudgetExceededError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.errorResponse(w, r, "记录不存在")
	case errors.Is(err, domain.ErrConcurrentModification):
		h.errorResponse(w, r, err.Error())
	case errors.As(err, &vErr):
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: vErr.Error(),
			Data:    vErr.Violations,
		})
	case errors.As(err, &transitionErr), errors.As(err, &lockedErr), errors.As(err, &budgetErr):
		h.errorResponse(w, r, err.Error())
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
