package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "marketchat/pkg/errors"
	"marketchat/pkg/logger"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Paginated(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}

	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Timestamp: now(),
		Data: PaginatedResponse{
			Items:      items,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	var httpErr *echo.HTTPError
	if !errors.As(err, &appErr) && errors.As(err, &httpErr) {
		return fail(c, httpErr.Code, codeForStatus(httpErr.Code), http.StatusText(httpErr.Code))
	}

	appErr = apperrors.As(err)
	if appErr.Status >= http.StatusInternalServerError {
		// Causes stay in the server log; callers only see the generic message.
		logger.Error("%s %s: %v", c.Request().Method, c.Request().URL.Path, errorCause(appErr))
	}

	return fail(c, appErr.Status, appErr.Code, appErr.Message)
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	if len(validationErr) == 0 {
		return fail(c, http.StatusBadRequest, apperrors.CodeValidation, "Invalid input data")
	}

	err := validationErr[0]
	field := strings.ToLower(err.Field())
	param := err.Param()

	var message string
	switch err.Tag() {
	case "required":
		message = field + " is required"
	case "min":
		message = field + " must be at least " + param
	case "max":
		message = field + " must be at most " + param
	case "oneof":
		message = field + " must be one of: " + param
	default:
		message = field + " is invalid"
	}

	return fail(c, http.StatusBadRequest, apperrors.CodeValidation, message)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound:
		return apperrors.CodeNotFound
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return apperrors.CodeBadRequest
	}
	if status >= http.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func errorCause(appErr *apperrors.AppError) error {
	if appErr.Err != nil {
		return appErr.Err
	}
	return appErr
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
