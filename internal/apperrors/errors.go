package apperrors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"

	"github.com/teampulse/teampulse-backend/internal/model"
	"github.com/teampulse/teampulse-backend/internal/scoring"
	"github.com/teampulse/teampulse-backend/internal/store"
)

// ErrorCategory classifies an error for handling and logging.
type ErrorCategory string

const (
	CategoryNotFound         ErrorCategory = "not_found"
	CategoryValidation       ErrorCategory = "validation"
	CategoryFeatureMismatch  ErrorCategory = "feature_mismatch"
	CategoryModelUnavailable ErrorCategory = "model_unavailable"
	CategoryRateLimit        ErrorCategory = "rate_limit"
	CategoryExternalAPI      ErrorCategory = "external_api"
	CategoryInternal         ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with the category and HTTP status the
// API layer needs.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from an errbuilder with category and status.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewNotFoundError reports a missing resource, e.g. an unknown developer ID.
func NewNotFoundError(resource string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s not found", resource))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewValidationError reports a malformed request.
func NewValidationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewFeatureMismatchError reports schema drift between the feature extractor
// and a trained model artifact. Client-visible because the request cannot be
// served until extractor and artifact versions agree.
func NewFeatureMismatchError(cause *scoring.FeatureMismatchError) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("model", errors.New(cause.Model))
	for _, name := range cause.Missing {
		errorMap.Set("missing_"+name, errors.New("feature expected by model but not computed"))
	}
	for _, name := range cause.Extra {
		errorMap.Set("extra_"+name, errors.New("feature computed but unknown to model"))
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Feature schema does not match model").
		WithDetails(errbuilder.NewErrDetails(errorMap)).
		WithCause(cause)

	return NewAppError(builder, CategoryFeatureMismatch, http.StatusBadRequest)
}

// NewModelUnavailableError reports a missing or unloadable model artifact.
func NewModelUnavailableError(cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg("Scoring model unavailable")

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryModelUnavailable, http.StatusInternalServerError)
}

// NewRateLimitError reports an exhausted rate-limit budget.
func NewRateLimitError(retryAfter string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewExternalAPIError reports a failure talking to an upstream service.
func NewExternalAPIError(apiName string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s API error", apiName))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryExternalAPI, http.StatusBadGateway)
}

// NewInternalError reports an unexpected failure.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
}

// ToAppError converts any error to an AppError, mapping the domain sentinels
// onto the HTTP taxonomy.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var mismatch *scoring.FeatureMismatchError
	if errors.As(err, &mismatch) {
		return NewFeatureMismatchError(mismatch)
	}

	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError("developer", err)
	}

	if errors.Is(err, model.ErrModelNotFound) {
		return NewModelUnavailableError(err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// ErrorHandler is a gin middleware that turns errors attached to the context
// into structured JSON responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, gin.H{
			"error":    appErr.ErrBuilder.Msg,
			"category": appErr.Category,
		})
	}
}

// RecoveryHandler recovers panics into structured 500 responses.
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError("Internal server error", fmt.Errorf("panic: %v", recovered))
		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
			"error":    appErr.ErrBuilder.Msg,
			"category": appErr.Category,
		})
	})
}

// LogError logs an error at the level its category warrants. Client mistakes
// log as warnings; deployment and internal failures as errors.
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"http_status", err.HTTPStatus,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"ip", c.ClientIP(),
	)

	msg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryNotFound, CategoryValidation, CategoryRateLimit:
		logEntry.Warn(msg)
	case CategoryFeatureMismatch, CategoryModelUnavailable:
		// Deployment problems: drifted or missing artifacts need an operator.
		logEntry.Error(msg, "cause", cause)
	default:
		if cause != nil {
			logEntry.Error(msg, "cause", cause)
		} else {
			logEntry.Error(msg)
		}
	}
}
