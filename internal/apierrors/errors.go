// Package apierrors is the error taxonomy returned to API callers.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type GeneralCode int

const (
	CodeValidationError     GeneralCode = 100
	CodeMalformedJSON       GeneralCode = 101
	CodeNotImplemented      GeneralCode = 104
	CodeTransactionInvalid  GeneralCode = 105
	CodeInsufficientFunds   GeneralCode = 109
	CodeGasEstimationFailed GeneralCode = 111
)

type FieldCode int

const (
	RequiredField       FieldCode = 1000
	IncorrectFormat     FieldCode = 1001
	InvalidAddress      FieldCode = 1002
	AddressNotSupported FieldCode = 1003
	ValueOutOfRange     FieldCode = 1004
	UnsupportedOption   FieldCode = 1006
	InternalError       FieldCode = 1008
	TokenNotSupported   FieldCode = 1009
	FieldInvalid        FieldCode = 1010
)

const (
	ReasonPercentageOutOfRange       = "MUST_BE_LESS_THAN_OR_EQUAL_TO_ONE"
	ReasonInsufficientAssetLiquidity = "INSUFFICIENT_ASSET_LIQUIDITY"
)

// APIError is implemented by every error that is safe to show to callers as is.
type APIError interface {
	error
	StatusCode() int
	GeneralCode() GeneralCode
}

type FieldError struct {
	Field  string    `json:"field"`
	Code   FieldCode `json:"code"`
	Reason string    `json:"reason"`
}

type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Field is shorthand for a single-field validation error.
func Field(field string, code FieldCode, reason string) *ValidationError {
	return NewValidationError(FieldError{Field: field, Code: code, Reason: reason})
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) StatusCode() int          { return http.StatusBadRequest }
func (e *ValidationError) GeneralCode() GeneralCode { return CodeValidationError }

// RevertError is a decoded on-chain revert.
type RevertError struct {
	Name   string
	Reason string
	Values map[string]any
	Data   hexutil.Bytes
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	}
	return e.Name
}

func (e *RevertError) StatusCode() int          { return http.StatusBadRequest }
func (e *RevertError) GeneralCode() GeneralCode { return CodeTransactionInvalid }

type InsufficientFundsError struct{}

func (e *InsufficientFundsError) Error() string            { return "Insufficient funds for transaction" }
func (e *InsufficientFundsError) StatusCode() int          { return http.StatusBadRequest }
func (e *InsufficientFundsError) GeneralCode() GeneralCode { return CodeInsufficientFunds }

// GasEstimationError is a failed simulation whose revert could not be decoded.
type GasEstimationError struct{}

func (e *GasEstimationError) Error() string            { return "Gas estimation failed" }
func (e *GasEstimationError) StatusCode() int          { return http.StatusBadRequest }
func (e *GasEstimationError) GeneralCode() GeneralCode { return CodeGasEstimationFailed }

type InternalServerError struct {
	Message string
}

func (e *InternalServerError) Error() string            { return e.Message }
func (e *InternalServerError) StatusCode() int          { return http.StatusInternalServerError }
func (e *InternalServerError) GeneralCode() GeneralCode { return 0 }

// AsAPIError unwraps err to an APIError if it carries one.
func AsAPIError(err error) (APIError, bool) {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Body is the JSON error payload.
type Body struct {
	Code             GeneralCode    `json:"code,omitempty"`
	Reason           string         `json:"reason"`
	ValidationErrors []FieldError   `json:"validationErrors,omitempty"`
	Values           map[string]any `json:"values,omitempty"`
}

// ToBody renders err for callers. Errors outside the taxonomy are hidden
// behind a generic 500.
func ToBody(err error) (int, Body) {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return http.StatusInternalServerError, Body{Reason: "Internal Server Error"}
	}
	switch e := apiErr.(type) {
	case *ValidationError:
		return e.StatusCode(), Body{Code: e.GeneralCode(), Reason: "Validation Failed", ValidationErrors: e.Fields}
	case *RevertError:
		values := map[string]any{"name": e.Name}
		if e.Reason != "" {
			values["message"] = e.Reason
		}
		for k, v := range e.Values {
			values[k] = v
		}
		return e.StatusCode(), Body{Code: e.GeneralCode(), Reason: "Transaction Invalid", Values: values}
	case *InternalServerError:
		return e.StatusCode(), Body{Reason: "Internal Server Error"}
	default:
		return apiErr.StatusCode(), Body{Code: apiErr.GeneralCode(), Reason: apiErr.Error()}
	}
}
