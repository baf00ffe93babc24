package dto

import (
	"errors"
	"reflect"
	"strings"

	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type CustomerRegistrationRequest struct {
	Name  string `json:"name" validate:"required" example:"Alex"`
	Email string `json:"email" validate:"required,email" example:"alex@gmail.com"`
	Age   int    `json:"age" validate:"gte=0,lte=150" example:"19"`
}

func (r *CustomerRegistrationRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func (r *CustomerRegistrationRequest) ToDomain() customer.RegistrationRequest {
	return customer.RegistrationRequest{
		Name:  r.Name,
		Email: r.Email,
		Age:   r.Age,
	}
}

// CustomerUpdateRequest fields are optional; a missing field leaves the stored value unchanged.
type CustomerUpdateRequest struct {
	Name  *string `json:"name,omitempty" example:"Alexander"`
	Email *string `json:"email,omitempty" validate:"omitempty,email" example:"alexander@gmail.com"`
	Age   *int    `json:"age,omitempty" validate:"omitempty,gte=0,lte=150" example:"20"`
}

func (r *CustomerUpdateRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func (r *CustomerUpdateRequest) ToDomain() customer.UpdateRequest {
	return customer.UpdateRequest{
		Name:  r.Name,
		Email: r.Email,
		Age:   r.Age,
	}
}

type CustomerResponse struct {
	ID    int64  `json:"id" example:"1"`
	Name  string `json:"name" example:"Alex"`
	Email string `json:"email" example:"alex@gmail.com"`
	Age   int    `json:"age" example:"19"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:    cust.ID,
		Name:  cust.Name,
		Email: cust.Email,
		Age:   cust.Age,
	}
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// validationError reports the first failing field as an apperrors.ValidationError.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &apperrors.ValidationError{Message: err.Error(), Cause: err}
	}
	fe := fieldErrs[0]
	return &apperrors.ValidationError{
		Field:   fe.Field(),
		Message: validationMessage(fe),
		Cause:   err,
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}
