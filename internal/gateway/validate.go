package gateway

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterInput carries the raw register form fields.
type RegisterInput struct {
	FullName     string `validate:"required,min=3"`
	Email        string `validate:"required"`
	Password     string `validate:"required,min=6"`
	ExamCategory string
}

// LoginInput carries the raw login form fields.
type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// normalize trims the name and email. Passwords are taken verbatim.
func (in *RegisterInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.ExamCategory = strings.TrimSpace(in.ExamCategory)
}

func (in *LoginInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
}

// checkRegister applies the register rules in order: any empty field, then
// password length, then name length.
func checkRegister(v *validator.Validate, in RegisterInput) *Error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationError(OpRegister, ReasonInvalidInput)
	}

	failed := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return validationError(OpRegister, ReasonInvalidInput)
		}
		failed[fe.Field()] = fe.Tag()
	}
	if failed["Password"] == "min" {
		return validationError(OpRegister, ReasonWeakPassword)
	}
	return validationError(OpRegister, ReasonInvalidName)
}

func checkLogin(v *validator.Validate, in LoginInput) *Error {
	if err := v.Struct(in); err != nil {
		return validationError(OpLogin, ReasonInvalidInput)
	}
	return nil
}

func checkReset(v *validator.Validate, email string) *Error {
	if err := v.Var(email, "required"); err != nil {
		return validationError(OpReset, ReasonInvalidInput)
	}
	return nil
}
