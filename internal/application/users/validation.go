package users

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

// Field limits mirror the users table.
const (
	MaxEmailLength       = 200
	MaxPhoneNumberLength = 20
	MaxFullNameLength    = 200
	MaxPasswordLength    = 100
	MaxMetadataLength    = 2000
)

type rule struct {
	tag     string
	message string
}

type fieldRules struct {
	label string
	value string
	rules []rule
}

func required() rule { return rule{tag: "required", message: "can't be blank"} }

func maxLength(n int) rule {
	return rule{tag: fmt.Sprintf("max=%d", n), message: fmt.Sprintf("is too long (maximum is %d characters)", n)}
}

// mailtoEmail accepts addresses of the mailto URI form: a dotless domain such as foo@bar is valid.
var mailtoEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

func emailFormat() rule { return rule{tag: "mailto_email", message: "is invalid"} }

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("mailto_email", func(fl validator.FieldLevel) bool {
		return mailtoEmail.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validateInput checks every rule of every field, so all violations are reported together.
// validator.Struct stops at the first failing tag per field, hence one Var call per rule.
func validateInput(v *validator.Validate, in RegisterUserInput) *domerrors.ValidationError {
	fields := []fieldRules{
		{"Email", in.Email, []rule{required(), maxLength(MaxEmailLength), emailFormat()}},
		{"Phone number", in.PhoneNumber, []rule{required(), maxLength(MaxPhoneNumberLength)}},
		{"Full name", in.FullName, []rule{maxLength(MaxFullNameLength)}},
		{"Password", in.Password, []rule{required(), maxLength(MaxPasswordLength)}},
		{"Metadata", in.Metadata, []rule{maxLength(MaxMetadataLength)}},
	}
	verr := &domerrors.ValidationError{}
	for _, f := range fields {
		for _, r := range f.rules {
			if err := v.Var(f.value, r.tag); err != nil {
				verr.Add(f.label + " " + r.message)
			}
		}
	}
	return verr
}

func takenMessage(label string) string {
	return label + " has already been taken"
}
