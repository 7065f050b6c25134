package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

const (
	MinPasswordLength = 8
	MaxDisplayOrder   = 1000
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	bv := &BusinessValidator{validate: newValidate()}
	bv.registerBusinessRules()
	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateRegister validates a sign-up request
func (bv *BusinessValidator) ValidateRegister(req *RegisterRequest) ValidationErrors {
	errors := bv.Validate(req)

	if strings.EqualFold(strings.TrimSpace(req.Password), strings.TrimSpace(req.Email)) {
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: "must not be the same as the email address",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidatePasswordChange validates a password change request
func (bv *BusinessValidator) ValidatePasswordChange(req *ChangePasswordRequest) ValidationErrors {
	errors := bv.Validate(req)

	if req.CurrentPassword != "" && req.CurrentPassword == req.NewPassword {
		errors = append(errors, ValidationError{
			Field:   "new_password",
			Message: "must differ from the current password",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateCourseUpdate validates course updates against the stored course
func (bv *BusinessValidator) ValidateCourseUpdate(req *CourseUpdateRequest, existing *models.Course) ValidationErrors {
	errors := bv.Validate(req)

	// Publishing an empty course leaves students with nothing to complete
	if req.Published != nil && *req.Published && !existing.Published && existing.LessonCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "published",
			Message: "course must have at least one lesson before publishing",
			Value:   existing.LessonCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateEnrollment checks that a course accepts new students
func (bv *BusinessValidator) ValidateEnrollment(course *models.Course) ValidationErrors {
	var errors ValidationErrors

	if !course.Published {
		errors = append(errors, ValidationError{
			Field:   "course",
			Message: "course is not published",
			Value:   course.ID,
			Rule:    "business_logic",
		})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	bv.validate.RegisterValidation("course_slug", func(fl validator.FieldLevel) bool {
		slug := fl.Field().String()
		return len(slug) <= 200 && slugPattern.MatchString(slug)
	})

	// Module and lesson positions (1-1000)
	bv.validate.RegisterValidation("display_order", func(fl validator.FieldLevel) bool {
		order := fl.Field().Int()
		return order >= 1 && order <= MaxDisplayOrder
	})

	bv.validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// IsStrongPassword requires MinPasswordLength characters with at least one letter and one digit
func IsStrongPassword(p string) bool {
	if len(p) < MinPasswordLength {
		return false
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// Slugify derives a course slug from a title
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 200 {
		slug = strings.TrimSuffix(slug[:200], "-")
	}
	return slug
}
