package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

func fields(errs ValidationErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateRegister(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name       string
		req        RegisterRequest
		wantFields []string
	}{
		{
			name:       "valid",
			req:        RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123"},
			wantFields: []string{},
		},
		{
			name:       "blank name",
			req:        RegisterRequest{Name: "   ", Email: "ada@example.com", Password: "secret123"},
			wantFields: []string{"name"},
		},
		{
			name:       "bad email",
			req:        RegisterRequest{Name: "Ada", Email: "ada", Password: "secret123"},
			wantFields: []string{"email"},
		},
		{
			name:       "short password",
			req:        RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "abc1"},
			wantFields: []string{"password"},
		},
		{
			name:       "password without digit",
			req:        RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "abcdefghij"},
			wantFields: []string{"password"},
		},
		{
			name:       "password equals email",
			req:        RegisterRequest{Name: "Ada", Email: "ada1@example.com", Password: "ada1@example.com"},
			wantFields: []string{"password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateRegister(&tt.req)
			assert.ElementsMatch(t, tt.wantFields, fields(errs))
		})
	}
}

func TestValidatePasswordChange(t *testing.T) {
	bv := NewBusinessValidator()

	errs := bv.ValidatePasswordChange(&ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "secret123"})
	require.Len(t, errs, 1)
	assert.Equal(t, "new_password", errs[0].Field)
	assert.Equal(t, "business_logic", errs[0].Rule)

	assert.Empty(t, bv.ValidatePasswordChange(&ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "better456"}))
}

func TestCustomTags(t *testing.T) {
	v := New()

	slug := "intro-to-go"
	badSlug := "Intro To Go"
	zero := 0
	one := 1

	assert.NoError(t, v.ValidateStruct(&CourseCreateRequest{Title: "Go", Slug: slug}))

	err := v.ValidateStruct(&CourseUpdateRequest{Slug: &badSlug})
	require.Error(t, err)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "slug", verrs[0].Field)
	assert.Equal(t, "course_slug", verrs[0].Rule)

	assert.Error(t, v.ValidateStruct(&ModuleCreateRequest{Title: "Basics", Position: &zero}))
	assert.NoError(t, v.ValidateStruct(&ModuleCreateRequest{Title: "Basics", Position: &one}))

	err = v.ValidateStruct(&LessonCreateRequest{
		Title:     "Variables",
		Resources: []LessonResourceRequest{{Title: "Docs", URL: "not a url"}},
	})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "url", verrs[0].Field)
}

func TestValidateCourseUpdate_PublishRequiresLessons(t *testing.T) {
	bv := NewBusinessValidator()
	publish := true

	errs := bv.ValidateCourseUpdate(&CourseUpdateRequest{Published: &publish}, &models.Course{LessonCount: 0})
	require.Len(t, errs, 1)
	assert.Equal(t, "published", errs[0].Field)

	assert.Empty(t, bv.ValidateCourseUpdate(&CourseUpdateRequest{Published: &publish}, &models.Course{LessonCount: 3}))
	assert.Empty(t, bv.ValidateCourseUpdate(&CourseUpdateRequest{Published: &publish}, &models.Course{Published: true}))
}

func TestValidateEnrollment(t *testing.T) {
	bv := NewBusinessValidator()
	assert.Len(t, bv.ValidateEnrollment(&models.Course{ID: "c1"}), 1)
	assert.Empty(t, bv.ValidateEnrollment(&models.Course{ID: "c1", Published: true}))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Intro to Go":          "intro-to-go",
		"  Rust & C++: 2024!! ": "rust-c-2024",
		"---":                  "",
		"Déjà vu":              "d-j-vu",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
