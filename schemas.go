package main

import (
	"errors"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"tugasku/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Request shapes. Binding tags double as the input schema: gin runs them
// through validator/v10 and the pipeline turns failures into field-level
// error detail.

type AuthLoginIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1"`
}

type RefreshIn struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UserCreateIn struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=256"`
	LastName  string `json:"last_name" binding:"required,min=2,max=256"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,userpassword"`
}

type UserUpdateIn struct {
	FirstName string `json:"first_name" binding:"omitempty,min=2,max=256"`
	LastName  string `json:"last_name" binding:"omitempty,min=2,max=256"`
	Password  string `json:"password" binding:"omitempty,userpassword"`
}

type TagIn struct {
	Name string `json:"name" binding:"required,min=2,max=256"`
}

type TaskCreateIn struct {
	Title       string `json:"title" binding:"required,min=2,max=256"`
	Description string `json:"description" binding:"required"`
	Tags        []uint `json:"tags"`
}

type TaskUpdateIn struct {
	Title       string `json:"title" binding:"omitempty,min=2,max=256"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=pending in_progress done"`
	Tags        []uint `json:"tags"`
}

// Response shapes. Binding tags are re-checked before serialization so a
// malformed handler payload surfaces as an internal error instead of leaking.

type AuthTokensOut struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
	Key          string `json:"key" binding:"required"`
}

type AccessTokenOut struct {
	AccessToken string `json:"access_token" binding:"required"`
}

type UserOut struct {
	ID          uint      `json:"id" binding:"required"`
	FirstName   string    `json:"first_name" binding:"required"`
	LastName    string    `json:"last_name" binding:"required"`
	Email       string    `json:"email" binding:"required,email"`
	IsActive    bool      `json:"is_active"`
	DateCreated time.Time `json:"date_created" binding:"required"`
	DateUpdated time.Time `json:"date_updated" binding:"required"`
	LastLogin   time.Time `json:"last_login"`
}

type TagOut struct {
	ID          uint      `json:"id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	UserID      uint      `json:"user_id" binding:"required"`
	DateCreated time.Time `json:"date_created" binding:"required"`
	DateUpdated time.Time `json:"date_updated" binding:"required"`
}

type TaskOut struct {
	ID          uint      `json:"id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Status      string    `json:"status" binding:"required,oneof=pending in_progress done"`
	UserID      uint      `json:"user_id" binding:"required"`
	DateCreated time.Time `json:"date_created" binding:"required"`
	DateUpdated time.Time `json:"date_updated" binding:"required"`
	Tags        []TagOut  `json:"tags,omitempty"`
}

// TaskWithTags pairs a task with its resolved tags for detail responses.
// List responses hand plain models.Task to the schema and carry no tags key.
type TaskWithTags struct {
	Task models.Task
	Tags []models.Tag
}

// errOutputShape marks a handler payload the declared output schema cannot
// represent. The pipeline reports it generically as invalid response data.
var errOutputShape = errors.New("payload does not match output schema")

// OutputSchema converts one payload element into its validated wire form.
type OutputSchema func(item any) (any, error)

func validateOut(out any) error {
	return binding.Validator.ValidateStruct(out)
}

func tokensOut(item any) (any, error) {
	switch v := item.(type) {
	case AuthTokensOut:
		return v, validateOut(v)
	case AccessTokenOut:
		return v, validateOut(v)
	}
	return nil, errOutputShape
}

func userOut(item any) (any, error) {
	var u models.User
	switch v := item.(type) {
	case models.User:
		u = v
	case *models.User:
		u = *v
	default:
		return nil, errOutputShape
	}
	out := UserOut{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		IsActive:    u.IsActive,
		DateCreated: u.CreatedAt,
		DateUpdated: u.UpdatedAt,
		LastLogin:   u.LastLogin,
	}
	return out, validateOut(out)
}

func tagOut(item any) (any, error) {
	var tg models.Tag
	switch v := item.(type) {
	case models.Tag:
		tg = v
	case *models.Tag:
		tg = *v
	default:
		return nil, errOutputShape
	}
	out := TagOut{
		ID:          tg.ID,
		Name:        tg.Name,
		UserID:      tg.UserID,
		DateCreated: tg.CreatedAt,
		DateUpdated: tg.UpdatedAt,
	}
	return out, validateOut(out)
}

func taskOut(item any) (any, error) {
	var (
		tk   models.Task
		tags []models.Tag
	)
	switch v := item.(type) {
	case models.Task:
		tk = v
	case *models.Task:
		tk = *v
	case TaskWithTags:
		tk, tags = v.Task, v.Tags
	default:
		return nil, errOutputShape
	}
	out := TaskOut{
		ID:          tk.ID,
		Title:       tk.Title,
		Description: tk.Description,
		Status:      tk.Status,
		UserID:      tk.UserID,
		DateCreated: tk.CreatedAt,
		DateUpdated: tk.UpdatedAt,
	}
	for _, tg := range tags {
		out.Tags = append(out.Tags, TagOut{
			ID:          tg.ID,
			Name:        tg.Name,
			UserID:      tg.UserID,
			DateCreated: tg.CreatedAt,
			DateUpdated: tg.UpdatedAt,
		})
	}
	return out, validateOut(out)
}

// registerValidation wires JSON field names and the password rule into gin's
// validator engine so error detail uses wire names. Call once at startup.
func registerValidation() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("userpassword", func(fl validator.FieldLevel) bool {
		return passwordOK(fl.Field().String())
	})
}

// passwordOK enforces the registration password policy: at least 8 runes
// mixing upper case, lower case and digits.
func passwordOK(pw string) bool {
	if utf8.RuneCountInString(pw) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// validationMessage renders one field error in the catalog's wording.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Missing data for required field."
	case "email":
		return "Not a valid email address."
	case "min":
		return "Shorter than minimum length " + fe.Param() + "."
	case "max":
		return "Longer than maximum length " + fe.Param() + "."
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ") + "."
	case "userpassword":
		return "Password must be at least 8 characters and mix upper case, lower case and digits."
	}
	return "Invalid value."
}
