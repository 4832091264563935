package forms

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kidandcat/todo/internal/db"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		return name
	})
	// Whitespace-only input counts as missing.
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// Errors maps a form field name to the message rendered next to it.
type Errors map[string]string

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func check(form any) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"": err.Error()}
	}
	out := Errors{}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "datetime":
		return "Not a valid date value."
	}
	return "Invalid value."
}

type RegisterForm struct {
	UserName string `form:"user_name" validate:"required,notblank"`
	Email    string `form:"email" validate:"required,notblank"`
	Password string `form:"password" validate:"required,notblank"`
}

func BindRegister(r *http.Request) (RegisterForm, Errors) {
	f := RegisterForm{
		UserName: r.PostFormValue("user_name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	return f, check(f)
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,notblank"`
	Password string `form:"password" validate:"required,notblank"`
}

func BindLogin(r *http.Request) (LoginForm, Errors) {
	f := LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	return f, check(f)
}

// TaskForm backs the dashboard "add task" form.
type TaskForm struct {
	TaskName string `form:"enter_task" validate:"required,notblank"`
	DueDate  string `form:"due_date" validate:"required,notblank,datetime=2006-01-02"`
}

// Due is only meaningful after the form validated.
func (f TaskForm) Due() db.Date {
	d, _ := db.ParseDate(f.DueDate)
	return d
}

func BindTask(r *http.Request) (TaskForm, Errors) {
	f := TaskForm{
		TaskName: r.PostFormValue("enter_task"),
		DueDate:  strings.TrimSpace(r.PostFormValue("due_date")),
	}
	return f, check(f)
}

// EditForm has the same fields as TaskForm and is prefilled from the stored task.
type EditForm struct {
	TaskForm
}

func EditFormFor(t *db.Task) EditForm {
	return EditForm{TaskForm{TaskName: t.TaskName, DueDate: t.DueDate.String()}}
}

func BindEdit(r *http.Request) (EditForm, Errors) {
	f, errs := BindTask(r)
	return EditForm{f}, errs
}
