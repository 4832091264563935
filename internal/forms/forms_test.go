package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kidandcat/todo/internal/db"
)

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestBindRegister_AllMissing(t *testing.T) {
	_, errs := BindRegister(postForm(url.Values{}))
	for _, f := range []string{"user_name", "email", "password"} {
		if errs[f] != "This field is required." {
			t.Fatalf("expected required error on %s, got %v", f, errs)
		}
	}
}

func TestBindRegister_KeepsRawValues(t *testing.T) {
	f, errs := BindRegister(postForm(url.Values{
		"user_name": {"Ada Lovelace"},
		"email":     {"not-an-email"},
		"password":  {" pw "},
	}))
	if errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if f.UserName != "Ada Lovelace" || f.Email != "not-an-email" || f.Password != " pw " {
		t.Fatalf("unexpected form %+v", f)
	}
}

func TestBindLogin_BlankPassword(t *testing.T) {
	_, errs := BindLogin(postForm(url.Values{"email": {"a@b.c"}, "password": {"   "}}))
	if !errs.Has("password") || errs.Has("email") {
		t.Fatalf("expected only password error, got %v", errs)
	}
}

func TestBindTask(t *testing.T) {
	f, errs := BindTask(postForm(url.Values{"enter_task": {"buy milk"}, "due_date": {"2026-10-20"}}))
	if errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if !f.Due().Equal(db.NewDate(2026, time.October, 20)) {
		t.Fatalf("unexpected due date %v", f.Due())
	}
}

func TestBindTask_InvalidDate(t *testing.T) {
	_, errs := BindTask(postForm(url.Values{"enter_task": {"buy milk"}, "due_date": {"20/10/2026"}}))
	if errs["due_date"] != "Not a valid date value." {
		t.Fatalf("expected date error, got %v", errs)
	}
	_, errs = BindTask(postForm(url.Values{"enter_task": {"buy milk"}}))
	if errs["due_date"] != "This field is required." {
		t.Fatalf("expected required error, got %v", errs)
	}
}

func TestBindEdit_UsesTaskFieldNames(t *testing.T) {
	_, errs := BindEdit(postForm(url.Values{"due_date": {"2026-10-20"}}))
	if !errs.Has("enter_task") {
		t.Fatalf("expected enter_task error, got %v", errs)
	}
}

func TestEditFormFor(t *testing.T) {
	f := EditFormFor(&db.Task{TaskName: "buy milk", DueDate: db.NewDate(2026, time.October, 20)})
	if f.TaskName != "buy milk" || f.DueDate != "2026-10-20" {
		t.Fatalf("unexpected prefill %+v", f)
	}
}

func TestNewValidator_NotBlank(t *testing.T) {
	v := newValidator()
	if err := v.Var(" \t", "notblank"); err == nil {
		t.Fatalf("expected whitespace-only value to fail notblank")
	}
	if err := v.Var(" x ", "notblank"); err != nil {
		t.Fatalf("expected padded value to pass, got %v", err)
	}
}
