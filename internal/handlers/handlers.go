package handlers

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kidandcat/todo/internal/db"
	"github.com/kidandcat/todo/internal/flash"
	"github.com/kidandcat/todo/internal/forms"
)

//go:embed static/*
var staticFS embed.FS

// Server holds what every handler needs. Build it with New.
type Server struct {
	store *db.Store
	flash *flash.Store
	log   *zap.Logger
	tmpl  *template.Template
	now   func() time.Time
}

type Option func(*Server)

// WithClock replaces time.Now for due-date labels.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(store *db.Store, flashes *flash.Store, log *zap.Logger, opts ...Option) *Server {
	s := &Server{store: store, flash: flashes, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.tmpl = s.parseTemplates()
	return s
}

// Routes returns the full handler chain: request logging, panic recovery, mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	staticSub, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /register", s.handleRegister)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)

	mux.HandleFunc("GET /dashboard/{user_name}", s.handleDashboard)
	mux.HandleFunc("POST /dashboard/{user_name}", s.handleDashboard)
	mux.HandleFunc("GET /edit/{user_name}/{task_id}", s.handleEdit)
	mux.HandleFunc("POST /edit/{user_name}/{task_id}", s.handleEdit)
	mux.HandleFunc("GET /delete/{user_name}/{task_id}", s.handleRemove("The task was deleted successfully"))
	mux.HandleFunc("GET /completed/{user_name}/{task_id}", s.handleRemove("The task was completed successfully"))

	return s.requestLogger(s.recoverer(mux))
}

func dashboardURL(userName string) string {
	return "/dashboard/" + url.PathEscape(userName)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to, category, msg string) {
	s.flash.Add(w, r, category, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.Error(msg, zap.Error(err), zap.String("path", r.URL.Path), zap.String("request_id", requestID(r)))
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

// storeError answers 404 for missing records and 500 for anything else.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	s.serverError(w, r, msg, err)
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("task_id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", map[string]any{"Intro": homeMarkdown})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, "register.html", map[string]any{"Title": "Register", "Form": forms.RegisterForm{}})
		return
	}

	f, errs := forms.BindRegister(r)
	if errs != nil {
		s.render(w, r, "register.html", map[string]any{"Title": "Register", "Form": f, "Errors": errs})
		return
	}

	ctx := r.Context()
	_, err := s.store.UserByEmail(ctx, f.Email)
	if err == nil {
		s.redirect(w, r, "/login", flash.Info, "You are already registered. Please log in.")
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		s.serverError(w, r, "lookup user", err)
		return
	}

	u, err := s.store.CreateUser(ctx, f.UserName, f.Email, f.Password)
	if errors.Is(err, db.ErrDuplicate) {
		// Lost a race with another registration for the same email.
		s.redirect(w, r, "/login", flash.Info, "You are already registered. Please log in.")
		return
	}
	if err != nil {
		s.serverError(w, r, "create user", err)
		return
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	s.redirect(w, r, "/login", flash.Success, "You are successfully registered. Please log in.")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, "login.html", map[string]any{"Title": "Log in", "Form": forms.LoginForm{}})
		return
	}

	f, errs := forms.BindLogin(r)
	data := map[string]any{"Title": "Log in", "Form": f, "Errors": errs}
	if errs != nil {
		s.render(w, r, "login.html", data)
		return
	}

	u, err := s.store.UserByEmail(r.Context(), f.Email)
	switch {
	case errors.Is(err, db.ErrNotFound):
		s.render(w, r, "login.html", data, flash.Message{Category: flash.Danger, Text: "Email not found. Please register."})
		return
	case err != nil:
		s.serverError(w, r, "lookup user", err)
		return
	case u.Password != f.Password:
		s.render(w, r, "login.html", data, flash.Message{Category: flash.Danger, Text: "Incorrect password. Please try again."})
		return
	}
	s.redirect(w, r, dashboardURL(u.Name), flash.Success, "Login successful!")
}

// handleLogout expires the session cookie if a client still carries one.
// Login never sets it.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	s.redirect(w, r, "/login", flash.Success, "You have been logged out.")
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userName := r.PathValue("user_name")
	u, err := s.store.UserByName(ctx, userName)
	if err != nil {
		s.storeError(w, r, "lookup user", err)
		return
	}

	var f forms.TaskForm
	var errs forms.Errors
	if r.Method == http.MethodPost {
		f, errs = forms.BindTask(r)
		if errs == nil {
			exists, err := s.store.TaskNameExists(ctx, f.TaskName)
			if err != nil {
				s.serverError(w, r, "check task name", err)
				return
			}
			if exists {
				s.redirect(w, r, dashboardURL(userName), flash.Info, "Task already added")
				return
			}
			if _, err := s.store.CreateTask(ctx, u, f.TaskName, f.Due()); err != nil {
				s.serverError(w, r, "create task", err)
				return
			}
			s.redirect(w, r, dashboardURL(userName), flash.Success, "Task added successfully!")
			return
		}
	}

	tasks, err := s.store.TasksByOwner(ctx, userName)
	if err != nil {
		s.serverError(w, r, "list tasks", err)
		return
	}
	s.render(w, r, "dashboard.html", map[string]any{
		"Title":  "Dashboard",
		"User":   u,
		"Tasks":  tasks,
		"Form":   f,
		"Errors": errs,
	})
}

// handleEdit does not check that the task belongs to user_name.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userName := r.PathValue("user_name")
	id, ok := taskID(r)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	task, err := s.store.TaskByID(ctx, id)
	if err != nil {
		s.storeError(w, r, "lookup task", err)
		return
	}

	data := map[string]any{"Title": "Edit task", "UserName": userName, "Task": task}
	// Only drives the nav bar; an unknown name still edits the task.
	switch u, err := s.store.UserByName(ctx, userName); {
	case err == nil:
		data["User"] = u
	case !errors.Is(err, db.ErrNotFound):
		s.serverError(w, r, "lookup user", err)
		return
	}
	if r.Method == http.MethodGet {
		data["Form"] = forms.EditFormFor(task)
		s.render(w, r, "edit.html", data)
		return
	}

	f, errs := forms.BindEdit(r)
	if errs != nil {
		data["Form"] = f
		data["Errors"] = errs
		s.render(w, r, "edit.html", data)
		return
	}
	if err := s.store.UpdateTask(ctx, id, f.TaskName, f.Due()); err != nil {
		s.storeError(w, r, "update task", err)
		return
	}
	s.redirect(w, r, dashboardURL(userName), flash.Success, "The task was edited successfully")
}

// handleRemove backs both delete and completed; tasks have no completion flag
// so finishing one removes it.
func (s *Server) handleRemove(notice string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if err := s.store.DeleteTask(r.Context(), id); err != nil {
			s.storeError(w, r, "delete task", err)
			return
		}
		s.redirect(w, r, dashboardURL(r.PathValue("user_name")), flash.Success, notice)
	}
}
