package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/petroslamb/movierama/internal/repository"
)

const afterLoginPath = "/movies/"

type loginData struct {
	Username string
	Next     string
	Errors   formErrors
}

type signupData struct {
	Username string
	Errors   formErrors
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup", "Sign up", signupData{})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Unable to parse form submission.")
		return
	}
	form := parseSignupForm(r.PostForm)
	if errs := s.validateForm(form); errs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "signup", "Sign up", signupData{Username: form.Username, Errors: errs})
		return
	}

	user, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			s.render(w, r, http.StatusUnprocessableEntity, "signup", "Sign up", signupData{
				Username: form.Username,
				Errors:   formErrors{"username": "A user with that username already exists."},
			})
			return
		}
		if errors.Is(err, repository.ErrPasswordTooLong) {
			s.render(w, r, http.StatusUnprocessableEntity, "signup", "Sign up", signupData{
				Username: form.Username,
				Errors:   formErrors{"password": fmt.Sprintf("Ensure this password has at most %d bytes.", maxPasswordBytes)},
			})
			return
		}
		s.internalError(w, r, "create user", err)
		return
	}

	if err := s.sessions.Start(r.Context(), w, user.ID); err != nil {
		s.internalError(w, r, "start session", err)
		return
	}
	s.logger.Printf("user %d %q signed up", user.ID, user.Username)
	http.Redirect(w, r, afterLoginPath, http.StatusFound)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", "Log in", loginData{Next: r.URL.Query().Get("next")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Unable to parse form submission.")
		return
	}
	form := parseLoginForm(r.PostForm)
	next := r.PostForm.Get("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}

	if errs := s.validateForm(form); errs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "login", "Log in", loginData{Username: form.Username, Next: next, Errors: errs})
		return
	}

	user, err := s.repo.Users.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			s.render(w, r, http.StatusUnprocessableEntity, "login", "Log in", loginData{
				Username: form.Username,
				Next:     next,
				Errors:   formErrors{"": "Please enter a correct username and password. Note that both fields may be case-sensitive."},
			})
			return
		}
		s.internalError(w, r, "authenticate", err)
		return
	}

	if err := s.sessions.Start(r.Context(), w, user.ID); err != nil {
		s.internalError(w, r, "start session", err)
		return
	}
	http.Redirect(w, r, safeNext(next, afterLoginPath), http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(w, r); err != nil {
		s.logger.Printf("end session error: %v", err)
	}
	http.Redirect(w, r, afterLoginPath, http.StatusFound)
}
