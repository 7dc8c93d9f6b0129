package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/petroslamb/movierama/internal/domain"
)

const maxRequestBody = 1 << 20 // 1 MiB

const invalidChoiceMessage = "Select a valid choice. That choice is not one of the available choices."

// bcrypt only hashes the first 72 bytes.
const maxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
	return v
}

// formErrors maps field names to a message for the first failed rule.
type formErrors map[string]string

type movieForm struct {
	Title       string `validate:"utf8,required,max=200"`
	Description string `validate:"utf8,required,max=1000"`
}

type voteForm struct {
	Vote string `validate:"required,oneof=like dislike remove"`
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type signupForm struct {
	Username string `validate:"required,min=3,max=150,username"`
	Password string `validate:"required,min=8,pwbytes"`
	Confirm  string `validate:"required,eqfield=Password"`
}

func parseMovieForm(values url.Values) movieForm {
	return movieForm{
		Title:       strings.TrimSpace(values.Get("title")),
		Description: strings.TrimSpace(values.Get("description")),
	}
}

func parseVoteForm(values url.Values) voteForm {
	return voteForm{Vote: strings.ToLower(strings.TrimSpace(values.Get("vote")))}
}

func parseLoginForm(values url.Values) loginForm {
	return loginForm{
		Username: strings.TrimSpace(values.Get("username")),
		Password: values.Get("password"),
	}
}

func parseSignupForm(values url.Values) signupForm {
	return signupForm{
		Username: strings.TrimSpace(values.Get("username")),
		Password: values.Get("password"),
		Confirm:  values.Get("confirm"),
	}
}

// validateForm runs the struct rules on form and translates failures into
// per-field messages. A nil map means the form is valid.
func (s *Server) validateForm(form interface{}) formErrors {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return formErrors{"": "Invalid form submission."}
	}
	out := make(formErrors, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "oneof":
		return invalidChoiceMessage
	case "eqfield":
		return "The two password fields didn't match."
	case "pwbytes":
		return fmt.Sprintf("Ensure this password has at most %d bytes.", maxPasswordBytes)
	case "utf8":
		return "Enter valid UTF-8 text."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Enter a valid value."
	}
}

// parseForm reads an urlencoded body of at most maxRequestBody bytes.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	return r.ParseForm()
}

// parseOwnerFilter reads the optional user filter. raw is returned for
// redisplay; msg is non-empty when the value does not name a known user.
func parseOwnerFilter(query url.Values, users []domain.User) (ownerID *int64, raw string, msg string) {
	raw = strings.TrimSpace(query.Get("user"))
	if raw == "" {
		return nil, raw, ""
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, raw, invalidChoiceMessage
	}
	for _, u := range users {
		if u.ID == id {
			return &id, raw, ""
		}
	}
	return nil, raw, invalidChoiceMessage
}

// parsePage treats anything that is not an integer as the first page.
// Out of range numbers are clamped by the listing service.
func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return page
}

// parseID reads a positive integer route parameter.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeNext returns next when it is a path on this site, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// loginURL builds the login redirect for an anonymous request to uri.
// Slashes stay readable in the next parameter.
func loginURL(uri string) string {
	return "/accounts/login/?next=" + strings.ReplaceAll(url.QueryEscape(uri), "%2F", "/")
}
