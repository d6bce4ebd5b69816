package httpx

import "net/http"

// IsAJAX reports whether the request came from page script rather than a
// form submission or navigation.
func IsAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// Result is the body returned to AJAX callers instead of a page or
// redirect.
type Result struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Messages []string `json:"messages,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
}

// OK writes a successful Result.
func OK(w http.ResponseWriter, message, redirect string) {
	JSON(w, http.StatusOK, Result{Success: true, Message: message, Redirect: redirect})
}

// Fail writes a failed Result with the given status.
func Fail(w http.ResponseWriter, status int, message string, details ...string) {
	JSON(w, status, Result{Success: false, Message: message, Messages: details})
}
