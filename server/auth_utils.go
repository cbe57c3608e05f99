package server

import (
	"net/http"
	"net/url"
)

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectWithQuery(w, r, path, url.Values{"error": {errorMsg}})
}

// redirectWithNotice carries a success message to the next page.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	redirectWithQuery(w, r, path, url.Values{"notice": {notice}})
}

func redirectWithQuery(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	redirectSuccess(w, r, path+"?"+query.Encode())
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
