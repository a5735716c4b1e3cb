package webdav

import "net/http"

// authorized validates the request's Basic credentials against the configured
// username and password.
//
// Authentication is stateless: every request is checked independently and no
// session is kept. A missing Authorization header, a malformed Basic payload,
// and a credential mismatch are all indistinguishable to the client: each
// yields 401 with a challenge so a compliant client retries with credentials.
func (g *Gateway) authorized(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return username == g.username && password == g.password
}

// challenge writes the 401 response carrying the Basic challenge directive.
func (g *Gateway) challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+g.realm+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
