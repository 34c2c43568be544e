package handlers

import (
	"net/http"
)

// currentUserID reads the authenticated user id placed into the request
// context by the JWT middleware. Zero means the route was wired without auth.
func currentUserID(r *http.Request) int {
	id, _ := r.Context().Value("user_id").(int)
	return id
}
