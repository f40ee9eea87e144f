package utils

import (
	"net/http"

	"shopfront/globals"
)

func GetUserIDFromRequest(r *http.Request) string {
	ctx := r.Context()
	requestingUserID, ok := ctx.Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

// GetSessionIDFromRequest returns the browser session id set by middleware.Session.
func GetSessionIDFromRequest(r *http.Request) string {
	sid, ok := r.Context().Value(globals.SessionIDKey).(string)
	if !ok {
		return ""
	}
	return sid
}
