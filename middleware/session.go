package middleware

import (
	"context"
	"net/http"

	"shopfront/globals"
	"shopfront/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

// Session binds the request to a browser session, issuing the sid cookie on
// first contact. The cart lives under that id.
func Session(secure bool) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			sid := ""
			if c, err := r.Cookie(globals.SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = utils.GetUUID()
				http.SetCookie(w, &http.Cookie{
					Name:     globals.SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), globals.SessionIDKey, sid)
			next(w, r.WithContext(ctx), ps)
		}
	}
}
