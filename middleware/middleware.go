package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shopfront/globals"
	"shopfront/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Username string   `json:"username"`
	UserID   string   `json:"userId"`
	Role     []string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator checks bearer tokens issued by the identity provider.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// loginRedirect is the body of a 401; the storefront sends the shopper to
// the login page and back to where they were.
func loginRedirect(r *http.Request) map[string]string {
	return map[string]string{"login": "/login?next=" + url.QueryEscape(r.URL.RequestURI())}
}

// bearer pulls the token off the Authorization header. Browsers cannot set
// headers on a websocket upgrade, so there it may come as ?token= instead.
func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") && len(h) > 7 {
		return h[7:]
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

// Authenticate rejects requests without a valid token with 401 and a login
// link, otherwise it puts the user id in the request context.
func (a *Authenticator) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := a.parse(bearer(r))
		if err != nil {
			utils.RespondWithJSON(w, http.StatusUnauthorized, loginRedirect(r))
			return
		}

		// Store UserID in context
		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		next(w, r.WithContext(ctx), ps)
	}
}

// OptionalAuth sets the user id when a valid token is present and proceeds
// regardless.
func (a *Authenticator) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if claims, err := a.parse(bearer(r)); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, claims.UserID))
		}
		next(w, r, ps)
	}
}

func (a *Authenticator) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("missing token")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
