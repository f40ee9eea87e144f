package globals

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const SessionIDKey ContextKey = "sessionId"

// SessionCookie carries the browser session id the cart is bound to.
const SessionCookie = "sid"
