// Package guard decides, for every navigation, whether the requested view is
// reachable with the current session. Nothing is cached between navigations:
// the session is read, decoded and checked for expiry each time.
package guard

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/shopconsole/internal/logger"
	"github.com/patric-chuzhbe/shopconsole/internal/routes"
	"github.com/patric-chuzhbe/shopconsole/internal/session"
)

// State is the session state derived for one navigation.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}

	return "unauthenticated"
}

// Decision is the outcome of a navigation. An empty Redirect means the view
// may be entered. Claims is set when the session is authenticated.
type Decision struct {
	State    State
	Redirect routes.Route
	Claims   *session.Claims
}

// Allowed reports whether the navigation proceeds to the requested view.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Guard evaluates navigations against a session store.
type Guard struct {
	now func() time.Time
}

// New returns a guard using the wall clock.
func New() *Guard {
	return &Guard{now: time.Now}
}

// NewWithClock returns a guard reading the time from now.
func NewWithClock(now func() time.Time) *Guard {
	return &Guard{now: now}
}

// Evaluate decides the navigation to route. A token that is present but
// cannot be decoded or has expired is cleared from store whatever the route.
func (g *Guard) Evaluate(route routes.Route, store session.Store) Decision {
	claims, err := session.Current(store, g.now())
	if err != nil {
		if !errors.Is(err, session.ErrNoToken) {
			logger.Log.Debugln("Clearing unusable session on navigation to", route.String(), zap.Error(err))
		}
		if clearErr := store.Clear(); clearErr != nil {
			logger.Log.Errorln("Error calling the `store.Clear()`: ", zap.Error(clearErr))
		}

		decision := Decision{State: Unauthenticated}
		if route.IsProtected() {
			decision.Redirect = routes.Login
		}

		return decision
	}

	decision := Decision{State: Authenticated, Claims: claims}
	if route.IsAuthView() {
		decision.Redirect = routes.Landing
	}

	return decision
}
