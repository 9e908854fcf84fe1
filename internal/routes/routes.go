// Package routes names the console's navigable views and the navigation
// capability views use to move between them.
package routes

import "time"

// Route is a navigable view path.
type Route string

const (
	Root      Route = "/"
	Login     Route = "/login"
	Register  Route = "/register"
	Dashboard Route = "/dashboard"
)

// Landing is where an authenticated user is sent from the public views.
const Landing = Dashboard

// IsProtected reports whether route requires an authenticated session.
func (r Route) IsProtected() bool {
	return r == Dashboard
}

// IsAuthView reports whether route is one of the views an authenticated user
// has no business on.
func (r Route) IsAuthView() bool {
	return r == Root || r == Login || r == Register
}

func (r Route) String() string {
	return string(r)
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(to Route)
	NavigateAfter(to Route, delay time.Duration)
}

// Recorder is a Navigator that only remembers the last request. The web
// console turns it into a redirect once a view has finished handling input.
type Recorder struct {
	Target Route
	Delay  time.Duration
}

func (r *Recorder) Navigate(to Route) {
	r.Target = to
	r.Delay = 0
}

func (r *Recorder) NavigateAfter(to Route, delay time.Duration) {
	r.Target = to
	r.Delay = delay
}

// Navigated reports whether any navigation was requested.
func (r *Recorder) Navigated() bool {
	return r.Target != ""
}
