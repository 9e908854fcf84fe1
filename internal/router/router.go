// Package router wires the console views to HTTP: the chi routes, the
// session cookie, the route guard and the HTML rendering.
//
// Every view change that mutates dashboard state is a POST answered with a
// 303 redirect, so reloading a page never repeats an API call.
package router

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/shopconsole/internal/apiclient"
	"github.com/patric-chuzhbe/shopconsole/internal/authview"
	"github.com/patric-chuzhbe/shopconsole/internal/config"
	"github.com/patric-chuzhbe/shopconsole/internal/consoles"
	"github.com/patric-chuzhbe/shopconsole/internal/dashboard"
	"github.com/patric-chuzhbe/shopconsole/internal/forms"
	"github.com/patric-chuzhbe/shopconsole/internal/guard"
	"github.com/patric-chuzhbe/shopconsole/internal/gzippedhttp"
	"github.com/patric-chuzhbe/shopconsole/internal/ipchecker"
	"github.com/patric-chuzhbe/shopconsole/internal/logger"
	"github.com/patric-chuzhbe/shopconsole/internal/observability"
	"github.com/patric-chuzhbe/shopconsole/internal/routes"
	"github.com/patric-chuzhbe/shopconsole/internal/session"
)

type ctxKey int

const (
	sessionStoreKey ctxKey = iota
	consoleIDKey
)

// Router serves the console.
type Router struct {
	api               *apiclient.Client
	guard             *guard.Guard
	consoles          *consoles.Registry
	metrics           *observability.Metrics
	cookieOptions     session.CookieOptions
	consoleCookieName string
	redirectDelay     time.Duration
}

// New builds the console handler.
func New(
	cfg *config.Config,
	api *apiclient.Client,
	registry *consoles.Registry,
	metrics *observability.Metrics,
	checker *ipchecker.IPChecker,
) *chi.Mux {
	rt := &Router{
		api:      api,
		guard:    guard.New(),
		consoles: registry,
		metrics:  metrics,
		cookieOptions: session.CookieOptions{
			Name:   cfg.AuthCookieName,
			Secure: cfg.SecureCookies,
		},
		consoleCookieName: cfg.ConsoleCookieName,
		redirectDelay:     cfg.RegisterRedirectDelay,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.Recoverer,
		logger.WithLoggingHTTPMiddleware,
		metrics.Middleware,
	)

	router.Get(`/ping`, rt.GetPing)
	router.With(checker.TrustedOnly).Handle(`/metrics`, metrics.Handler())

	router.Group(func(r chi.Router) {
		r.Use(gzippedhttp.GzipResponse, rt.withSessionStore)

		r.With(rt.guarded(routes.Root)).Get(`/`, rt.GetLogin)
		r.With(rt.guarded(routes.Login)).Get(`/login`, rt.GetLogin)
		r.With(rt.guarded(routes.Login)).Post(`/login`, rt.PostLogin)
		r.With(rt.guarded(routes.Register)).Get(`/register`, rt.GetRegister)
		r.With(rt.guarded(routes.Register)).Post(`/register`, rt.PostRegister)

		r.Group(func(r chi.Router) {
			r.Use(rt.guarded(routes.Dashboard), rt.withConsole)

			r.Get(`/dashboard`, rt.GetDashboard)
			r.Get(`/dashboard/users/new`, rt.dashboardAction(openCreate))
			r.Get(`/dashboard/users/{id}`, rt.dashboardAction(openRead))
			r.Get(`/dashboard/users/{id}/edit`, rt.dashboardAction(openUpdate))
			r.Post(`/dashboard/users`, rt.dashboardAction(submitCreate))
			r.Post(`/dashboard/users/{id}`, rt.dashboardAction(submitUpdate))
			r.Post(`/dashboard/users/{id}/delete`, rt.dashboardAction(requestDelete))
			r.Post(`/dashboard/users/{id}/delete/confirm`, rt.dashboardAction(confirmDelete))
			r.Post(`/dashboard/delete/cancel`, rt.dashboardAction(cancelDelete))
			r.Post(`/dashboard/modal/close`, rt.dashboardAction(closeModal))
			r.Post(`/dashboard/reload`, rt.dashboardAction(reload))
		})

		r.With(rt.withConsole).Post(`/logout`, rt.PostLogout)
	})

	return router
}

func (rt *Router) withSessionStore(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := session.NewCookieStore(w, r, rt.cookieOptions)
		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionStoreKey, store)))
	})
}

func sessionStoreFrom(r *http.Request) *session.CookieStore {
	return r.Context().Value(sessionStoreKey).(*session.CookieStore)
}

// guarded runs the route guard before h. Rejected sessions are already
// cleared when the redirect goes out, and so is the dashboard state they
// left behind.
func (rt *Router) guarded(route routes.Route) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := rt.guard.Evaluate(route, sessionStoreFrom(r))
			if decision.Allowed() {
				h.ServeHTTP(w, r)
				return
			}

			if decision.State == guard.Unauthenticated {
				rt.metrics.SessionsRejectedTotal.Inc()
				rt.dropConsole(r)
			}
			http.Redirect(w, r, decision.Redirect.String(), http.StatusSeeOther)
		})
	}
}

// withConsole binds the request to the browser's dashboard state, issuing
// a console id on first visit.
func (rt *Router) withConsole(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		consoleID, ok := rt.consoleCookie(r)
		if !ok {
			consoleID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     rt.consoleCookieName,
				Value:    consoleID,
				Path:     "/",
				HttpOnly: true,
				Secure:   rt.cookieOptions.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), consoleIDKey, consoleID)))
	})
}

// consoleCookie returns the console id the browser sent, if it is a valid one.
func (rt *Router) consoleCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(rt.consoleCookieName)
	if err != nil {
		return "", false
	}

	parsed, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}

	return parsed.String(), true
}

// dropConsole forgets the browser's dashboard state, tearing it down.
func (rt *Router) dropConsole(r *http.Request) {
	if consoleID, ok := rt.consoleCookie(r); ok {
		rt.consoles.Drop(consoleID)
	}
}

func consoleIDFrom(r *http.Request) string {
	return r.Context().Value(consoleIDKey).(string)
}

func (rt *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
}

func (rt *Router) authViews(req *http.Request, nav routes.Navigator) *authview.Views {
	store := sessionStoreFrom(req)
	return authview.New(rt.api.WithSession(store), store, nav, rt.redirectDelay)
}

func (rt *Router) GetLogin(res http.ResponseWriter, req *http.Request) {
	render(res, http.StatusOK, loginPage, pongo2.Context{
		"title": "Login",
		"form":  authview.LoginForm{},
	})
}

func (rt *Router) PostLogin(res http.ResponseWriter, req *http.Request) {
	nav := &routes.Recorder{}
	form := rt.authViews(req, nav).SubmitLogin(req.Context(), forms.LoginDraft{
		Username: req.PostFormValue("username"),
		Password: req.PostFormValue("password"),
	})

	if nav.Navigated() && nav.Target == routes.Landing {
		rt.dropConsole(req)
	}

	if navigate(res, req, nav) {
		return
	}

	render(res, http.StatusOK, loginPage, pongo2.Context{
		"title": "Login",
		"form":  form,
	})
}

func (rt *Router) GetRegister(res http.ResponseWriter, req *http.Request) {
	render(res, http.StatusOK, registerPage, pongo2.Context{
		"title": "Register",
		"form":  authview.RegisterForm{},
	})
}

func (rt *Router) PostRegister(res http.ResponseWriter, req *http.Request) {
	nav := &routes.Recorder{}
	form := rt.authViews(req, nav).SubmitRegister(req.Context(), forms.RegisterDraft{
		Fullname:        req.PostFormValue("fullname"),
		Username:        req.PostFormValue("username"),
		Password:        req.PostFormValue("password"),
		ConfirmPassword: req.PostFormValue("confirm_password"),
	})

	if navigate(res, req, nav) {
		return
	}

	render(res, http.StatusOK, registerPage, pongo2.Context{
		"title": "Register",
		"form":  form,
	})
}

func (rt *Router) dashboardFor(req *http.Request, nav routes.Navigator) (*dashboard.Dashboard, *dashboard.State) {
	store := sessionStoreFrom(req)
	state := rt.consoles.Get(consoleIDFrom(req))

	return dashboard.New(state, rt.api.WithSession(store), store, nav), state
}

// mount initialises the view for the current session unless it already
// is. It reports false when the response has been taken care of.
func mount(res http.ResponseWriter, req *http.Request, d *dashboard.Dashboard, nav *routes.Recorder) bool {
	if err := d.Activate(req.Context()); err != nil {
		if !navigate(res, req, nav) {
			http.Redirect(res, req, routes.Login.String(), http.StatusSeeOther)
		}
		return false
	}

	return true
}

func (rt *Router) GetDashboard(res http.ResponseWriter, req *http.Request) {
	nav := &routes.Recorder{}
	d, state := rt.dashboardFor(req, nav)

	if !mount(res, req, d, nav) {
		return
	}

	render(res, http.StatusOK, dashboardPage, dashboardContext(state.Snapshot()))
}

type dashboardActionFunc func(ctx context.Context, d *dashboard.Dashboard, req *http.Request) error

// dashboardAction runs action against a mounted dashboard and sends the
// browser back to it. Failures have been turned into notices by then.
func (rt *Router) dashboardAction(action dashboardActionFunc) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		nav := &routes.Recorder{}
		d, _ := rt.dashboardFor(req, nav)

		if !mount(res, req, d, nav) {
			return
		}

		if err := action(req.Context(), d, req); err != nil {
			logger.Log.Debugln("Dashboard action failed: ", "uri", req.URL.Path, zap.Error(err))
		}

		if navigate(res, req, nav) {
			return
		}
		http.Redirect(res, req, routes.Dashboard.String(), http.StatusSeeOther)
	}
}

func (rt *Router) PostLogout(res http.ResponseWriter, req *http.Request) {
	nav := &routes.Recorder{}
	d, _ := rt.dashboardFor(req, nav)

	d.Logout()
	rt.consoles.Drop(consoleIDFrom(req))

	if !navigate(res, req, nav) {
		http.Redirect(res, req, routes.Login.String(), http.StatusSeeOther)
	}
}

func userID(req *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("in internal/router/router.go/userID(): error while `strconv.ParseInt()` calling: %w", err)
	}

	return id, nil
}

func userDraft(req *http.Request) forms.UserDraft {
	return forms.UserDraft{
		Fullname: req.PostFormValue("fullname"),
		Username: req.PostFormValue("username"),
		Password: req.PostFormValue("password"),
	}
}

func openCreate(_ context.Context, d *dashboard.Dashboard, _ *http.Request) error {
	d.OpenCreate()
	return nil
}

func openRead(_ context.Context, d *dashboard.Dashboard, req *http.Request) error {
	id, err := userID(req)
	if err != nil {
		return err
	}
	return d.OpenRead(id)
}

func openUpdate(_ context.Context, d *dashboard.Dashboard, req *http.Request) error {
	id, err := userID(req)
	if err != nil {
		return err
	}
	return d.OpenUpdate(id)
}

func submitCreate(ctx context.Context, d *dashboard.Dashboard, req *http.Request) error {
	return d.SubmitCreate(ctx, userDraft(req))
}

func submitUpdate(ctx context.Context, d *dashboard.Dashboard, req *http.Request) error {
	id, err := userID(req)
	if err != nil {
		return err
	}
	return d.SubmitUpdate(ctx, id, userDraft(req))
}

func requestDelete(_ context.Context, d *dashboard.Dashboard, req *http.Request) error {
	id, err := userID(req)
	if err != nil {
		return err
	}
	return d.RequestDelete(id)
}

func confirmDelete(ctx context.Context, d *dashboard.Dashboard, req *http.Request) error {
	id, err := userID(req)
	if err != nil {
		return err
	}
	return d.ConfirmDelete(ctx, id)
}

func cancelDelete(_ context.Context, d *dashboard.Dashboard, _ *http.Request) error {
	d.CancelDelete()
	return nil
}

func closeModal(_ context.Context, d *dashboard.Dashboard, _ *http.Request) error {
	d.CloseModal()
	return nil
}

func reload(ctx context.Context, d *dashboard.Dashboard, _ *http.Request) error {
	return d.Reload(ctx)
}

// navigate turns a recorded navigation into the response. A delayed one
// becomes a Refresh header and leaves the page to be rendered.
func navigate(res http.ResponseWriter, req *http.Request, nav *routes.Recorder) bool {
	if !nav.Navigated() {
		return false
	}

	if nav.Delay > 0 {
		seconds := int(math.Ceil(nav.Delay.Seconds()))
		res.Header().Set("Refresh", fmt.Sprintf("%d; url=%s", seconds, nav.Target))
		return false
	}

	http.Redirect(res, req, nav.Target.String(), http.StatusSeeOther)
	return true
}

func dashboardContext(snapshot dashboard.Snapshot) pongo2.Context {
	data := pongo2.Context{
		"title":      "Dashboard",
		"actor":      snapshot.Actor,
		"users":      snapshot.Users,
		"list_error": snapshot.ListError,
		"modal":      string(snapshot.Modal),
		"draft":      snapshot.Draft,
		"selected":   snapshot.Selected,
		"pending":    snapshot.PendingDelete,
	}
	if snapshot.Notice != nil {
		data["notice_kind"] = string(snapshot.Notice.Kind)
		data["notice_text"] = snapshot.Notice.Text
	}

	return data
}

func render(res http.ResponseWriter, status int, page *pongo2.Template, data pongo2.Context) {
	body, err := page.Execute(data)
	if err != nil {
		logger.Log.Errorln("Error calling the `page.Execute()`: ", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.WriteHeader(status)
	if _, err := io.WriteString(res, body); err != nil {
		logger.Log.Debugln("Error writing the page: ", zap.Error(err))
	}
}
