package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func noRedirects() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func ExampleRouter_GetPing() {
	env := setupTestRouter(nil)
	defer env.Close()

	resp, err := http.Get(env.console.URL + "/ping")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_PostLogin() {
	env := setupTestRouter(nil)
	defer env.Close()

	form := url.Values{}
	form.Set("username", "admin")
	form.Set("password", "secret1")

	req, err := http.NewRequest(http.MethodPost, env.console.URL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := noRedirects().Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var hasToken bool
	for _, cookie := range resp.Cookies() {
		hasToken = hasToken || (cookie.Name == "token" && cookie.Value != "")
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Location:", resp.Header.Get("Location"))
	fmt.Println("Token cookie:", hasToken)

	// Output:
	// Status Code: 303
	// Location: /dashboard
	// Token cookie: true
}

func ExampleRouter_GetDashboard() {
	env := setupTestRouter(nil)
	defer env.Close()

	resp, err := noRedirects().Get(env.console.URL + "/dashboard")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Location:", resp.Header.Get("Location"))

	// Output:
	// Status Code: 303
	// Location: /login
}
