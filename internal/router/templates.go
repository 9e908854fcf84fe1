package router

import "github.com/flosch/pongo2/v6"

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Computer Shop{% if title %} | {{ title }}{% endif %}</title>
</head>
<body>
<nav class="navbar">
<span class="brand">Computer Shop</span>
{% if actor %}
<span class="actor">{{ actor }}</span>
<form method="post" action="/logout"><button type="submit">Logout</button></form>
{% endif %}
</nav>
<main class="container">
`

const pageFoot = `
</main>
</body>
</html>
`

const loginBody = `<h1>Login</h1>
{% if form.Error %}<div class="alert alert-error" role="alert">{{ form.Error }}</div>{% endif %}
<form method="post" action="/login">
<label>Username <input type="text" name="username" value="{{ form.Username }}"></label>
<label>Password <input type="password" name="password"></label>
<button type="submit">Login</button>
</form>
<p>No account yet? <a href="/register">Register</a></p>`

const registerBody = `<h1>Register</h1>
{% if form.Error %}<div class="alert alert-error" role="alert">{{ form.Error }}</div>{% endif %}
{% if form.Success %}<div class="alert alert-success" role="status">{{ form.Success }}</div>{% endif %}
<form method="post" action="/register">
<label>Full name <input type="text" name="fullname" value="{{ form.Fullname }}"></label>
<label>Username <input type="text" name="username" value="{{ form.Username }}"></label>
<label>Password <input type="password" name="password"></label>
<label>Confirm password <input type="password" name="confirm_password"></label>
<button type="submit">Register</button>
</form>
<p>Already registered? <a href="/login">Login</a></p>`

const dashboardBody = `{% if notice_text %}<div class="alert alert-{{ notice_kind }}" role="alert">{{ notice_text }}</div>{% endif %}
{% if list_error %}
<div class="alert alert-error" role="alert">{{ list_error }}
<form method="post" action="/dashboard/reload"><button type="submit">Reload</button></form>
</div>
{% endif %}
<p><a class="button" href="/dashboard/users/new">Create User</a></p>
<table class="users">
<thead><tr><th>ID</th><th>Username</th><th>Fullname</th><th>Actions</th></tr></thead>
<tbody>
{% for user in users %}
<tr>
<td>{{ user.ID }}</td>
<td>{{ user.Username }}</td>
<td>{{ user.Fullname }}</td>
<td>
<a href="/dashboard/users/{{ user.ID }}">Read</a>
<a href="/dashboard/users/{{ user.ID }}/edit">Update</a>
<form method="post" action="/dashboard/users/{{ user.ID }}/delete"><button type="submit">Delete</button></form>
</td>
</tr>
{% empty %}
<tr><td colspan="4">No Users Found</td></tr>
{% endfor %}
</tbody>
</table>
{% if modal == "create" %}
<dialog open class="modal">
<h2>Create User</h2>
<form method="post" action="/dashboard/users">
<label>Full name <input type="text" name="fullname" value="{{ draft.Fullname }}"></label>
<label>Username <input type="text" name="username" value="{{ draft.Username }}"></label>
<label>Password <input type="password" name="password"></label>
<button type="submit">Save</button>
</form>
<form method="post" action="/dashboard/modal/close"><button type="submit">Close</button></form>
</dialog>
{% elif modal == "update" and selected %}
<dialog open class="modal">
<h2>Update User</h2>
<form method="post" action="/dashboard/users/{{ selected.ID }}">
<label>Full name <input type="text" name="fullname" value="{{ draft.Fullname }}"></label>
<label>Username <input type="text" name="username" value="{{ draft.Username }}"></label>
<label>Password <input type="password" name="password" placeholder="Leave blank to keep the current password"></label>
<button type="submit">Save</button>
</form>
<form method="post" action="/dashboard/modal/close"><button type="submit">Close</button></form>
</dialog>
{% elif modal == "read" and selected %}
<dialog open class="modal">
<h2>User Details</h2>
<dl>
<dt>ID</dt><dd>{{ selected.ID }}</dd>
<dt>Username</dt><dd>{{ selected.Username }}</dd>
<dt>Fullname</dt><dd>{{ selected.Fullname }}</dd>
</dl>
<form method="post" action="/dashboard/modal/close"><button type="submit">Close</button></form>
</dialog>
{% elif modal == "confirm_delete" and pending %}
<dialog open class="modal">
<h2>Are you sure?</h2>
<p>You won't be able to revert this!</p>
<p>{{ pending.Username }}</p>
<form method="post" action="/dashboard/users/{{ pending.ID }}/delete/confirm"><button type="submit">Yes, delete it!</button></form>
<form method="post" action="/dashboard/delete/cancel"><button type="submit">Cancel</button></form>
</dialog>
{% endif %}`

var (
	loginPage     = pongo2.Must(pongo2.FromString(pageHead + loginBody + pageFoot))
	registerPage  = pongo2.Must(pongo2.FromString(pageHead + registerBody + pageFoot))
	dashboardPage = pongo2.Must(pongo2.FromString(pageHead + dashboardBody + pageFoot))
)
