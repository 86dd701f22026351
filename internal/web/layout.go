package web

import (
	"strings"
)

// pageShell wraps page content in the shared chrome: header, nav, the
// login box and any flash message.
func pageShell(title string, viewer Viewer, flash string, body string) string {
	var b strings.Builder
	writeAll(&b, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`, esc(title), ` · Polly</title>
    <link rel="stylesheet" href="/static/styles.css"/>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Polly</span>
        <nav class="nav">
          <a href="/">Markets</a>
          <a href="/polls/create">Create</a>
          <a href="/rewards">Rewards</a>
          <a href="/dashboard">Dashboard</a>
        </nav>
`)
	if viewer.LoggedIn {
		writeAll(&b, `        <div class="account"><span class="name">`, esc(viewer.Name),
			`</span><span class="points">`, itoa(viewer.Points), ` pts</span>
          <button id="logoutBtn" class="secondary">Log out</button>
        </div>
`)
	} else {
		writeAll(&b, `        <form id="loginForm" class="login-form">
          <input name="name" placeholder="Display name" autocomplete="name" required/>
          <button type="submit" class="secondary">Log in</button>
        </form>
`)
	}
	b.WriteString(`      </header>
`)
	if flash != "" {
		writeAll(&b, `      <div class="flash">`, esc(flash), `</div>
`)
	}
	b.WriteString(body)
	b.WriteString(`
    </main>
    <script>
      const loginForm = document.getElementById("loginForm");
      if (loginForm) {
        loginForm.addEventListener("submit", async (event) => {
          event.preventDefault();
          const name = loginForm.elements.name.value.trim();
          const res = await fetch("/api/login", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({ name })
          });
          if (res.ok) window.location.reload();
        });
      }
      const logoutBtn = document.getElementById("logoutBtn");
      if (logoutBtn) {
        logoutBtn.addEventListener("click", async () => {
          await fetch("/api/logout", { method: "POST" });
          window.location.reload();
        });
      }
    </script>
  </body>
</html>
`)
	return b.String()
}
