package web

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the minimal HTML surface the route guard redirects
// between. The real UI lives in a separate front-end; these pages exist so
// /, /login, /register, and /edit are navigable targets.
type PageHandler struct {
	AppName string
}

func NewPageHandler(appName string) *PageHandler {
	return &PageHandler{AppName: appName}
}

var pageTpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.App}} - {{.Title}}</title></head>
<body>
  <h1>{{.Title}}</h1>
  <p>{{.Body}}</p>
</body>
</html>`))

func (h *PageHandler) render(c *gin.Context, title, body string) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = pageTpl.Execute(c.Writer, map[string]string{"App": h.AppName, "Title": title, "Body": body})
}

func (h *PageHandler) Home(c *gin.Context) {
	h.render(c, "Home", "You are signed in. GET /api/user returns your profile.")
}

func (h *PageHandler) Login(c *gin.Context) {
	h.render(c, "Sign in", "POST /api/auth/login with identifier and password, or GET /api/auth/google.")
}

func (h *PageHandler) Register(c *gin.Context) {
	h.render(c, "Register", "POST /api/auth/register with name, email, and password.")
}

func (h *PageHandler) Edit(c *gin.Context) {
	h.render(c, "Edit profile", "PATCH /api/auth/edit with a multipart form: name, email, image.")
}
