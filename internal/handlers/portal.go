package handlers

import (
	"html/template"
	"net/http"

	"chamberctl/internal/logger"
	"chamberctl/internal/models"
	"chamberctl/internal/service"

	"github.com/gin-gonic/gin"
)

var portalPage = template.Must(template.New("portal").Parse(`<!doctype html>
<html><head><meta name="viewport" content="width=device-width"><title>Chamber setup</title></head>
<body>
<h2>Chamber setup</h2>
{{if .Saved}}<p>Saved. The controller is restarting.</p>{{else}}
{{if .Error}}<p style="color:red">{{.Error}}</p>{{end}}
<form method="POST" action="/save">
<label>Network <input name="ssid" value="{{.SSID}}"></label><br>
<label>Password <input name="password" type="password"></label><br>
<button type="submit">Save</button>
</form>{{end}}
</body></html>`))

type portalView struct {
	SSID  string
	Error string
	Saved bool
}

// Portal serves the configuration-mode form that stores link credentials.
type Portal struct {
	provisioning service.Provisioning
	onSaved      func()
	log          *logger.Logger
}

// NewPortal builds the portal. onSaved runs after the response is written.
func NewPortal(p service.Provisioning, onSaved func(), log *logger.Logger) *Portal {
	return &Portal{provisioning: p, onSaved: onSaved, log: log}
}

func (p *Portal) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", p.form)
	router.POST("/save", p.save)
	return router
}

func (p *Portal) form(c *gin.Context) {
	p.render(c, http.StatusOK, portalView{})
}

func (p *Portal) save(c *gin.Context) {
	creds := models.Credentials{
		SSID:     c.PostForm("ssid"),
		Password: c.PostForm("password"),
	}
	if err := p.provisioning.SaveCredentials(c.Request.Context(), creds); err != nil {
		if p.log != nil {
			p.log.Errorw("portal_save_failed", "err", err)
		}
		p.render(c, http.StatusBadRequest, portalView{SSID: creds.SSID, Error: err.Error()})
		return
	}
	p.render(c, http.StatusOK, portalView{Saved: true})
	if p.onSaved != nil {
		p.onSaved()
	}
}

func (p *Portal) render(c *gin.Context, code int, v portalView) {
	c.Status(code)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := portalPage.Execute(c.Writer, v); err != nil && p.log != nil {
		p.log.Errorw("portal_render_failed", "err", err)
	}
}
