// Package app contiene los controllers del origin de la aplicación (víctima).
package app

import (
	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/csrf"
	"github.com/dropDatabas3/websecdemo/internal/http/pages"
	"github.com/dropDatabas3/websecdemo/internal/ledger"
)

// Deps agrupa lo que necesitan los controllers de la app.
type Deps struct {
	Gate       *auth.Gate
	CSRF       *csrf.Manager
	Ledger     *ledger.Service
	Pages      *pages.Renderer
	CookieName string
	AppURL     string
	EvilURL    string
}

// Controllers agrupa todos los controllers del origin app.
type Controllers struct {
	Pages    *PagesController
	Session  *SessionController
	Cookies  *CookiesController
	Transfer *TransferController
	API      *APIController
}

// NewControllers crea el agregador de controllers.
func NewControllers(d Deps) *Controllers {
	return &Controllers{
		Pages:    &PagesController{d: d},
		Session:  &SessionController{d: d},
		Cookies:  &CookiesController{d: d},
		Transfer: &TransferController{d: d},
		API:      &APIController{d: d},
	}
}

// base arma el modelo común de las páginas.
func (d Deps) base(title string) pages.Data {
	return pages.Data{
		Title:    title,
		AppURL:   d.AppURL,
		EvilURL:  d.EvilURL,
		Username: d.Gate.Username(),
	}
}
