package web

import (
	"io/fs"
	"net/http"

	httphandler "github.com/automatrixhq/automatrix/internal/adapter/driving/http"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Public pages live at the root, signed-in pages under /app/.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Public pages.
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /login", h.Login)
	mux.HandleFunc("GET /pricing", h.Pricing)
	mux.HandleFunc("GET /workflows", h.Workflows)
	mux.HandleFunc("GET /workflows/{slug}", h.WorkflowDetail)
	mux.HandleFunc("GET /blog", h.BlogIndex)
	mux.HandleFunc("GET /blog/{slug}", h.BlogPost)

	// Signed-in pages.
	login := httphandler.RequireLogin
	pro := httphandler.Gate(h.svc.Access, model.TierPro, h.logger)
	mux.Handle("GET /app/dashboard", login(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /app/agency", pro(http.HandlerFunc(h.Agency)))
	mux.Handle("GET /app/missions", login(http.HandlerFunc(h.Missions)))

	// Form actions.
	mux.Handle("POST /app/missions/{id}/bids", login(http.HandlerFunc(h.PlaceBid)))
	mux.Handle("POST /app/billing/checkout", login(http.HandlerFunc(h.Checkout)))
	mux.Handle("POST /app/billing/portal", login(http.HandlerFunc(h.Portal)))
	mux.Handle("POST /app/billing/connect", login(http.HandlerFunc(h.Connect)))
}
