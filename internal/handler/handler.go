// Package handler implements the storefront pages and the cart endpoints.
// Pages are thin: they read store snapshots, hand them to templates and
// forward form submissions; all state lives in the stores.
package handler

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"kart-storefront/internal/model"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the embedded stylesheet and other assets under /static/.
func Static() http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// Renderer executes the embedded page templates.
type Renderer struct {
	templates *template.Template
	logger    zerolog.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger zerolog.Logger) (*Renderer, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"currency": func(amount float64) string {
			return fmt.Sprintf("$%.2f", amount)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Renderer{
		templates: templates,
		logger:    logger.With().Str("component", "renderer").Logger(),
	}, nil
}

// Render executes the named page template. A template failure after the
// header is written cannot be recovered; it is logged and the connection
// left to the client.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		r.logger.Error().Err(err).Str("template", name).Msg("template execution failed")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return
	}
}

// writeError writes an error response carrying a stable error code and a
// human-readable message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// pageContext carries the fields every page template needs.
type pageContext struct {
	Title         string
	Authenticated bool
	Customer      *model.Customer
	CartCount     int
	CartTotal     float64
	Flash         string
}
