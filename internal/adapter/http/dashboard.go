package http

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/fire-aq-dashboard/internal/dashboard"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("dashboard.html").Funcs(template.FuncMap{
		"selected": slices.Contains[[]string, string],
	}).ParseFS(templateFS, "templates/dashboard.html"),
)

// Renderer builds the dashboard view for a query.
type Renderer interface {
	Render(ctx context.Context, q dashboard.Query) dashboard.View
}

type dashboardHandler struct {
	renderer Renderer
	logger   *slog.Logger
}

func newDashboardHandler(renderer Renderer, logger *slog.Logger) http.Handler {
	return &dashboardHandler{renderer: renderer, logger: logger}
}

func (h *dashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := ParseQuery(r.URL.Query())
	view := h.renderer.Render(r.Context(), q)

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		h.logger.Error("render dashboard template failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w) //nolint:errcheck // client went away
}

// ParseQuery reads the dashboard controls from URL query values.
// Unparseable or non-finite min_intensity values are ignored.
func ParseQuery(v url.Values) dashboard.Query {
	q := dashboard.Query{
		City:      strings.TrimSpace(v.Get("city")),
		Submitted: v.Get("filtered") == "1",
	}
	for _, c := range v["country"] {
		if c = strings.TrimSpace(c); c != "" {
			q.Countries = append(q.Countries, c)
		}
	}
	if s := strings.TrimSpace(v.Get("min_intensity")); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			q.MinIntensity = &f
		}
	}
	return q
}
