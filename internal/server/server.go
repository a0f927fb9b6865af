package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/engine"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

// Server is the entropic HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	owner   string
	started time.Time
}

// New creates a Server over the given database and engine. The default
// owner scopes requests that do not carry an explicit ?owner= parameter.
func New(db *store.DB, eng *engine.Engine, version, defaultOwner string) *Server {
	if defaultOwner == "" {
		defaultOwner = "default"
	}
	s := &Server{
		db:      db,
		engine:  eng,
		version: version,
		owner:   defaultOwner,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/report", s.handleReport)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", s.handleCreateItem)
			r.Get("/", s.handleListItems)
			r.Get("/{itemID}", s.handleGetItem)
			r.Delete("/{itemID}", s.handleDeleteItem)
			r.Get("/{itemID}/history", s.handleItemHistory)
			r.Post("/{itemID}/revalue", s.handleRevalueItem)
		})

		r.Route("/simulation", func(r chi.Router) {
			r.Get("/", s.handleSimulationState)
			r.Post("/start", s.handleSimulationStart)
			r.Post("/pause", s.handleSimulationPause)
			r.Post("/step", s.handleSimulationStep)
			r.Post("/reset", s.handleSimulationReset)
		})

		r.Get("/weights", s.handleGetWeights)
		r.Put("/weights", s.handlePutWeights)

		r.Get("/events", s.handleListEvents)
		r.Get("/events/{eventID}", s.handleGetEvent)
		r.Get("/events/{eventID}/log", s.handleEventLog)

		r.Get("/alerts", s.handleListAlerts)
		r.Post("/alerts/{alertID}/read", s.handleMarkAlertRead)

		r.Get("/baseline", s.handleBaselineResults)
		r.Post("/baseline/run", s.handleRunBaseline)
	})

	// Everything else falls through to the embedded dashboard.
	r.Get("/*", spaHandler())

	s.router = r
}

// ownerFrom resolves the archive owner for a request. Single-tenant
// deployments never send one and get the server default.
func (s *Server) ownerFrom(r *http.Request) string {
	if o := r.URL.Query().Get("owner"); o != "" {
		return o
	}
	return s.owner
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "engine not configured"})
		return
	}

	st, err := s.engine.Status(s.ownerFrom(r))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"state":         stateView(st.State),
		"total_items":   st.TotalItems,
		"active_items":  st.ActiveItems,
		"storage_kb":    st.StorageKB,
		"decay_events":  st.DecayEvents,
		"unread_alerts": st.UnreadAlerts,
	})
}
