package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"warfield/combat"
	"warfield/config"
	"warfield/engine"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Server exposes the combat registry over HTTP and streams lifecycle
// events over a websocket. The registry itself is lock-free and
// single-threaded; the server serializes all access, including its own
// tick loop, behind one mutex.
type Server struct {
	registry *engine.Registry
	cfg      config.Config
	mutex    sync.Mutex
}

// New wraps a registry for serving.
func New(registry *engine.Registry, cfg config.Config) *Server {
	return &Server{registry: registry, cfg: cfg}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/combats", s.handleListCombats).Methods(http.MethodGet)
	router.HandleFunc("/combats", s.handleStartCombat).Methods(http.MethodPost)
	router.HandleFunc("/combats/{id}", s.handleGetCombat).Methods(http.MethodGet)
	router.HandleFunc("/combats/{id}", s.handleCancelCombat).Methods(http.MethodDelete)
	router.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebsocket)
	return router
}

// Run starts the tick loop and serves until ListenAndServe returns. The
// clock lives here at the boundary; the engine only ever sees advance
// calls.
func (s *Server) Run() error {
	go s.tickLoop()
	log.Info().Msgf("serving on %s", s.cfg.Server.Addr)
	return http.ListenAndServe(s.cfg.Server.Addr, s.Router())
}

func (s *Server) tickLoop() {
	interval := time.Duration(s.cfg.Simulation.TickSeconds * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.mutex.Lock()
		s.registry.AdvanceAll(s.cfg.Simulation.TickSeconds)
		s.mutex.Unlock()
	}
}

type startRequest struct {
	Attackers []armyRequest `json:"attackers"`
	Defenders []armyRequest `json:"defenders"`
	Location  combat.Hex    `json:"location"`
}

type armyRequest struct {
	Name      string            `json:"name"`
	Owner     string            `json:"owner"`
	Units     map[string]int    `json:"units"`
	Commander *commanderRequest `json:"commander,omitempty"`
}

type commanderRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Level     int    `json:"level"`
}

func (s *Server) handleListCombats(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	statuses := s.registry.ActiveCombats()
	s.mutex.Unlock()
	writeJSON(w, statuses)
}

func (s *Server) handleGetCombat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutex.Lock()
	status, ok := s.registry.CombatStatus(id)
	s.mutex.Unlock()
	if !ok {
		http.Error(w, "no such combat", http.StatusNotFound)
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleStartCombat(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	attackers, err := buildArmies(req.Attackers)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defenders, err := buildArmies(req.Defenders)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	id, err := s.registry.StartCombat(attackers, defenders, req.Location)
	s.mutex.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"id": id})
}

func (s *Server) handleCancelCombat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mutex.Lock()
	err := s.registry.CancelCombat(id)
	s.mutex.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	history := s.registry.History()
	s.mutex.Unlock()
	writeJSON(w, history)
}

// handleWebsocket streams lifecycle events to one client until it
// disconnects.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.mutex.Lock()
	events := s.registry.Subscribe()
	s.mutex.Unlock()
	defer func() {
		s.mutex.Lock()
		s.registry.Unsubscribe(events)
		s.mutex.Unlock()
	}()

	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

func buildArmies(requests []armyRequest) ([]combat.Army, error) {
	armies := make([]combat.Army, 0, len(requests))
	for _, req := range requests {
		army := combat.Army{
			Name:  req.Name,
			Owner: req.Owner,
			Units: combat.Roster{},
		}
		for name, count := range req.Units {
			unitType, err := combat.ParseUnitType(name)
			if err != nil {
				return nil, err
			}
			army.Units[unitType] = count
		}
		if req.Commander != nil {
			specialty, err := combat.ParseSpecialty(req.Commander.Specialty)
			if err != nil {
				return nil, err
			}
			army.Commander = &combat.Commander{
				Name:      req.Commander.Name,
				Specialty: specialty,
				Level:     req.Commander.Level,
			}
		}
		armies = append(armies, army)
	}
	return armies, nil
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
