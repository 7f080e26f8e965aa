package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sprinkler-go/sprinkler-go/pkg/actuator"
	"github.com/sprinkler-go/sprinkler-go/pkg/controller"
	"github.com/sprinkler-go/sprinkler-go/pkg/cycle"
	"github.com/sprinkler-go/sprinkler-go/pkg/history"
	"github.com/sprinkler-go/sprinkler-go/pkg/log"
	"github.com/sprinkler-go/sprinkler-go/pkg/schedule"
	"github.com/sprinkler-go/sprinkler-go/pkg/zone"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port     int
	Hostname string
	Version  string
}

// Server is the HTTP API of the controller.
type Server struct {
	config  ServerConfig
	mux     *http.ServeMux
	server  *http.Server
	runner  *controller.Runner
	events  *log.FileLogger
	history *history.Store
}

// NewServer creates a server for runner. events and runs may be nil.
func NewServer(cfg ServerConfig, runner *controller.Runner, events *log.FileLogger, runs *history.Store) *Server {
	s := &Server{
		config:  cfg,
		mux:     http.NewServeMux(),
		runner:  runner,
		events:  events,
		history: runs,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /sse", s.handleSSE)

	// Zones and schedule
	s.mux.HandleFunc("GET /zone/{zones}/{cmd}", s.handleZone)
	s.mux.HandleFunc("GET /schd/{action}", s.handleScheduleAction)
	s.mux.HandleFunc("GET /schd/{zones}/{minutes}", s.handleScheduleItem)
	s.mux.HandleFunc("POST /schd/{mode}", s.handleSchedulePost)

	// Cycles
	s.mux.HandleFunc("GET /cycles", s.handleCycles)
	s.mux.HandleFunc("GET /cycles.text", s.handleCyclesText)
	s.mux.HandleFunc("DELETE /cycles", s.handleClearCycles)
	s.mux.HandleFunc("POST /cycle", s.handleAddCycle)
	s.mux.HandleFunc("GET /cycle/{name}", s.handleGetCycle)
	s.mux.HandleFunc("DELETE /cycle/{name}", s.handleDeleteCycle)
	s.mux.HandleFunc("GET /cycle/{name}/run", s.handleRunCycle)
	s.mux.HandleFunc("GET /next-cycle", s.handleNextCycle)

	// Settings
	s.mux.HandleFunc("GET /hold", s.handleHold)
	s.mux.HandleFunc("GET /hold/{days}", s.handleSetHold)
	s.mux.HandleFunc("GET /adj", s.handleAdjustment)
	s.mux.HandleFunc("GET /adj/{pct}", s.handleSetAdjustment)
	s.mux.HandleFunc("GET /toggle", s.handleToggleDelay)
	s.mux.HandleFunc("GET /toggle/{ms}", s.handleSetToggleDelay)
	s.mux.HandleFunc("GET /logic", s.handleLogic)
	s.mux.HandleFunc("GET /logic/{mode}", s.handleSetLogic)

	// Event log and history
	s.mux.HandleFunc("GET /log/show", s.handleLogShow)
	s.mux.HandleFunc("GET /log/reset", s.handleLogReset)
	s.mux.HandleFunc("GET /log/size", s.handleLogSize)
	s.mux.HandleFunc("GET /log/mark/{text}", s.handleLogMark)
	s.mux.HandleFunc("GET /history", s.handleHistory)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Close stops the HTTP server.
func (s *Server) Close() error {
	return s.server.Close()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// statusResponse is the /status document.
type statusResponse struct {
	Status          string          `json:"status"`
	Time            string          `json:"time"`
	LogicMode       string          `json:"logicMode,omitempty"`
	OutputEnable    string          `json:"outputEnable"`
	Registers       uint8           `json:"registers"`
	On              []int           `json:"on"`
	Remaining       int             `json:"siRemaining"`
	Now             int64           `json:"now"`
	ScheduleItemEnd int64           `json:"scheduleItemEnd"`
	Schedule        []schedule.Item `json:"schedule"`
	ScheduleSize    int             `json:"scheduleSize"`
	SchedulerState  string          `json:"schedulerState"`
	CurrCycle       string          `json:"currCycle"`
	NextCycle       string          `json:"nextCycle"`
	StartDateTime   string          `json:"startDateTime"`
	StartEpoch      int64           `json:"startEpoch,omitempty"`
	Adjustment      int             `json:"adj"`
	HoldDays        int8            `json:"holdDays"`
	HoldEpoch       int64           `json:"holdEpoch"`
	Resume          string          `json:"resume"`
	LogSize         int64           `json:"logSize"`
	NumZones        int             `json:"numZones"`
	ToggleDelay     int64           `json:"toggleDelay"`
	Cycles          int             `json:"cycles"`
	RunID           string          `json:"runId,omitempty"`
	Hostname        string          `json:"hostname,omitempty"`
	UpTime          string          `json:"upTime"`
}

func (s *Server) statusResponse(st controller.Status) statusResponse {
	resp := statusResponse{
		Status:         "ok",
		Time:           st.Time.Format("15:04:05"),
		LogicMode:      st.Logic,
		OutputEnable:   "off",
		Registers:      st.Registers,
		On:             st.Zones.Zones(),
		Remaining:      st.Remaining,
		Now:            st.Time.Unix(),
		Schedule:       st.Queue,
		ScheduleSize:   len(st.Queue),
		SchedulerState: st.State.String(),
		CurrCycle:      st.Cycle,
		NextCycle:      st.NextCycle,
		StartDateTime:  st.NextString,
		Adjustment:     st.Adjustment,
		HoldDays:       st.HoldDays,
		HoldEpoch:      st.HoldEpoch,
		Resume:         st.HoldResume,
		NumZones:       st.ZoneCount,
		ToggleDelay:    st.InterZoneDelay.Milliseconds(),
		Cycles:         st.Cycles,
		RunID:          st.RunID,
		Hostname:       s.config.Hostname,
		UpTime:         st.Time.Sub(st.StartedAt).Truncate(time.Second).String(),
	}
	if st.OutputEnabled {
		resp.OutputEnable = "on"
	}
	if resp.Schedule == nil {
		resp.Schedule = []schedule.Item{}
	}
	if st.State != schedule.StateStopped && !st.ItemEnd.IsZero() {
		resp.ScheduleItemEnd = st.ItemEnd.Unix()
	}
	if st.NextCycle != "" {
		resp.StartEpoch = st.NextEpoch
	}
	if s.events != nil {
		if n, err := s.events.Size(); err == nil {
			resp.LogSize = n
		}
	}
	return resp
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := s.config.Version
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusResponse(s.runner.Status()))
}

// handleSSE streams status snapshots as server-sent events.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, unsubscribe := s.runner.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Current state first so clients need not wait for a change.
	if err := writeEvent(w, "status", s.statusResponse(s.runner.Status())); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-ch:
			if err := writeEvent(w, "status", s.statusResponse(st)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}

func (s *Server) zoneCount() int {
	var n int
	_ = s.runner.Exec(func(c *controller.Controller) error {
		n = c.ZoneCount()
		return nil
	})
	return n
}

// handleZone switches zones directly. The actuation runs on the next tick.
func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	zones, cmd := r.PathValue("zones"), strings.ToLower(r.PathValue("cmd"))
	if _, err := zone.Parse(zones, s.zoneCount()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch cmd {
	case controller.ZoneOn, controller.ZoneOff, controller.ZoneToggle:
	default:
		writeError(w, http.StatusBadRequest, "unknown zone command: "+cmd)
		return
	}

	s.runner.Defer(func(c *controller.Controller) error {
		return c.ControlZone(zones, cmd)
	})
	writeOK(w)
}

func (s *Server) handleScheduleAction(w http.ResponseWriter, r *http.Request) {
	action := strings.ToLower(r.PathValue("action"))
	switch action {
	case controller.ActionPause, controller.ActionResume, controller.ActionCancel, controller.ActionSkip:
	default:
		writeError(w, http.StatusBadRequest, "unknown schedule action: "+action)
		return
	}

	s.runner.Defer(func(c *controller.Controller) error {
		return c.ControlScheduler(action)
	})
	writeOK(w)
}

func (s *Server) handleScheduleItem(w http.ResponseWriter, r *http.Request) {
	zones, minutes := r.PathValue("zones"), r.PathValue("minutes")
	if _, err := schedule.NewItem(zones, minutes, s.zoneCount()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.runner.Defer(func(c *controller.Controller) error {
		return c.ScheduleItem(zones, minutes)
	})
	writeOK(w)
}

// handleSchedulePost replaces or extends the queue with [[zones...], minutes]
// items, sent either as a bare array or as {"schedule": [...]}. An empty
// set cancels the schedule.
func (s *Server) handleSchedulePost(w http.ResponseWriter, r *http.Request) {
	mode := strings.ToLower(r.PathValue("mode"))
	if mode != "set" && mode != "append" {
		writeError(w, http.StatusBadRequest, "unknown schedule mode: "+mode)
		return
	}

	items, err := decodeSchedule(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule: "+err.Error())
		return
	}
	count := s.zoneCount()
	for i, it := range items {
		if !it.Zones.Valid(count) || it.RunTime < schedule.MinRunTime {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid schedule item %d: %s", i+1, it))
			return
		}
	}

	s.runner.Defer(func(c *controller.Controller) error {
		if mode == "set" {
			return c.SetSchedule(items)
		}
		return c.AppendSchedule(items)
	})
	writeOK(w)
}

func decodeSchedule(body io.Reader) ([]schedule.Item, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var doc struct {
			Schedule *[]schedule.Item `json:"schedule"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.Schedule == nil {
			return nil, errors.New("missing schedule")
		}
		return *doc.Schedule, nil
	}
	var items []schedule.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	var cycles []cycle.Definition
	_ = s.runner.Exec(func(c *controller.Controller) error {
		cycles = c.Cycles()
		return nil
	})
	if cycles == nil {
		cycles = []cycle.Definition{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleCyclesText(w http.ResponseWriter, r *http.Request) {
	var cycles []cycle.Definition
	_ = s.runner.Exec(func(c *controller.Controller) error {
		cycles = c.Cycles()
		return nil
	})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for i := range cycles {
		fmt.Fprintln(w, cycles[i].String())
	}
}

// handleClearCycles removes all cycles and the hold on the next tick.
// Clearing cancels the schedule, which switches zones.
func (s *Server) handleClearCycles(w http.ResponseWriter, r *http.Request) {
	s.runner.Defer(func(c *controller.Controller) error {
		return c.ClearCycles()
	})
	writeOK(w)
}

func (s *Server) handleAddCycle(w http.ResponseWriter, r *http.Request) {
	var def cycle.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.runner.Exec(func(c *controller.Controller) error {
		return c.AddCycle(def)
	})

	var verr *cycle.ValidationError
	if errors.As(err, &verr) {
		msgs := make([]string, len(verr.Violations))
		for i, v := range verr.Violations {
			msgs[i] = v.String()
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":     "error",
			"msg":        "invalid cycle",
			"violations": msgs,
		})
		return
	}
	writeResult(w, err)
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	var def cycle.Definition
	err := s.runner.Exec(func(c *controller.Controller) error {
		var err error
		def, err = c.FindCycle(r.PathValue("name"))
		return err
	})
	if err != nil {
		writeResult(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
	err := s.runner.Exec(func(c *controller.Controller) error {
		return c.DeleteCycle(r.PathValue("name"))
	})
	writeResult(w, err)
}

// handleRunCycle fires a cycle on the next tick, regardless of hold.
func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.runner.Exec(func(c *controller.Controller) error {
		_, err := c.FindCycle(name)
		return err
	})
	if err != nil {
		writeResult(w, err)
		return
	}

	s.runner.Defer(func(c *controller.Controller) error {
		return c.RunCycle(name)
	})
	writeOK(w)
}

func (s *Server) handleNextCycle(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Status()
	if st.NextCycle == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"msg":    "no cycle scheduled",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"nextCycle":     st.NextCycle,
		"startEpoch":    st.NextEpoch,
		"startDateTime": st.NextString,
	})
}

func (s *Server) handleHold(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"holdDays":  st.HoldDays,
		"holdEpoch": st.HoldEpoch,
		"resume":    st.HoldResume,
	})
}

func (s *Server) handleSetHold(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.PathValue("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hold days")
		return
	}
	err = s.runner.Exec(func(c *controller.Controller) error {
		return c.SetHold(days)
	})
	if err != nil {
		writeResult(w, err)
		return
	}
	s.handleHold(w, r)
}

func (s *Server) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Status()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "adj": st.Adjustment})
}

func (s *Server) handleSetAdjustment(w http.ResponseWriter, r *http.Request) {
	pct, err := strconv.Atoi(r.PathValue("pct"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid adjustment")
		return
	}
	err = s.runner.Exec(func(c *controller.Controller) error {
		return c.SetAdjustment(pct)
	})
	if err != nil {
		writeResult(w, err)
		return
	}
	s.handleAdjustment(w, r)
}

func (s *Server) handleToggleDelay(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"toggleDelay": st.InterZoneDelay.Milliseconds(),
	})
}

func (s *Server) handleSetToggleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(r.PathValue("ms"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid toggle delay")
		return
	}
	err = s.runner.Exec(func(c *controller.Controller) error {
		return c.SetInterZoneDelay(time.Duration(ms) * time.Millisecond)
	})
	if err != nil {
		writeResult(w, err)
		return
	}
	s.handleToggleDelay(w, r)
}

func (s *Server) handleLogic(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Status()
	if st.Logic == "" {
		writeResult(w, controller.ErrUnsupported)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"logicMode":    st.Logic,
		"outputEnable": st.OutputEnabled,
	})
}

func (s *Server) handleSetLogic(w http.ResponseWriter, r *http.Request) {
	l, err := actuator.ParseLogic(r.PathValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.runner.Status().Logic == "" {
		writeResult(w, controller.ErrUnsupported)
		return
	}

	// Changing polarity rewrites the output register, so it runs on the
	// control loop like any other actuation.
	s.runner.Defer(func(c *controller.Controller) error {
		return c.SetLogic(l)
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"logicMode": l.String(),
	})
}

// handleLogShow renders the event log as text, one event per line.
// Optional query parameters: category, cycle, run, zones.
func (s *Server) handleLogShow(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event log disabled")
		return
	}

	filter, err := parseLogFilter(r, s.zoneCount())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := log.ReadAll(s.events.Fs(), s.events.Path(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	loc := s.runner.Status().Time.Location()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, e := range events {
		fmt.Fprintln(w, e.Line(loc))
	}
}

func parseLogFilter(r *http.Request, zoneCount int) (log.Filter, error) {
	q := r.URL.Query()
	f := log.Filter{
		Cycle: q.Get("cycle"),
		RunID: q.Get("run"),
	}
	if name := q.Get("category"); name != "" {
		found := false
		for c := log.CategoryZone; c <= log.CategoryError; c++ {
			if strings.EqualFold(c.String(), name) {
				cat := c
				f.Category = &cat
				found = true
				break
			}
		}
		if !found {
			return f, fmt.Errorf("unknown category %q", name)
		}
	}
	if zones := q.Get("zones"); zones != "" {
		mask, err := zone.Parse(zones, zoneCount)
		if err != nil {
			return f, err
		}
		f.Zones = mask
	}
	return f, nil
}

func (s *Server) handleLogReset(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event log disabled")
		return
	}
	if err := s.events.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w)
}

func (s *Server) handleLogSize(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event log disabled")
		return
	}
	n, err := s.events.Size()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "logSize": n})
}

func (s *Server) handleLogMark(w http.ResponseWriter, r *http.Request) {
	text := r.PathValue("text")
	_ = s.runner.Exec(func(c *controller.Controller) error {
		c.Mark(text)
		return nil
	})
	writeOK(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "run history disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.history.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "msg": msg})
}

// writeResult maps controller errors to HTTP statuses.
func writeResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeOK(w)
	case errors.Is(err, cycle.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, controller.ErrPersistence):
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, controller.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
