package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"grimm.is/dvr/internal/routing"
)

// addRouteRequest uses pointers so that absent fields can be told apart
// from empty ones. Empty strings are accepted.
type addRouteRequest struct {
	Destination *string `json:"destination"`
	NextHop     *string `json:"next_hop"`
	Metric      *int    `json:"metric"`
}

var errExtraData = errors.New("extra data after JSON value")

// decodeAddRoute reads exactly one JSON object from body. Keys match
// exactly, unlike encoding/json's case-insensitive struct matching.
func decodeAddRoute(body io.Reader) (addRouteRequest, error) {
	var req addRouteRequest

	dec := json.NewDecoder(body)
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return req, err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, err
		}
		return req, errExtraData
	}

	for _, f := range []struct {
		key string
		dst any
	}{
		{"destination", &req.Destination},
		{"next_hop", &req.NextHop},
		{"metric", &req.Metric},
	} {
		raw, ok := fields[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return req, fmt.Errorf("field %q: %w", f.key, err)
		}
	}
	return req, nil
}

func (req addRouteRequest) route() (routing.Route, error) {
	if req.Destination == nil {
		return routing.Route{}, fmt.Errorf("missing required field %q", "destination")
	}
	if req.NextHop == nil {
		return routing.Route{}, fmt.Errorf("missing required field %q", "next_hop")
	}
	metric := routing.DefaultMetric
	if req.Metric != nil {
		metric = *req.Metric
	}
	return routing.Route{Destination: *req.Destination, NextHop: *req.NextHop, Metric: metric}, nil
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, s.cp.GetRoutes())
	case http.MethodPost:
		s.handleAddRoute(w, r)
	case http.MethodDelete:
		s.handleDeleteRoute(w, r)
	default:
		notFound(w)
	}
}

func (s *Server) handleAddRoute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	req, err := decodeAddRoute(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	route, err := req.route()
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	s.cp.AddRoute(route)
	WriteJSON(w, http.StatusCreated, StatusResponse{Status: "route added"})
}

func (s *Server) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	destination := r.URL.Query().Get("destination")
	if destination == "" || !s.cp.DeleteRoute(destination) {
		WriteError(w, http.StatusNotFound, "route not found")
		return
	}
	WriteJSON(w, http.StatusOK, StatusResponse{Status: "route deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		notFound(w)
		return
	}
	WriteJSON(w, http.StatusOK, s.cp.GetStats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		notFound(w)
		return
	}
	WriteJSON(w, http.StatusOK, StatusResponse{Status: "healthy"})
}
