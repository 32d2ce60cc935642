/*
 * Mulberry - An OpenFlow shortest-path forwarding controller
 *
 * Copyright (C) 2016 Mulberry project contributors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

// Package api exposes the topology query surface: the graph snapshot and
// the shortest path table, including its wholesale replacement by an
// external path computation service.
package api

import (
	"fmt"
	"net/http"

	"github.com/mulberry-sdn/mulberry/topology"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/op/go-logging"
)

var logger = logging.MustGetLogger("api")

type Server struct {
	Port uint16
	TLS  struct {
		Cert string // Path of a TLS certification file.
		Key  string // Path of a TLS private key file.
	}
	Topology *topology.Topology
}

func (r *Server) Serve() error {
	if r.Topology == nil {
		panic("nil topology")
	}

	api := rest.NewApi()
	// Middleware to set the CORS header.
	api.Use(rest.MiddlewareSimple(func(handler rest.HandlerFunc) rest.HandlerFunc {
		return func(writer rest.ResponseWriter, request *rest.Request) {
			writer.Header().Set("Access-Control-Allow-Origin", "*")
			handler(writer, request)
		}
	}))
	router, err := rest.MakeRouter(
		rest.Get("/v1.0/topology/graph", r.getGraph),
		rest.Post("/v1.0/topology/graph", r.setGraph),
		rest.Get("/v1.0/topology/shortest_path", r.getPaths),
		rest.Post("/v1.0/topology/shortest_path", r.setPaths),
	)
	if err != nil {
		return err
	}
	api.SetApp(router)

	addr := fmt.Sprintf(":%v", r.Port)
	if r.TLS.Cert != "" && r.TLS.Key != "" {
		return http.ListenAndServeTLS(addr, r.TLS.Cert, r.TLS.Key, api.MakeHandler())
	}

	return http.ListenAndServe(addr, api.MakeHandler())
}

func (r *Server) getGraph(w rest.ResponseWriter, req *rest.Request) {
	w.WriteJson(r.Topology.Snapshot())
}

// setGraph accepts a topology push from the external discovery service:
// the graph itself plus the host-facing ports.
func (r *Server) setGraph(w rest.ResponseWriter, req *rest.Request) {
	payload := struct {
		topology.Graph
		AccessPorts []topology.AccessPoint `json:"access_ports"`
	}{}
	if err := req.DecodeJsonPayload(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	r.Topology.ReplaceGraph(payload.Graph, payload.AccessPorts)
	logger.Infof("topology graph replaced via the API: %v nodes, %v links", len(payload.Nodes), len(payload.Links))

	w.WriteJson(&struct{}{})
}

func (r *Server) getPaths(w rest.ResponseWriter, req *rest.Request) {
	w.WriteJson(marshalPathTable(r.Topology.PathTable()))
}

func (r *Server) setPaths(w rest.ResponseWriter, req *rest.Request) {
	wire := wirePathTable{}
	if err := req.DecodeJsonPayload(&wire); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	table, err := unmarshalPathTable(wire)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	r.Topology.SetPathTable(table)
	logger.Infof("shortest path table replaced via the API: %v source switches", len(table))

	w.WriteJson(&struct{}{})
}

func writeError(w rest.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	w.WriteJson(&struct {
		Error string `json:"error"`
	}{err.Error()})
}
