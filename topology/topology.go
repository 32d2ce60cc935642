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

// Package topology holds the network view the forwarding core consumes:
// which ports face hosts, where hosts are attached, which port pairs make
// up inter-switch links, and the precomputed shortest path table. The
// structures are read-mostly; discovery writes them, forwarding reads them.
package topology

import (
	"errors"
	"net"
	"sort"
	"sync"

	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("topology")

	// ErrPathNotFound means the path table has no entry for a switch
	// pair. Path computation is not our job, so this is reported to the
	// caller rather than retried.
	ErrPathNotFound = errors.New("no precomputed path between the switches")
)

// SwitchID is a datapath ID, unique process-wide.
type SwitchID uint64

// AccessPoint is a switch-local attachment point of an end host.
type AccessPoint struct {
	Switch SwitchID `json:"switch"`
	Port   uint32   `json:"port"`
}

// Host is what we learned about an attachment point from ARP traffic.
type Host struct {
	IP  net.IP
	MAC net.HardwareAddr
}

// PortPair describes which local ports connect two adjacent switches, in
// link direction order.
type PortPair struct {
	Src uint32
	Dst uint32
}

// Path is an ordered walk of switches from source to destination inclusive.
type Path []SwitchID

// PathTable maps (src, dst) to the precomputed paths for the pair, best
// first. Replaced wholesale, never mutated in place.
type PathTable map[SwitchID]map[SwitchID][]Path

type Topology struct {
	mutex       sync.RWMutex
	switches    map[SwitchID]bool
	accessPorts map[AccessPoint]bool
	accessTable map[AccessPoint]Host
	linkToPort  map[[2]SwitchID]PortPair
	paths       PathTable
}

func New() *Topology {
	return &Topology{
		switches:    make(map[SwitchID]bool),
		accessPorts: make(map[AccessPoint]bool),
		accessTable: make(map[AccessPoint]Host),
		linkToPort:  make(map[[2]SwitchID]PortPair),
		paths:       make(PathTable),
	}
}

func (r *Topology) AddSwitch(id SwitchID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.switches[id] = true
}

func (r *Topology) RemoveSwitch(id SwitchID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.switches, id)
	for ap := range r.accessPorts {
		if ap.Switch == id {
			delete(r.accessPorts, ap)
			delete(r.accessTable, ap)
		}
	}
	for k := range r.linkToPort {
		if k[0] == id || k[1] == id {
			delete(r.linkToPort, k)
		}
	}
}

// AddAccessPort marks a port as host-facing.
func (r *Topology) AddAccessPort(ap AccessPoint) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.switches[ap.Switch] = true
	r.accessPorts[ap] = true
}

// AddLink records an inter-switch link. A physical link yields two
// directional entries, one per direction.
func (r *Topology) AddLink(src, dst SwitchID, srcPort, dstPort uint32) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.switches[src] = true
	r.switches[dst] = true
	r.linkToPort[[2]SwitchID{src, dst}] = PortPair{Src: srcPort, Dst: dstPort}
	r.linkToPort[[2]SwitchID{dst, src}] = PortPair{Src: dstPort, Dst: srcPort}
	// A port that carries a link cannot be host-facing.
	delete(r.accessPorts, AccessPoint{Switch: src, Port: srcPort})
	delete(r.accessPorts, AccessPoint{Switch: dst, Port: dstPort})
}

// LearnHost records a host's attachment point observed from ARP traffic.
// Only access ports are learnable; at most one entry exists per point.
func (r *Topology) LearnHost(ap AccessPoint, ip net.IP, mac net.HardwareAddr) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.accessPorts[ap] {
		return
	}
	if old, ok := r.accessTable[ap]; ok {
		if old.IP.Equal(ip) {
			return
		}
		logger.Debugf("host at %v changed: %v -> %v", ap, old.IP, ip)
	}
	r.accessTable[ap] = Host{IP: ip, MAC: mac}
	logger.Debugf("learned host %v (%v) at switch %v port %v", ip, mac, ap.Switch, ap.Port)
}

// HostLocation resolves a network address to its attachment point.
func (r *Topology) HostLocation(ip net.IP) (AccessPoint, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for ap, host := range r.accessTable {
		if host.IP.Equal(ip) {
			return ap, true
		}
	}

	return AccessPoint{}, false
}

func (r *Topology) IsAccessPort(ap AccessPoint) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.accessPorts[ap]
}

// UnoccupiedAccessPoints lists host-facing ports whose occupant is still
// unknown, i.e. the ports a discovery broadcast must reach. The result is
// sorted for deterministic flooding order.
func (r *Topology) UnoccupiedAccessPoints() []AccessPoint {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v := make([]AccessPoint, 0)
	for ap := range r.accessPorts {
		if _, ok := r.accessTable[ap]; !ok {
			v = append(v, ap)
		}
	}
	sort.Slice(v, func(i, j int) bool {
		if v[i].Switch != v[j].Switch {
			return v[i].Switch < v[j].Switch
		}
		return v[i].Port < v[j].Port
	})

	return v
}

// ReplaceGraph swaps in a new set of switches, links and access ports.
// Learned hosts survive as long as their attachment point does.
func (r *Topology) ReplaceGraph(g Graph, accessPorts []AccessPoint) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.switches = make(map[SwitchID]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		r.switches[n.ID] = true
	}

	r.linkToPort = make(map[[2]SwitchID]PortPair, len(g.Links)*2)
	for _, l := range g.Links {
		r.switches[l.Source] = true
		r.switches[l.Target] = true
		r.linkToPort[[2]SwitchID{l.Source, l.Target}] = PortPair{Src: l.SourcePort, Dst: l.TargetPort}
		r.linkToPort[[2]SwitchID{l.Target, l.Source}] = PortPair{Src: l.TargetPort, Dst: l.SourcePort}
	}

	// A port that carries a link cannot be host-facing.
	linked := make(map[AccessPoint]bool, len(r.linkToPort))
	for k, ports := range r.linkToPort {
		linked[AccessPoint{Switch: k[0], Port: ports.Src}] = true
	}
	r.accessPorts = make(map[AccessPoint]bool, len(accessPorts))
	for _, ap := range accessPorts {
		if linked[ap] {
			continue
		}
		r.switches[ap.Switch] = true
		r.accessPorts[ap] = true
	}
	for ap := range r.accessTable {
		if !r.accessPorts[ap] {
			delete(r.accessTable, ap)
		}
	}
	logger.Infof("replaced the topology graph: %v switches, %v access ports", len(r.switches), len(r.accessPorts))
}

// PortPair returns the local ports connecting two adjacent switches.
func (r *Topology) PortPair(src, dst SwitchID) (PortPair, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, ok := r.linkToPort[[2]SwitchID{src, dst}]
	return p, ok
}

// ShortestPath returns the best precomputed path between two switches. The
// path table is keyed on distinct pairs, so the same-switch case resolves
// to the trivial single-switch walk without consulting it.
func (r *Topology) ShortestPath(src, dst SwitchID) (Path, error) {
	if src == dst {
		return Path{src}, nil
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	byDst, ok := r.paths[src]
	if !ok {
		return nil, ErrPathNotFound
	}
	paths, ok := byDst[dst]
	if !ok || len(paths) == 0 {
		return nil, ErrPathNotFound
	}

	return paths[0], nil
}

// SetPathTable replaces the whole shortest path table. Readers holding the
// previous table keep a consistent view; a partial overwrite is never
// observable.
func (r *Topology) SetPathTable(t PathTable) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if t == nil {
		t = make(PathTable)
	}
	r.paths = t
	logger.Infof("replaced the shortest path table: %v source switches", len(t))
}

// PathTable returns the current table. The table is replaced, never
// mutated, so handing out the map itself is safe.
func (r *Topology) PathTable() PathTable {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.paths
}
