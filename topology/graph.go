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

package topology

import (
	"sort"
)

// Node is a switch in a graph snapshot.
type Node struct {
	ID SwitchID `json:"id"`
}

// Link is one physical inter-switch link in a graph snapshot.
type Link struct {
	Source     SwitchID `json:"source"`
	Target     SwitchID `json:"target"`
	SourcePort uint32   `json:"source_port"`
	TargetPort uint32   `json:"target_port"`
}

// Graph is a point-in-time copy of the topology graph for the query
// surface. Mutating it does not touch the live topology.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Snapshot renders the current graph. Each physical link appears once even
// though the port map stores it directionally.
func (r *Topology) Snapshot() Graph {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	g := Graph{
		Nodes: make([]Node, 0, len(r.switches)),
		Links: make([]Link, 0, len(r.linkToPort)/2),
	}
	for id := range r.switches {
		g.Nodes = append(g.Nodes, Node{ID: id})
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })

	for k, ports := range r.linkToPort {
		if k[0] > k[1] {
			continue
		}
		g.Links = append(g.Links, Link{
			Source:     k[0],
			Target:     k[1],
			SourcePort: ports.Src,
			TargetPort: ports.Dst,
		})
	}
	sort.Slice(g.Links, func(i, j int) bool {
		if g.Links[i].Source != g.Links[j].Source {
			return g.Links[i].Source < g.Links[j].Source
		}
		return g.Links[i].Target < g.Links[j].Target
	})

	return g
}
