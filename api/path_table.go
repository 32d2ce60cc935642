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

package api

import (
	"strconv"

	"github.com/mulberry-sdn/mulberry/topology"

	"github.com/pkg/errors"
)

// wirePathTable is the JSON shape of the shortest path table: switch IDs
// as object keys (JSON keys are strings whether the producer thinks of
// them as integers or not), paths as arrays of switch IDs, best path
// first.
type wirePathTable map[string]map[string][][]uint64

func marshalPathTable(t topology.PathTable) wirePathTable {
	wire := make(wirePathTable, len(t))
	for src, byDst := range t {
		m := make(map[string][][]uint64, len(byDst))
		for dst, paths := range byDst {
			v := make([][]uint64, 0, len(paths))
			for _, path := range paths {
				p := make([]uint64, len(path))
				for i, sw := range path {
					p[i] = uint64(sw)
				}
				v = append(v, p)
			}
			m[strconv.FormatUint(uint64(dst), 10)] = v
		}
		wire[strconv.FormatUint(uint64(src), 10)] = m
	}

	return wire
}

func unmarshalPathTable(wire wirePathTable) (topology.PathTable, error) {
	table := make(topology.PathTable, len(wire))
	for src, byDst := range wire {
		srcID, err := parseSwitchID(src)
		if err != nil {
			return nil, err
		}
		m := make(map[topology.SwitchID][]topology.Path, len(byDst))
		for dst, paths := range byDst {
			dstID, err := parseSwitchID(dst)
			if err != nil {
				return nil, err
			}
			v := make([]topology.Path, 0, len(paths))
			for _, path := range paths {
				p := make(topology.Path, len(path))
				for i, sw := range path {
					p[i] = topology.SwitchID(sw)
				}
				v = append(v, p)
			}
			m[dstID] = v
		}
		table[srcID] = m
	}

	return table, nil
}

func parseSwitchID(s string) (topology.SwitchID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid switch ID %q", s)
	}

	return topology.SwitchID(v), nil
}
