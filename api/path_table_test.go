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
	"reflect"
	"testing"

	"github.com/mulberry-sdn/mulberry/topology"
)

func TestPathTableRoundTrip(t *testing.T) {
	table := topology.PathTable{
		1: {
			3: []topology.Path{{1, 2, 3}, {1, 4, 3}},
		},
		2: {
			1: []topology.Path{{2, 1}},
		},
	}

	decoded, err := unmarshalPathTable(marshalPathTable(table))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, table) {
		t.Fatalf("expected %v, got %v", table, decoded)
	}
}

func TestPathTableInvalidSwitchID(t *testing.T) {
	wire := wirePathTable{
		"not-a-switch": {"2": [][]uint64{{1, 2}}},
	}
	if _, err := unmarshalPathTable(wire); err == nil {
		t.Fatal("expected an error for a malformed switch ID")
	}
}
