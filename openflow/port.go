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

package openflow

// OutPort is an output port of a flow action or a flow removal filter. The
// zero value means "no port" (OFPP_ANY on the wire).
type OutPort struct {
	value    uint32
	physical bool
	flood    bool
}

// NewOutPort returns an OutPort whose value is OFPP_ANY.
func NewOutPort() OutPort {
	return OutPort{}
}

func (r *OutPort) SetValue(port uint32) {
	r.value = port
	r.physical = true
	r.flood = false
}

func (r *OutPort) SetFlood() {
	r.physical = false
	r.flood = true
}

func (r *OutPort) IsFlood() bool {
	return r.flood
}

func (r *OutPort) IsNone() bool {
	return !r.physical && !r.flood
}

// Value returns the wire representation of the port.
func (r OutPort) Value() uint32 {
	switch {
	case r.physical:
		return r.value
	case r.flood:
		return PortFlood
	default:
		return PortAny
	}
}

// InPort is the ingress port of a PACKET_OUT. The zero value means the
// controller port, which is what a packet we originate ourselves carries.
type InPort struct {
	value      uint32
	controller bool
}

// NewInPort returns an InPort pointing at the controller port.
func NewInPort() InPort {
	return InPort{controller: true}
}

func (r *InPort) SetValue(port uint32) {
	r.value = port
	r.controller = false
}

func (r *InPort) SetController() {
	r.controller = true
	r.value = 0
}

func (r *InPort) IsController() bool {
	return r.controller || r.value == 0
}

func (r *InPort) Value() uint32 {
	if r.IsController() {
		return PortController
	}
	return r.value
}
