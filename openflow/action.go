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

import (
	"encoding/binary"
	"errors"
)

// Action is an output action. Rewriting header fields is not something this
// controller ever asks of a switch, so output is the only action we encode.
type Action struct {
	outPort OutPort
}

func NewAction() *Action {
	return &Action{outPort: NewOutPort()}
}

func (r *Action) SetOutPort(port OutPort) {
	r.outPort = port
}

func (r *Action) OutPort() OutPort {
	return r.outPort
}

func (r *Action) MarshalBinary() ([]byte, error) {
	v := make([]byte, 16)
	binary.BigEndian.PutUint16(v[0:2], ActionOutput)
	binary.BigEndian.PutUint16(v[2:4], 16)
	binary.BigEndian.PutUint32(v[4:8], r.outPort.Value())
	// Always hand us the whole packet; we do not do partial PACKET_INs.
	binary.BigEndian.PutUint16(v[8:10], maxLenNoBuffer)
	// v[10:16] is padding

	return v, nil
}

// ApplyActions is the OFPIT_APPLY_ACTIONS instruction wrapping an action
// list in a FLOW_MOD.
type ApplyActions struct {
	Action *Action
}

func (r *ApplyActions) MarshalBinary() ([]byte, error) {
	if r.Action == nil {
		return nil, errors.New("empty action")
	}

	action, err := r.Action.MarshalBinary()
	if err != nil {
		return nil, err
	}

	v := make([]byte, 8)
	v = append(v, action...)
	binary.BigEndian.PutUint16(v[0:2], InstructionApplyActions)
	binary.BigEndian.PutUint16(v[2:4], uint16(len(v)))

	return v, nil
}
