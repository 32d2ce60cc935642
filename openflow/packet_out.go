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
)

type PacketOut struct {
	Message
	bufferID uint32
	inPort   InPort
	action   *Action
	data     []byte
}

func NewPacketOut(xid uint32) *PacketOut {
	return &PacketOut{
		Message:  NewMessage(Version13, TypePacketOut, xid),
		bufferID: NoBuffer,
		inPort:   NewInPort(),
	}
}

func (r *PacketOut) SetBufferID(id uint32) {
	r.bufferID = id
}

func (r *PacketOut) BufferID() uint32 {
	return r.bufferID
}

func (r *PacketOut) SetInPort(port InPort) {
	r.inPort = port
}

func (r *PacketOut) InPort() InPort {
	return r.inPort
}

func (r *PacketOut) SetAction(action *Action) {
	r.action = action
}

func (r *PacketOut) Action() *Action {
	return r.action
}

// SetData attaches the raw packet to transmit. It is ignored by the switch
// when a buffer ID is set.
func (r *PacketOut) SetData(data []byte) {
	r.data = data
}

func (r *PacketOut) Data() []byte {
	return r.data
}

func (r *PacketOut) MarshalBinary() ([]byte, error) {
	action := make([]byte, 0)
	if r.action != nil {
		a, err := r.action.MarshalBinary()
		if err != nil {
			return nil, err
		}
		action = append(action, a...)
	}

	v := make([]byte, 16)
	binary.BigEndian.PutUint32(v[0:4], r.bufferID)
	binary.BigEndian.PutUint32(v[4:8], r.inPort.Value())
	binary.BigEndian.PutUint16(v[8:10], uint16(len(action)))
	// v[10:16] is padding
	v = append(v, action...)
	if r.bufferID == NoBuffer && len(r.data) > 0 {
		v = append(v, r.data...)
	}

	r.SetPayload(v)
	return r.Message.MarshalBinary()
}
