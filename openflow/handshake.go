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

func NewHello(xid uint32) *Message {
	m := NewMessage(Version13, TypeHello, xid)
	return &m
}

func NewFeaturesRequest(xid uint32) *Message {
	m := NewMessage(Version13, TypeFeaturesReq, xid)
	return &m
}

// NewEchoReply answers an echo request, carrying back its payload untouched.
func NewEchoReply(xid uint32, payload []byte) *Message {
	m := NewMessage(Version13, TypeEchoReply, xid)
	m.SetPayload(payload)
	return &m
}

// FeaturesReply announces a switch's datapath ID and capabilities. It
// completes the handshake: receiving one is what makes a connection a
// registered switch.
type FeaturesReply struct {
	Message
	dpid         uint64
	numBuffers   uint32
	numTables    uint8
	auxiliaryID  uint8
	capabilities uint32
}

func (r *FeaturesReply) DPID() uint64 {
	return r.dpid
}

func (r *FeaturesReply) NumBuffers() uint32 {
	return r.numBuffers
}

func (r *FeaturesReply) NumTables() uint8 {
	return r.numTables
}

func (r *FeaturesReply) AuxiliaryID() uint8 {
	return r.auxiliaryID
}

func (r *FeaturesReply) Capabilities() uint32 {
	return r.capabilities
}

func (r *FeaturesReply) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}

	payload := r.Payload()
	if len(payload) < 24 {
		return ErrInvalidPacketLength
	}
	r.dpid = binary.BigEndian.Uint64(payload[0:8])
	r.numBuffers = binary.BigEndian.Uint32(payload[8:12])
	r.numTables = payload[12]
	r.auxiliaryID = payload[13]
	// payload[14:16] is padding
	r.capabilities = binary.BigEndian.Uint32(payload[16:20])

	return nil
}
