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

// PacketIn is a first-packet event from a switch: the (possibly buffered)
// packet itself plus the ingress port extracted from the embedded match.
type PacketIn struct {
	Message
	bufferID    uint32
	totalLength uint16
	reason      uint8
	tableID     uint8
	cookie      uint64
	inPort      uint32
	data        []byte
}

func (r *PacketIn) BufferID() uint32 {
	return r.bufferID
}

func (r *PacketIn) InPort() uint32 {
	return r.inPort
}

func (r *PacketIn) Cookie() uint64 {
	return r.cookie
}

func (r *PacketIn) Data() []byte {
	return r.data
}

func (r *PacketIn) UnmarshalBinary(data []byte) error {
	if err := r.Message.UnmarshalBinary(data); err != nil {
		return err
	}

	payload := r.Payload()
	if len(payload) < 16 {
		return ErrInvalidPacketLength
	}
	r.bufferID = binary.BigEndian.Uint32(payload[0:4])
	r.totalLength = binary.BigEndian.Uint16(payload[4:6])
	r.reason = payload[6]
	r.tableID = payload[7]
	r.cookie = binary.BigEndian.Uint64(payload[8:16])

	match := NewMatch()
	if err := match.UnmarshalBinary(payload[16:]); err != nil {
		return err
	}
	if wildcard, port := match.InPort(); !wildcard {
		r.inPort = port
	}

	// The match is padded to a multiple of 8, followed by 2 bytes of
	// padding and then the packet data.
	matchLen := int(binary.BigEndian.Uint16(payload[18:20]))
	if rem := matchLen % 8; rem > 0 {
		matchLen += 8 - rem
	}
	offset := 16 + matchLen + 2
	if len(payload) > offset {
		r.data = payload[offset:]
	}

	return nil
}
