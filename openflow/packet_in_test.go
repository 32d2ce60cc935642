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
	"bytes"
	"encoding/binary"
	"testing"
)

func marshalPacketIn(t *testing.T, bufferID, inPort uint32, data []byte) []byte {
	match := NewMatch()
	match.SetInPort(inPort)
	m, err := match.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	payload := make([]byte, 16)
	binary.BigEndian.PutUint32(payload[0:4], bufferID)
	binary.BigEndian.PutUint16(payload[4:6], uint16(len(data)))
	payload = append(payload, m...)
	payload = append(payload, 0, 0)
	payload = append(payload, data...)

	msg := NewMessage(Version13, TypePacketIn, 99)
	msg.SetPayload(payload)
	v, err := msg.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	return v
}

func TestPacketInUnmarshal(t *testing.T) {
	data := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	wire := marshalPacketIn(t, 42, 7, data)

	in := PacketIn{}
	if err := in.UnmarshalBinary(wire); err != nil {
		t.Fatal(err)
	}
	if in.BufferID() != 42 {
		t.Fatalf("expected buffer ID 42, got %v", in.BufferID())
	}
	if in.InPort() != 7 {
		t.Fatalf("expected in-port 7, got %v", in.InPort())
	}
	if !bytes.Equal(in.Data(), data) {
		t.Fatalf("unexpected packet data: %v", in.Data())
	}
}

func TestPacketInUnmarshalTruncated(t *testing.T) {
	wire := marshalPacketIn(t, NoBuffer, 1, []byte{1, 2, 3})
	in := PacketIn{}
	if err := in.UnmarshalBinary(wire[:12]); err == nil {
		t.Fatal("expected an error for a truncated message")
	}
}
