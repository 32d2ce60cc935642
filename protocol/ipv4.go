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

package protocol

import (
	"encoding/binary"
	"errors"
	"net"
)

// IPv4 carries only the header fields the forwarding path cares about;
// options are skipped over via IHL but not decoded.
type IPv4 struct {
	Version  uint8
	IHL      uint8
	Length   uint16
	ID       uint16
	Flags    uint8
	Offset   uint16
	TTL      uint8
	Protocol uint8
	Checksum uint16
	SrcIP    net.IP
	DstIP    net.IP
	Payload  []byte
}

func (r IPv4) MarshalBinary() ([]byte, error) {
	if r.SrcIP == nil || r.DstIP == nil {
		return nil, errors.New("nil IP address")
	}

	header := make([]byte, 20)
	header[0] = (r.Version&0xF)<<4 | 5 // no options
	binary.BigEndian.PutUint16(header[2:4], uint16(20+len(r.Payload)))
	binary.BigEndian.PutUint16(header[4:6], r.ID)
	binary.BigEndian.PutUint16(header[6:8], (uint16(r.Flags)&0x7)<<13|r.Offset&0x1FFF)
	header[8] = r.TTL
	header[9] = r.Protocol
	copy(header[12:16], r.SrcIP.To4())
	copy(header[16:20], r.DstIP.To4())
	binary.BigEndian.PutUint16(header[10:12], checksum(header))

	return append(header, r.Payload...), nil
}

func (r *IPv4) UnmarshalBinary(data []byte) error {
	if len(data) < 20 {
		return errors.New("invalid IPv4 packet length")
	}

	r.Version = (data[0] >> 4) & 0xF
	r.IHL = data[0] & 0xF
	r.Length = binary.BigEndian.Uint16(data[2:4])
	r.ID = binary.BigEndian.Uint16(data[4:6])
	v := binary.BigEndian.Uint16(data[6:8])
	r.Flags = uint8((v >> 13) & 0x7)
	r.Offset = v & 0x1FFF
	r.TTL = data[8]
	r.Protocol = data[9]
	r.Checksum = binary.BigEndian.Uint16(data[10:12])
	r.SrcIP = data[12:16]
	r.DstIP = data[16:20]

	headerLen := int(r.IHL) * 4
	if headerLen < 20 {
		return errors.New("invalid IPv4 header length")
	}
	if len(data) > headerLen {
		r.Payload = data[headerLen:]
	}

	return nil
}

// checksum is the Internet checksum over an IPv4 header whose checksum
// field is zero.
func checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	for sum > 0xFFFF {
		sum = sum&0xFFFF + sum>>16
	}

	return ^uint16(sum)
}
