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
	"errors"
	"fmt"
	"net"
)

var ErrMissingEtherType = errors.New("missing Ethernet type field")

// Match is an OXM flow match. Unset fields are wildcarded. Fields marshal
// in a fixed order so that two matches with the same content produce
// identical wire bytes.
type Match struct {
	inPort    *uint32
	etherType *uint16
	srcMAC    net.HardwareAddr
	dstMAC    net.HardwareAddr
	srcIP     net.IP
	dstIP     net.IP
}

// NewMatch returns a match whose fields are all wildcarded.
func NewMatch() *Match {
	return &Match{}
}

func (r *Match) SetInPort(port uint32) {
	r.inPort = &port
}

func (r *Match) InPort() (wildcard bool, port uint32) {
	if r.inPort == nil {
		return true, 0
	}
	return false, *r.inPort
}

func (r *Match) SetEtherType(t uint16) {
	r.etherType = &t
}

func (r *Match) EtherType() (wildcard bool, etherType uint16) {
	if r.etherType == nil {
		return true, 0
	}
	return false, *r.etherType
}

func (r *Match) SetSrcMAC(mac net.HardwareAddr) {
	r.srcMAC = mac
}

func (r *Match) SrcMAC() (wildcard bool, mac net.HardwareAddr) {
	return r.srcMAC == nil, r.srcMAC
}

func (r *Match) SetDstMAC(mac net.HardwareAddr) {
	r.dstMAC = mac
}

func (r *Match) DstMAC() (wildcard bool, mac net.HardwareAddr) {
	return r.dstMAC == nil, r.dstMAC
}

// SetSrcIP requires an IPv4 Ethernet type to be set first; the OXM
// prerequisite would otherwise make the switch reject the match.
func (r *Match) SetSrcIP(ip net.IP) error {
	if r.etherType == nil {
		return ErrMissingEtherType
	}
	r.srcIP = ip.To4()

	return nil
}

func (r *Match) SrcIP() net.IP {
	return r.srcIP
}

func (r *Match) SetDstIP(ip net.IP) error {
	if r.etherType == nil {
		return ErrMissingEtherType
	}
	r.dstIP = ip.To4()

	return nil
}

func (r *Match) DstIP() net.IP {
	return r.dstIP
}

func marshalUint16TLV(field uint8, v uint16) []byte {
	data := make([]byte, 6)
	binary.BigEndian.PutUint32(data[0:4], uint32(oxmClassBasic)<<16|uint32(field)<<9|2)
	binary.BigEndian.PutUint16(data[4:6], v)
	return data
}

func marshalUint32TLV(field uint8, v uint32) []byte {
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data[0:4], uint32(oxmClassBasic)<<16|uint32(field)<<9|4)
	binary.BigEndian.PutUint32(data[4:8], v)
	return data
}

func marshalHardwareAddrTLV(field uint8, mac net.HardwareAddr) []byte {
	data := make([]byte, 10)
	binary.BigEndian.PutUint32(data[0:4], uint32(oxmClassBasic)<<16|uint32(field)<<9|6)
	copy(data[4:10], mac)
	return data
}

func marshalIPTLV(field uint8, ip net.IP) []byte {
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data[0:4], uint32(oxmClassBasic)<<16|uint32(field)<<9|4)
	copy(data[4:8], ip.To4())
	return data
}

func (r *Match) MarshalBinary() ([]byte, error) {
	if (r.srcIP != nil || r.dstIP != nil) && r.etherType == nil {
		return nil, ErrMissingEtherType
	}

	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], OXMMatchOXM)
	if r.inPort != nil {
		data = append(data, marshalUint32TLV(OXMInPort, *r.inPort)...)
	}
	if r.srcMAC != nil {
		data = append(data, marshalHardwareAddrTLV(OXMEthSrc, r.srcMAC)...)
	}
	if r.dstMAC != nil {
		data = append(data, marshalHardwareAddrTLV(OXMEthDst, r.dstMAC)...)
	}
	if r.etherType != nil {
		data = append(data, marshalUint16TLV(OXMEthType, *r.etherType)...)
	}
	if r.srcIP != nil {
		data = append(data, marshalIPTLV(OXMIPv4Src, r.srcIP)...)
	}
	if r.dstIP != nil {
		data = append(data, marshalIPTLV(OXMIPv4Dst, r.dstIP)...)
	}
	// ofp_match.length excludes the trailing padding.
	binary.BigEndian.PutUint16(data[2:4], uint16(len(data)))
	if rem := len(data) % 8; rem > 0 {
		data = append(data, bytes.Repeat([]byte{0}, 8-rem)...)
	}

	return data, nil
}

func (r *Match) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return ErrInvalidPacketLength
	}
	if binary.BigEndian.Uint16(data[0:2]) != OXMMatchOXM {
		return errors.New("unsupported match type")
	}
	length := binary.BigEndian.Uint16(data[2:4])
	if len(data) < int(length) {
		return ErrInvalidPacketLength
	}

	buf := data[4:length]
	for len(buf) >= 4 {
		header := binary.BigEndian.Uint32(buf[0:4])
		class := header >> 16 & 0xFFFF
		field := uint8(header >> 9 & 0x7F)
		payloadLen := int(header & 0xFF)
		if len(buf) < 4+payloadLen {
			return ErrInvalidPacketLength
		}
		if class != oxmClassBasic {
			buf = buf[4+payloadLen:]
			continue
		}

		payload := buf[4 : 4+payloadLen]
		switch field {
		case OXMInPort:
			if payloadLen < 4 {
				return ErrInvalidPacketLength
			}
			r.SetInPort(binary.BigEndian.Uint32(payload))
		case OXMEthSrc:
			if payloadLen < 6 {
				return ErrInvalidPacketLength
			}
			r.SetSrcMAC(append(net.HardwareAddr{}, payload[0:6]...))
		case OXMEthDst:
			if payloadLen < 6 {
				return ErrInvalidPacketLength
			}
			r.SetDstMAC(append(net.HardwareAddr{}, payload[0:6]...))
		case OXMEthType:
			if payloadLen < 2 {
				return ErrInvalidPacketLength
			}
			r.SetEtherType(binary.BigEndian.Uint16(payload))
		case OXMIPv4Src:
			if payloadLen < 4 {
				return ErrInvalidPacketLength
			}
			r.srcIP = net.IPv4(payload[0], payload[1], payload[2], payload[3])
		case OXMIPv4Dst:
			if payloadLen < 4 {
				return ErrInvalidPacketLength
			}
			r.dstIP = net.IPv4(payload[0], payload[1], payload[2], payload[3])
		default:
			// Fields we do not reason about are skipped, not rejected.
		}
		buf = buf[4+payloadLen:]
	}

	return nil
}

func (r *Match) String() string {
	v := ""
	if r.inPort != nil {
		v += fmt.Sprintf("in_port=%v ", *r.inPort)
	}
	if r.etherType != nil {
		v += fmt.Sprintf("eth_type=%#x ", *r.etherType)
	}
	if r.srcIP != nil {
		v += fmt.Sprintf("ipv4_src=%v ", r.srcIP)
	}
	if r.dstIP != nil {
		v += fmt.Sprintf("ipv4_dst=%v ", r.dstIP)
	}
	if v == "" {
		return "wildcard"
	}

	return v[:len(v)-1]
}
