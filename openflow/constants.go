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

// Package openflow implements the subset of the OpenFlow 1.3 wire protocol
// that this controller speaks: the symmetric handshake messages, PACKET_IN,
// PACKET_OUT and FLOW_MOD with OXM matches.
package openflow

// Version13 is the only protocol version this controller negotiates.
const Version13 = 0x04

// OpenFlow 1.3 message types.
const (
	TypeHello          = 0
	TypeError          = 1
	TypeEchoRequest    = 2
	TypeEchoReply      = 3
	TypeFeaturesReq    = 5
	TypeFeaturesReply  = 6
	TypePacketIn       = 10
	TypeFlowRemoved    = 11
	TypePortStatus     = 12
	TypePacketOut      = 13
	TypeFlowMod        = 14
	TypeMultipartReq   = 18
	TypeMultipartReply = 19
)

// Reserved port numbers (ofp_port_no).
const (
	PortFlood      = 0xFFFFFFFB
	PortAll        = 0xFFFFFFFC
	PortController = 0xFFFFFFFD
	PortLocal      = 0xFFFFFFFE
	PortAny        = 0xFFFFFFFF
)

// NoBuffer is the buffer ID of an unbuffered packet (OFP_NO_BUFFER).
const NoBuffer = 0xFFFFFFFF

// Flow mod commands (ofp_flow_mod_command).
const (
	FlowCmdAdd    = 0
	FlowCmdModify = 1
	FlowCmdDelete = 3
)

// FlagSendFlowRemoved asks the switch to notify us when the flow expires.
const FlagSendFlowRemoved = 0x1

// OXM match fields of the OPENFLOW_BASIC class.
const (
	oxmClassBasic = 0x8000

	OXMInPort   = 0
	OXMEthDst   = 3
	OXMEthSrc   = 4
	OXMEthType  = 5
	OXMIPv4Src  = 11
	OXMIPv4Dst  = 12
	OXMTCPSrc   = 13
	OXMTCPDst   = 14
	OXMMatchOXM = 1 // ofp_match_type OFPMT_OXM
)

// Action and instruction types.
const (
	ActionOutput            = 0
	InstructionApplyActions = 4
)

// maxLenNoBuffer asks output actions to send the complete packet.
const maxLenNoBuffer = 0xFFFF
