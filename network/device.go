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

// Package network manages connected switches: the per-connection session,
// the registry of control handles, and the rule/packet-out submission
// primitives. All submissions are fire-and-forget; nothing here waits for
// a switch to acknowledge anything.
package network

import (
	"encoding"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/mulberry-sdn/mulberry/openflow"
)

var ErrClosedDevice = errors.New("already closed device")

// MessageWriter is the outbound half of a switch control channel.
type MessageWriter interface {
	Write(msg encoding.BinaryMarshaler) error
}

// Device is the control handle of a connected switch.
type Device struct {
	mutex      sync.RWMutex
	dpid       uint64
	w          MessageWriter
	numBuffers uint32
	numTables  uint8
	closed     bool
}

func NewDevice(dpid uint64, w MessageWriter) *Device {
	if w == nil {
		panic("nil message writer")
	}

	return &Device{
		dpid: dpid,
		w:    w,
	}
}

func (r *Device) DPID() uint64 {
	return r.dpid
}

func (r *Device) String() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return fmt.Sprintf("DPID=%#x, NumBuffers=%v, NumTables=%v, Connected=%v",
		r.dpid, r.numBuffers, r.numTables, !r.closed)
}

func (r *Device) setFeatures(numBuffers uint32, numTables uint8) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.numBuffers = numBuffers
	r.numTables = numTables
}

// SendMessage writes a message to the switch without waiting for any
// acknowledgment.
func (r *Device) SendMessage(msg encoding.BinaryMarshaler) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if msg == nil {
		panic("nil message")
	}
	if r.closed {
		return ErrClosedDevice
	}

	return r.w.Write(msg)
}

func (r *Device) IsClosed() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.closed
}

func (r *Device) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.closed = true
}

// FlowParam describes one unidirectional forwarding rule: traffic of the
// flow arriving on InPort leaves on OutPort until the rule expires.
type FlowParam struct {
	InPort      uint32
	OutPort     uint32
	EtherType   uint16
	SrcIP       net.IP
	DstIP       net.IP
	Priority    uint16
	IdleTimeout uint16
	HardTimeout uint16
}

func (r FlowParam) String() string {
	return fmt.Sprintf("InPort=%v, OutPort=%v, EtherType=%#x, SrcIP=%v, DstIP=%v",
		r.InPort, r.OutPort, r.EtherType, r.SrcIP, r.DstIP)
}

// InstallFlow submits one FLOW_MOD building the match and output action
// from p. Re-submitting an identical rule only refreshes the switch-side
// timers.
func (r *Device) InstallFlow(p FlowParam) error {
	match := openflow.NewMatch()
	match.SetInPort(p.InPort)
	match.SetEtherType(p.EtherType)
	if p.SrcIP != nil {
		if err := match.SetSrcIP(p.SrcIP); err != nil {
			return err
		}
	}
	if p.DstIP != nil {
		if err := match.SetDstIP(p.DstIP); err != nil {
			return err
		}
	}

	outPort := openflow.NewOutPort()
	outPort.SetValue(p.OutPort)
	action := openflow.NewAction()
	action.SetOutPort(outPort)

	mod := openflow.NewFlowMod(openflow.NextXID(), openflow.FlowCmdAdd)
	mod.SetPriority(p.Priority)
	mod.SetIdleTimeout(p.IdleTimeout)
	mod.SetHardTimeout(p.HardTimeout)
	mod.SetFlowMatch(match)
	mod.SetFlowInstruction(&openflow.ApplyActions{Action: action})

	return r.SendMessage(mod)
}

// PacketOutParam describes one forward-only directive: transmit a specific
// packet out a specific port, with no rule left behind.
type PacketOutParam struct {
	// BufferID refers to a packet held at the switch;
	// openflow.NoBuffer when Data carries the packet instead.
	BufferID uint32
	InPort   openflow.InPort
	OutPort  uint32
	Data     []byte
}

// SendPacketOut submits one PACKET_OUT. A directive with neither a buffer
// reference nor a payload has nothing to transmit and is a no-op.
func (r *Device) SendPacketOut(p PacketOutParam) error {
	if p.BufferID == openflow.NoBuffer && len(p.Data) == 0 {
		return nil
	}

	outPort := openflow.NewOutPort()
	outPort.SetValue(p.OutPort)
	action := openflow.NewAction()
	action.SetOutPort(outPort)

	out := openflow.NewPacketOut(openflow.NextXID())
	out.SetBufferID(p.BufferID)
	out.SetInPort(p.InPort)
	out.SetAction(action)
	if p.BufferID == openflow.NoBuffer {
		out.SetData(p.Data)
	}

	return r.SendMessage(out)
}
