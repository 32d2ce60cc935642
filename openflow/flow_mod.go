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

type FlowMod struct {
	Message
	command     uint8
	cookie      uint64
	cookieMask  uint64
	tableID     uint8
	idleTimeout uint16
	hardTimeout uint16
	priority    uint16
	match       *Match
	instruction *ApplyActions
	outPort     OutPort
}

func NewFlowMod(xid uint32, cmd uint8) *FlowMod {
	return &FlowMod{
		Message: NewMessage(Version13, TypeFlowMod, xid),
		command: cmd,
		outPort: NewOutPort(),
	}
}

func (r *FlowMod) Command() uint8 {
	return r.command
}

func (r *FlowMod) SetCookie(cookie uint64) {
	r.cookie = cookie
}

func (r *FlowMod) Cookie() uint64 {
	return r.cookie
}

func (r *FlowMod) SetCookieMask(mask uint64) {
	r.cookieMask = mask
}

func (r *FlowMod) SetTableID(id uint8) {
	r.tableID = id
}

func (r *FlowMod) SetIdleTimeout(timeout uint16) {
	r.idleTimeout = timeout
}

func (r *FlowMod) IdleTimeout() uint16 {
	return r.idleTimeout
}

func (r *FlowMod) SetHardTimeout(timeout uint16) {
	r.hardTimeout = timeout
}

func (r *FlowMod) HardTimeout() uint16 {
	return r.hardTimeout
}

func (r *FlowMod) SetPriority(priority uint16) {
	r.priority = priority
}

func (r *FlowMod) Priority() uint16 {
	return r.priority
}

func (r *FlowMod) SetFlowMatch(match *Match) {
	r.match = match
}

func (r *FlowMod) FlowMatch() *Match {
	return r.match
}

func (r *FlowMod) SetFlowInstruction(inst *ApplyActions) {
	r.instruction = inst
}

func (r *FlowMod) FlowInstruction() *ApplyActions {
	return r.instruction
}

func (r *FlowMod) SetOutPort(p OutPort) {
	r.outPort = p
}

func (r *FlowMod) MarshalBinary() ([]byte, error) {
	if r.match == nil {
		return nil, errors.New("empty flow match")
	}

	v := make([]byte, 40)
	binary.BigEndian.PutUint64(v[0:8], r.cookie)
	binary.BigEndian.PutUint64(v[8:16], r.cookieMask)
	v[16] = r.tableID
	v[17] = r.command
	binary.BigEndian.PutUint16(v[18:20], r.idleTimeout)
	binary.BigEndian.PutUint16(v[20:22], r.hardTimeout)
	binary.BigEndian.PutUint16(v[22:24], r.priority)
	binary.BigEndian.PutUint32(v[24:28], NoBuffer)
	binary.BigEndian.PutUint32(v[28:32], r.outPort.Value())
	binary.BigEndian.PutUint32(v[32:36], PortAny) // out_group
	binary.BigEndian.PutUint16(v[36:38], FlagSendFlowRemoved)
	// v[38:40] is padding

	match, err := r.match.MarshalBinary()
	if err != nil {
		return nil, err
	}
	v = append(v, match...)
	if r.instruction != nil {
		inst, err := r.instruction.MarshalBinary()
		if err != nil {
			return nil, err
		}
		v = append(v, inst...)
	}

	r.SetPayload(v)
	return r.Message.MarshalBinary()
}
