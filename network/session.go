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

package network

import (
	"bufio"
	"encoding"
	"io"
	"net"
	"sync"

	"github.com/mulberry-sdn/mulberry/openflow"

	"golang.org/x/net/context"
)

// PacketInHandler consumes first-packet events from registered switches.
// Events from one switch arrive in order; different switches' sessions run
// concurrently.
type PacketInHandler interface {
	OnPacketIn(device *Device, packet *openflow.PacketIn) error
}

// Session drives one switch control connection: handshake, keepalive and
// inbound message dispatch. The device is registered once the switch
// announces its datapath ID and unregistered when the connection dies.
type Session struct {
	conn     net.Conn
	reader   *bufio.Reader
	wmutex   sync.Mutex
	registry *Registry
	handler  PacketInHandler
	device   *Device
}

func NewSession(conn net.Conn, registry *Registry, handler PacketInHandler) *Session {
	if registry == nil || handler == nil {
		panic("nil registry or packet-in handler")
	}

	return &Session{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		registry: registry,
		handler:  handler,
	}
}

// Write implements MessageWriter. Writes from the forwarding path and from
// this session's own handshake are serialized here.
func (r *Session) Write(msg encoding.BinaryMarshaler) error {
	v, err := msg.MarshalBinary()
	if err != nil {
		return err
	}

	r.wmutex.Lock()
	defer r.wmutex.Unlock()
	_, err = r.conn.Write(v)

	return err
}

func (r *Session) Run(ctx context.Context) {
	defer r.cleanup()

	go func() {
		<-ctx.Done()
		// Unblocks the read loop.
		r.conn.Close()
	}()

	if err := r.Write(openflow.NewHello(openflow.NextXID())); err != nil {
		logger.Errorf("failed to send HELLO to %v: %v", r.conn.RemoteAddr(), err)
		return
	}

	for {
		packet, err := r.readMessage()
		if err != nil {
			if err != io.EOF {
				logger.Infof("closing the session from %v: %v", r.conn.RemoteAddr(), err)
			}
			return
		}
		if err := r.dispatch(packet); err != nil {
			// Each inbound event is independent; a failed one never
			// takes the session down.
			logger.Errorf("failed to handle a message from %v: %v", r.conn.RemoteAddr(), err)
		}
	}
}

func (r *Session) cleanup() {
	r.conn.Close()
	if r.device != nil {
		r.device.Close()
		r.registry.Unregister(r.device.DPID())
	}
}

func (r *Session) readMessage() ([]byte, error) {
	header, err := r.reader.Peek(8)
	if err != nil {
		return nil, err
	}
	length := int(uint16(header[2])<<8 | uint16(header[3]))
	if length < 8 {
		return nil, openflow.ErrInvalidPacketLength
	}

	packet := make([]byte, length)
	if _, err := io.ReadFull(r.reader, packet); err != nil {
		return nil, err
	}

	return packet, nil
}

func (r *Session) dispatch(packet []byte) error {
	switch packet[1] {
	case openflow.TypeHello:
		return r.Write(openflow.NewFeaturesRequest(openflow.NextXID()))
	case openflow.TypeEchoRequest:
		return r.handleEchoRequest(packet)
	case openflow.TypeFeaturesReply:
		return r.handleFeaturesReply(packet)
	case openflow.TypePacketIn:
		return r.handlePacketIn(packet)
	case openflow.TypeError:
		logger.Warningf("OpenFlow error from %v: %v", r.conn.RemoteAddr(), packet)
		return nil
	default:
		// Port status, flow removed and the rest are not our concern.
		return nil
	}
}

func (r *Session) handleEchoRequest(packet []byte) error {
	msg := openflow.Message{}
	if err := msg.UnmarshalBinary(packet); err != nil {
		return err
	}

	return r.Write(openflow.NewEchoReply(msg.TransactionID(), msg.Payload()))
}

func (r *Session) handleFeaturesReply(packet []byte) error {
	reply := openflow.FeaturesReply{}
	if err := reply.UnmarshalBinary(packet); err != nil {
		return err
	}
	// Auxiliary connections share the DPID of the main one; we only speak
	// over the main connection.
	if reply.AuxiliaryID() != 0 {
		logger.Debugf("ignoring the auxiliary connection %v of DPID %#x", reply.AuxiliaryID(), reply.DPID())
		return nil
	}

	device := NewDevice(reply.DPID(), r)
	device.setFeatures(reply.NumBuffers(), reply.NumTables())
	r.device = device
	r.registry.Register(device)

	return nil
}

func (r *Session) handlePacketIn(packet []byte) error {
	if r.device == nil {
		// PACKET_IN before the handshake finished.
		return nil
	}

	in := openflow.PacketIn{}
	if err := in.UnmarshalBinary(packet); err != nil {
		return err
	}

	return r.handler.OnPacketIn(r.device, &in)
}
