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
	"encoding"
	"net"
	"testing"

	"github.com/mulberry-sdn/mulberry/openflow"
)

type recordingWriter struct {
	messages []encoding.BinaryMarshaler
}

func (r *recordingWriter) Write(msg encoding.BinaryMarshaler) error {
	r.messages = append(r.messages, msg)
	return nil
}

func TestInstallFlow(t *testing.T) {
	w := &recordingWriter{}
	device := NewDevice(0x1, w)

	err := device.InstallFlow(FlowParam{
		InPort:      1,
		OutPort:     2,
		EtherType:   0x0800,
		SrcIP:       net.ParseIP("10.0.0.1"),
		DstIP:       net.ParseIP("10.0.0.2"),
		Priority:    1,
		IdleTimeout: 15,
		HardTimeout: 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %v", len(w.messages))
	}

	mod, ok := w.messages[0].(*openflow.FlowMod)
	if !ok {
		t.Fatalf("expected a flow mod, got %T", w.messages[0])
	}
	if mod.Command() != openflow.FlowCmdAdd {
		t.Fatalf("unexpected command: %v", mod.Command())
	}
	if mod.Priority() != 1 || mod.IdleTimeout() != 15 || mod.HardTimeout() != 60 {
		t.Fatalf("unexpected rule policy: priority=%v idle=%v hard=%v",
			mod.Priority(), mod.IdleTimeout(), mod.HardTimeout())
	}
	match := mod.FlowMatch()
	if wildcard, port := match.InPort(); wildcard || port != 1 {
		t.Fatalf("unexpected match in-port: wildcard=%v port=%v", wildcard, port)
	}
	if !match.SrcIP().Equal(net.ParseIP("10.0.0.1")) || !match.DstIP().Equal(net.ParseIP("10.0.0.2")) {
		t.Fatalf("unexpected match addresses: %v -> %v", match.SrcIP(), match.DstIP())
	}
	outPort := mod.FlowInstruction().Action.OutPort()
	if outPort.Value() != 2 {
		t.Fatalf("unexpected output port: %v", outPort.Value())
	}
}

func TestSendPacketOutEmpty(t *testing.T) {
	w := &recordingWriter{}
	device := NewDevice(0x1, w)

	// Nothing to transmit: no buffer reference and no payload.
	err := device.SendPacketOut(PacketOutParam{
		BufferID: openflow.NoBuffer,
		InPort:   openflow.NewInPort(),
		OutPort:  3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.messages) != 0 {
		t.Fatalf("expected no message, got %v", len(w.messages))
	}
}

func TestSendPacketOutBuffered(t *testing.T) {
	w := &recordingWriter{}
	device := NewDevice(0x1, w)

	err := device.SendPacketOut(PacketOutParam{
		BufferID: 42,
		InPort:   openflow.NewInPort(),
		OutPort:  3,
		Data:     []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %v", len(w.messages))
	}

	out := w.messages[0].(*openflow.PacketOut)
	if out.BufferID() != 42 {
		t.Fatalf("unexpected buffer ID: %v", out.BufferID())
	}
	// A buffered directive references the switch-held packet; the payload
	// stays home.
	if out.Data() != nil {
		t.Fatal("expected no payload on a buffered packet out")
	}
}

func TestSendMessageOnClosedDevice(t *testing.T) {
	w := &recordingWriter{}
	device := NewDevice(0x1, w)
	device.Close()

	if err := device.SendMessage(openflow.NewHello(1)); err != ErrClosedDevice {
		t.Fatalf("expected ErrClosedDevice, got %v", err)
	}
}

func TestRegistryReRegister(t *testing.T) {
	registry := NewRegistry()
	old := NewDevice(0x1, &recordingWriter{})
	registry.Register(old)

	replacement := NewDevice(0x1, &recordingWriter{})
	registry.Register(replacement)

	if !old.IsClosed() {
		t.Fatal("the stale device was not closed on re-registration")
	}
	if registry.Device(0x1) != replacement {
		t.Fatal("the replacement device is not registered")
	}

	registry.Unregister(0x1)
	if registry.Device(0x1) != nil {
		t.Fatal("the device survived unregistration")
	}
}
