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

package forwarding

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/mulberry-sdn/mulberry/network"
	"github.com/mulberry-sdn/mulberry/openflow"
	"github.com/mulberry-sdn/mulberry/protocol"
	"github.com/mulberry-sdn/mulberry/topology"
)

type fakeTopo struct {
	hosts       map[string]topology.AccessPoint
	accessPorts map[topology.AccessPoint]bool
	links       map[[2]topology.SwitchID]topology.PortPair
	paths       map[[2]topology.SwitchID]topology.Path
}

func newFakeTopo() *fakeTopo {
	return &fakeTopo{
		hosts:       make(map[string]topology.AccessPoint),
		accessPorts: make(map[topology.AccessPoint]bool),
		links:       make(map[[2]topology.SwitchID]topology.PortPair),
		paths:       make(map[[2]topology.SwitchID]topology.Path),
	}
}

func (r *fakeTopo) addLink(src, dst topology.SwitchID, srcPort, dstPort uint32) {
	r.links[[2]topology.SwitchID{src, dst}] = topology.PortPair{Src: srcPort, Dst: dstPort}
	r.links[[2]topology.SwitchID{dst, src}] = topology.PortPair{Src: dstPort, Dst: srcPort}
}

func (r *fakeTopo) LearnHost(ap topology.AccessPoint, ip net.IP, mac net.HardwareAddr) {
	if r.accessPorts[ap] {
		r.hosts[ip.String()] = ap
	}
}

func (r *fakeTopo) HostLocation(ip net.IP) (topology.AccessPoint, bool) {
	ap, ok := r.hosts[ip.String()]
	return ap, ok
}

func (r *fakeTopo) IsAccessPort(ap topology.AccessPoint) bool {
	return r.accessPorts[ap]
}

func (r *fakeTopo) UnoccupiedAccessPoints() []topology.AccessPoint {
	occupied := make(map[topology.AccessPoint]bool)
	for _, ap := range r.hosts {
		occupied[ap] = true
	}

	v := make([]topology.AccessPoint, 0)
	for ap := range r.accessPorts {
		if !occupied[ap] {
			v = append(v, ap)
		}
	}
	sort.Slice(v, func(i, j int) bool {
		if v[i].Switch != v[j].Switch {
			return v[i].Switch < v[j].Switch
		}
		return v[i].Port < v[j].Port
	})

	return v
}

func (r *fakeTopo) PortPair(src, dst topology.SwitchID) (topology.PortPair, bool) {
	p, ok := r.links[[2]topology.SwitchID{src, dst}]
	return p, ok
}

func (r *fakeTopo) ShortestPath(src, dst topology.SwitchID) (topology.Path, error) {
	if src == dst {
		return topology.Path{src}, nil
	}
	if path, ok := r.paths[[2]topology.SwitchID{src, dst}]; ok {
		return path, nil
	}

	return nil, topology.ErrPathNotFound
}

type recorder struct {
	messages []encoding.BinaryMarshaler
}

func (r *recorder) Write(msg encoding.BinaryMarshaler) error {
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recorder) flowMods() []*openflow.FlowMod {
	v := make([]*openflow.FlowMod, 0)
	for _, m := range r.messages {
		if mod, ok := m.(*openflow.FlowMod); ok {
			v = append(v, mod)
		}
	}
	return v
}

func (r *recorder) packetOuts() []*openflow.PacketOut {
	v := make([]*openflow.PacketOut, 0)
	for _, m := range r.messages {
		if out, ok := m.(*openflow.PacketOut); ok {
			v = append(v, out)
		}
	}
	return v
}

type testbed struct {
	topo      *fakeTopo
	forwarder *Forwarder
	writers   map[uint64]*recorder
	devices   map[uint64]*network.Device
}

func newTestbed(config Config, dpids ...uint64) *testbed {
	topo := newFakeTopo()
	registry := network.NewRegistry()
	tb := &testbed{
		topo:      topo,
		forwarder: New(registry, topo, config),
		writers:   make(map[uint64]*recorder),
		devices:   make(map[uint64]*network.Device),
	}
	for _, dpid := range dpids {
		w := &recorder{}
		device := network.NewDevice(dpid, w)
		registry.Register(device)
		tb.writers[dpid] = w
		tb.devices[dpid] = device
	}

	return tb
}

func (r *testbed) messageCount() int {
	n := 0
	for _, w := range r.writers {
		n += len(w.messages)
	}
	return n
}

func newPacketIn(t *testing.T, bufferID, inPort uint32, data []byte) *openflow.PacketIn {
	match := openflow.NewMatch()
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

	msg := openflow.NewMessage(openflow.Version13, openflow.TypePacketIn, 1)
	msg.SetPayload(payload)
	wire, err := msg.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	in := &openflow.PacketIn{}
	if err := in.UnmarshalBinary(wire); err != nil {
		t.Fatal(err)
	}

	return in
}

func mustMAC(t *testing.T, s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		t.Fatal(err)
	}
	return mac
}

func arpFrame(t *testing.T, srcMAC string, srcIP, dstIP string) []byte {
	sha := mustMAC(t, srcMAC)
	arp := protocol.NewARPRequest(sha, net.ParseIP(srcIP), net.ParseIP(dstIP))
	payload, err := arp.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	eth := protocol.Ethernet{
		SrcMAC:  sha,
		DstMAC:  mustMAC(t, "ff:ff:ff:ff:ff:ff"),
		Type:    protocol.EtherTypeARP,
		Payload: payload,
	}
	frame, err := eth.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	return frame
}

func ipv4Frame(t *testing.T, srcIP, dstIP string) []byte {
	ip := protocol.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: 17,
		SrcIP:    net.ParseIP(srcIP),
		DstIP:    net.ParseIP(dstIP),
		Payload:  []byte{0xDE, 0xAD},
	}
	payload, err := ip.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	eth := protocol.Ethernet{
		SrcMAC:  mustMAC(t, "00:00:00:00:00:01"),
		DstMAC:  mustMAC(t, "00:00:00:00:00:02"),
		Type:    protocol.EtherTypeIPv4,
		Payload: payload,
	}
	frame, err := eth.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	return frame
}

func TestARPResolveAndReply(t *testing.T) {
	tb := newTestbed(Config{}, 1, 7)
	tb.topo.accessPorts[topology.AccessPoint{Switch: 1, Port: 1}] = true
	tb.topo.hosts["10.0.0.2"] = topology.AccessPoint{Switch: 7, Port: 3}

	frame := arpFrame(t, "00:00:00:00:00:01", "10.0.0.1", "10.0.0.2")
	in := newPacketIn(t, openflow.NoBuffer, 1, frame)
	if err := tb.forwarder.OnPacketIn(tb.devices[1], in); err != nil {
		t.Fatal(err)
	}

	// The sender's attachment point is learned from the observation.
	if ap, ok := tb.topo.HostLocation(net.ParseIP("10.0.0.1")); !ok || ap != (topology.AccessPoint{Switch: 1, Port: 1}) {
		t.Fatalf("sender not learned at its ingress point: %v", ap)
	}

	// Exactly one directive: out the learned port of the target's switch.
	outs := tb.writers[7].packetOuts()
	if len(outs) != 1 {
		t.Fatalf("expected 1 packet out on the target switch, got %v", len(outs))
	}
	out := outs[0]
	if out.Action().OutPort().Value() != 3 {
		t.Fatalf("expected output port 3, got %v", out.Action().OutPort().Value())
	}
	inPort := out.InPort()
	if !inPort.IsController() {
		t.Fatal("expected the controller in-port")
	}
	if !bytes.Equal(out.Data(), frame) {
		t.Fatal("the original frame was not carried")
	}
	if len(tb.writers[1].messages) != 0 {
		t.Fatal("nothing should be sent to the ingress switch on a resolved target")
	}
}

func TestARPFloodToUnoccupiedPorts(t *testing.T) {
	tb := newTestbed(Config{}, 7)
	for _, ap := range []topology.AccessPoint{{Switch: 7, Port: 1}, {Switch: 7, Port: 2}, {Switch: 7, Port: 3}} {
		tb.topo.accessPorts[ap] = true
	}

	frame := arpFrame(t, "00:00:00:00:00:01", "10.0.0.1", "10.0.0.9")
	in := newPacketIn(t, openflow.NoBuffer, 1, frame)
	if err := tb.forwarder.OnPacketIn(tb.devices[7], in); err != nil {
		t.Fatal(err)
	}

	// The sender occupies (7,1) after learning; the broadcast goes to the
	// remaining unknown ports only.
	outs := tb.writers[7].packetOuts()
	if len(outs) != 2 {
		t.Fatalf("expected 2 flood directives, got %v", len(outs))
	}
	ports := []uint32{outs[0].Action().OutPort().Value(), outs[1].Action().OutPort().Value()}
	if ports[0] != 2 || ports[1] != 3 {
		t.Fatalf("expected flooding to ports 2 and 3, got %v", ports)
	}
	for _, out := range outs {
		if !bytes.Equal(out.Data(), frame) {
			t.Fatal("the original frame was not carried")
		}
	}
}

func TestFloodGuardSuppression(t *testing.T) {
	tb := newTestbed(Config{FloodGuardWindow: time.Minute}, 7)
	tb.topo.accessPorts[topology.AccessPoint{Switch: 7, Port: 2}] = true

	frame := arpFrame(t, "00:00:00:00:00:01", "10.0.0.1", "10.0.0.9")
	for i := 0; i < 2; i++ {
		in := newPacketIn(t, openflow.NoBuffer, 1, frame)
		if err := tb.forwarder.OnPacketIn(tb.devices[7], in); err != nil {
			t.Fatal(err)
		}
	}

	if n := len(tb.writers[7].packetOuts()); n != 1 {
		t.Fatalf("expected the reflood to be suppressed, got %v directives", n)
	}
}

func TestAttachmentPointMismatch(t *testing.T) {
	tb := newTestbed(Config{}, 1, 2)
	tb.topo.accessPorts[topology.AccessPoint{Switch: 1, Port: 1}] = true
	// The source claims an address learned at a different port.
	tb.topo.hosts["10.0.0.1"] = topology.AccessPoint{Switch: 1, Port: 5}
	tb.topo.hosts["10.0.0.2"] = topology.AccessPoint{Switch: 2, Port: 9}
	tb.topo.paths[[2]topology.SwitchID{1, 2}] = topology.Path{1, 2}

	in := newPacketIn(t, openflow.NoBuffer, 1, ipv4Frame(t, "10.0.0.1", "10.0.0.2"))
	if err := tb.forwarder.OnPacketIn(tb.devices[1], in); err != nil {
		t.Fatal(err)
	}

	if n := tb.messageCount(); n != 0 {
		t.Fatalf("expected no submissions on a contradicted attachment point, got %v", n)
	}
}

func TestUnknownDestinationDeferred(t *testing.T) {
	tb := newTestbed(Config{}, 1)

	in := newPacketIn(t, openflow.NoBuffer, 1, ipv4Frame(t, "10.0.0.1", "10.0.0.2"))
	if err := tb.forwarder.OnPacketIn(tb.devices[1], in); err != nil {
		t.Fatal(err)
	}

	if n := tb.messageCount(); n != 0 {
		t.Fatalf("expected no submissions for an unlearned destination, got %v", n)
	}
}

func TestUnhandledEtherTypeDropped(t *testing.T) {
	tb := newTestbed(Config{}, 1)

	eth := protocol.Ethernet{
		SrcMAC:  mustMAC(t, "00:00:00:00:00:01"),
		DstMAC:  mustMAC(t, "00:00:00:00:00:02"),
		Type:    0x86DD, // IPv6
		Payload: make([]byte, 40),
	}
	frame, err := eth.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	in := newPacketIn(t, openflow.NoBuffer, 1, frame)
	if err := tb.forwarder.OnPacketIn(tb.devices[1], in); err != nil {
		t.Fatal(err)
	}
	if n := tb.messageCount(); n != 0 {
		t.Fatalf("expected a silent drop, got %v submissions", n)
	}
}
