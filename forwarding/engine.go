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
	"fmt"
	"net"

	"github.com/mulberry-sdn/mulberry/network"
	"github.com/mulberry-sdn/mulberry/openflow"
	"github.com/mulberry-sdn/mulberry/topology"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// Reference rule policy: rules outrank the table-miss entry and expire on
// their own; this core never deletes a rule it installed.
const (
	flowPriority    = 1
	flowIdleTimeout = 15 // seconds
	flowHardTimeout = 60 // seconds
)

// flowDescriptor identifies one directional flow instance as triggered by
// one packet.
type flowDescriptor struct {
	etherType uint16
	srcIP     net.IP
	dstIP     net.IP
	inPort    uint32
}

func (r flowDescriptor) String() string {
	return fmt.Sprintf("EtherType=%#x, SrcIP=%v, DstIP=%v, InPort=%v", r.etherType, r.srcIP, r.dstIP, r.inPort)
}

// installFlow translates a path into forwarding rules on every switch the
// path crosses, for both the observed direction and its reverse, and then
// delivers the triggering packet out of the first switch. The reply to
// this packet is imminent in the common case; installing the reverse rules
// now saves it a trip through us.
//
// Interior hops are handled first, then the last switch, then the first
// switch together with the packet delivery. A hop that cannot be resolved
// aborts the remaining hops but keeps everything already submitted: each
// rule is independently valid, partial forwarding beats no forwarding, and
// expiry bounds the damage.
func (r *Forwarder) installFlow(path topology.Path, flow flowDescriptor, packet *openflow.PacketIn) error {
	if len(path) == 0 {
		return errors.New("empty path")
	}
	logger.Debugf("installing flow rules over %v: %v", path, spew.Sdump(flow))

	if len(path) == 1 {
		return r.installSameSwitch(path[0], flow, packet)
	}

	for i := 1; i <= len(path)-2; i++ {
		in, ok := r.topo.PortPair(path[i-1], path[i])
		if !ok {
			return errors.Wrapf(ErrLinkPortMissing, "interior hop %#x -> %#x", path[i-1], path[i])
		}
		out, ok := r.topo.PortPair(path[i], path[i+1])
		if !ok {
			return errors.Wrapf(ErrLinkPortMissing, "interior hop %#x -> %#x", path[i], path[i+1])
		}
		device := r.lookupDevice(path[i])
		if device == nil {
			continue
		}
		if err := r.installPair(device, flow, in.Dst, out.Src); err != nil {
			logger.Errorf("failed to install on interior switch %#x: %v", path[i], err)
		}
	}

	// The last hop: edge switch toward the destination host.
	lastLink, ok := r.topo.PortPair(path[len(path)-2], path[len(path)-1])
	if !ok {
		return errors.Wrapf(ErrLinkPortMissing, "last hop %#x -> %#x", path[len(path)-2], path[len(path)-1])
	}
	dstPort, ok := r.accessPortFor(flow.dstIP)
	if !ok {
		return errors.Wrapf(ErrAccessPortMissing, "destination %v", flow.dstIP)
	}
	if last := r.lookupDevice(path[len(path)-1]); last != nil {
		if err := r.installPair(last, flow, lastLink.Dst, dstPort); err != nil {
			logger.Errorf("failed to install on last switch %#x: %v", path[len(path)-1], err)
		}
	}

	// The first hop, plus the delivery of the packet that got us here.
	firstLink, ok := r.topo.PortPair(path[0], path[1])
	if !ok {
		return errors.Wrapf(ErrLinkPortMissing, "first hop %#x -> %#x", path[0], path[1])
	}
	first := r.lookupDevice(path[0])
	if first == nil {
		return nil
	}
	if err := r.installPair(first, flow, flow.inPort, firstLink.Src); err != nil {
		logger.Errorf("failed to install on first switch %#x: %v", path[0], err)
	}

	return r.deliver(first, packet, flow.inPort, firstLink.Src)
}

// installSameSwitch handles the path of length one: source and destination
// hosts hang off the same switch.
func (r *Forwarder) installSameSwitch(sw topology.SwitchID, flow flowDescriptor, packet *openflow.PacketIn) error {
	outPort, ok := r.accessPortFor(flow.dstIP)
	if !ok {
		return errors.Wrapf(ErrAccessPortMissing, "destination %v", flow.dstIP)
	}

	device := r.lookupDevice(sw)
	if device == nil {
		return nil
	}
	if err := r.installPair(device, flow, flow.inPort, outPort); err != nil {
		logger.Errorf("failed to install on switch %#x: %v", sw, err)
	}

	return r.deliver(device, packet, flow.inPort, outPort)
}

// installPair installs the forward rule and its reverse, with source and
// destination addresses swapped, on one switch.
func (r *Forwarder) installPair(device *network.Device, flow flowDescriptor, inPort, outPort uint32) error {
	forward := network.FlowParam{
		InPort:      inPort,
		OutPort:     outPort,
		EtherType:   flow.etherType,
		SrcIP:       flow.srcIP,
		DstIP:       flow.dstIP,
		Priority:    flowPriority,
		IdleTimeout: flowIdleTimeout,
		HardTimeout: flowHardTimeout,
	}
	reverse := network.FlowParam{
		InPort:      outPort,
		OutPort:     inPort,
		EtherType:   flow.etherType,
		SrcIP:       flow.dstIP,
		DstIP:       flow.srcIP,
		Priority:    flowPriority,
		IdleTimeout: flowIdleTimeout,
		HardTimeout: flowHardTimeout,
	}

	if err := device.InstallFlow(forward); err != nil {
		return errors.Wrap(err, "installing the forward rule")
	}
	if err := device.InstallFlow(reverse); err != nil {
		return errors.Wrap(err, "installing the reverse rule")
	}
	logger.Debugf("installed a rule pair on DPID %#x: %v", device.DPID(), forward)

	return nil
}

// deliver emits the triggering packet itself so it does not wait for the
// rules to take effect.
func (r *Forwarder) deliver(device *network.Device, packet *openflow.PacketIn, inPort, outPort uint32) error {
	in := openflow.NewInPort()
	in.SetValue(inPort)

	err := device.SendPacketOut(network.PacketOutParam{
		BufferID: packet.BufferID(),
		InPort:   in,
		OutPort:  outPort,
		Data:     packet.Data(),
	})
	if err != nil {
		return errors.Wrap(err, "delivering the triggering packet")
	}

	return nil
}

// accessPortFor resolves the host-facing output port of the destination
// address on its edge switch.
func (r *Forwarder) accessPortFor(dst net.IP) (uint32, bool) {
	location, ok := r.topo.HostLocation(dst)
	if !ok {
		return 0, false
	}

	return location.Port, true
}
