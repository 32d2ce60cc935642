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

// Package forwarding is the forwarding decision core: it learns host
// attachment points from ARP traffic, answers or floods address
// resolution, and turns precomputed shortest paths into forwarding rules
// installed hop by hop across the switches on the path.
package forwarding

import (
	"net"
	"time"

	"github.com/mulberry-sdn/mulberry/network"
	"github.com/mulberry-sdn/mulberry/openflow"
	"github.com/mulberry-sdn/mulberry/protocol"
	"github.com/mulberry-sdn/mulberry/topology"

	"github.com/op/go-logging"
)

var logger = logging.MustGetLogger("forwarding")

// Finder is the view of the topology collaborator this core consumes. The
// implementation owns the synchronization; we only read through it, except
// for the learning write triggered by observed ARP traffic.
type Finder interface {
	LearnHost(ap topology.AccessPoint, ip net.IP, mac net.HardwareAddr)
	HostLocation(ip net.IP) (topology.AccessPoint, bool)
	IsAccessPort(ap topology.AccessPoint) bool
	UnoccupiedAccessPoints() []topology.AccessPoint
	PortPair(src, dst topology.SwitchID) (topology.PortPair, bool)
	ShortestPath(src, dst topology.SwitchID) (topology.Path, error)
}

type Config struct {
	// FloodGuardWindow suppresses refloods of an identical discovery
	// broadcast within the window. Zero disables suppression.
	FloodGuardWindow time.Duration
}

type Forwarder struct {
	registry *network.Registry
	topo     Finder
	guard    *floodGuard
}

func New(registry *network.Registry, topo Finder, config Config) *Forwarder {
	if registry == nil || topo == nil {
		panic("nil registry or topology finder")
	}

	return &Forwarder{
		registry: registry,
		topo:     topo,
		guard:    newFloodGuard(config.FloodGuardWindow),
	}
}

// OnPacketIn classifies a first-packet event and routes it: address
// resolution traffic feeds host learning and resolution, IPv4 traffic
// feeds path installation. Anything else is dropped on purpose; bounding
// the protocols we reason about is what keeps switch state predictable.
func (r *Forwarder) OnPacketIn(device *network.Device, packet *openflow.PacketIn) error {
	eth := protocol.Ethernet{}
	if err := eth.UnmarshalBinary(packet.Data()); err != nil {
		logger.Debugf("dropping an undecodable frame from DPID %#x: %v", device.DPID(), err)
		return nil
	}

	switch eth.Type {
	case protocol.EtherTypeARP:
		arp := protocol.ARP{}
		if err := arp.UnmarshalBinary(eth.Payload); err != nil {
			logger.Debugf("dropping a malformed ARP packet from DPID %#x: %v", device.DPID(), err)
			return nil
		}
		return r.handleARP(device, packet, &arp)
	case protocol.EtherTypeIPv4:
		ip := protocol.IPv4{}
		if err := ip.UnmarshalBinary(eth.Payload); err != nil {
			logger.Debugf("dropping a malformed IPv4 packet from DPID %#x: %v", device.DPID(), err)
			return nil
		}
		return r.handleIPv4(device, packet, &eth, &ip)
	default:
		return nil
	}
}

// handleARP learns the sender's attachment point, then either replies the
// packet straight to the target's learned port or floods it to the access
// ports whose occupants are still unknown.
func (r *Forwarder) handleARP(device *network.Device, packet *openflow.PacketIn, arp *protocol.ARP) error {
	ingress := topology.AccessPoint{
		Switch: topology.SwitchID(device.DPID()),
		Port:   packet.InPort(),
	}
	r.topo.LearnHost(ingress, arp.SPA, arp.SHA)

	location, ok := r.topo.HostLocation(arp.TPA)
	if !ok {
		return r.flood(packet.Data())
	}

	target := r.lookupDevice(location.Switch)
	if target == nil {
		return nil
	}
	logger.Debugf("forwarding ARP for %v to switch %#x port %v", arp.TPA, location.Switch, location.Port)

	return target.SendPacketOut(network.PacketOutParam{
		BufferID: openflow.NoBuffer,
		InPort:   openflow.NewInPort(),
		OutPort:  location.Port,
		Data:     packet.Data(),
	})
}

// flood delivers a discovery broadcast to every access port that has no
// learned occupant. Ports with a known occupant are skipped; the broadcast
// would be noise there and reflooding known ports is how storms start.
func (r *Forwarder) flood(data []byte) error {
	if r.guard.suppress(data) {
		logger.Debug("suppressed a repeated discovery broadcast")
		return nil
	}

	for _, ap := range r.topo.UnoccupiedAccessPoints() {
		device := r.lookupDevice(ap.Switch)
		if device == nil {
			continue
		}
		err := device.SendPacketOut(network.PacketOutParam{
			BufferID: openflow.NoBuffer,
			InPort:   openflow.NewInPort(),
			OutPort:  ap.Port,
			Data:     data,
		})
		if err != nil {
			logger.Errorf("failed to flood to switch %#x port %v: %v", ap.Switch, ap.Port, err)
		}
	}
	logger.Debug("flooded a discovery broadcast to unknown access ports")

	return nil
}

// resolveEndpoints maps an arriving data packet to its source and
// destination switches. A found=false return means the destination is not
// learned yet; that is a normal deferred state, not an error.
func (r *Forwarder) resolveEndpoints(ingress topology.AccessPoint, srcIP, dstIP net.IP) (src, dst topology.SwitchID, found bool, err error) {
	src = ingress.Switch

	if r.topo.IsAccessPort(ingress) {
		location, ok := r.topo.HostLocation(srcIP)
		if !ok || location != ingress {
			return 0, 0, false, ErrUnresolvable
		}
	}

	location, ok := r.topo.HostLocation(dstIP)
	if !ok {
		return src, 0, false, nil
	}

	return src, location.Switch, true, nil
}

func (r *Forwarder) handleIPv4(device *network.Device, packet *openflow.PacketIn, eth *protocol.Ethernet, ip *protocol.IPv4) error {
	ingress := topology.AccessPoint{
		Switch: topology.SwitchID(device.DPID()),
		Port:   packet.InPort(),
	}

	srcSwitch, dstSwitch, found, err := r.resolveEndpoints(ingress, ip.SrcIP, ip.DstIP)
	if err != nil {
		logger.Warningf("abandoning resolution of %v -> %v at %v: %v", ip.SrcIP, ip.DstIP, ingress, err)
		return nil
	}
	if !found {
		logger.Debugf("destination %v is not learned yet; deferring", ip.DstIP)
		return nil
	}

	path, err := r.topo.ShortestPath(srcSwitch, dstSwitch)
	if err != nil {
		logger.Infof("no path from %#x to %#x: %v", srcSwitch, dstSwitch, err)
		return nil
	}
	logger.Infof("[PATH] %v <-> %v: %v", ip.SrcIP, ip.DstIP, path)

	flow := flowDescriptor{
		etherType: eth.Type,
		srcIP:     ip.SrcIP,
		dstIP:     ip.DstIP,
		inPort:    packet.InPort(),
	}

	return r.installFlow(path, flow, packet)
}

// lookupDevice resolves a switch's control handle. Registration can still
// be in flight for a handler that raced it, so a miss is retried once and
// then the caller drops whatever it wanted to submit.
func (r *Forwarder) lookupDevice(id topology.SwitchID) *network.Device {
	device := r.registry.Device(uint64(id))
	if device == nil {
		device = r.registry.Device(uint64(id))
	}
	if device == nil {
		logger.Debugf("switch %#x is not registered; dropping the submission", id)
	}

	return device
}
