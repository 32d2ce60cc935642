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
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/op/go-logging"
)

var logger = logging.MustGetLogger("network")

// Registry tracks the currently connected switches. Registration follows
// the control channel lifecycle: a switch appears after its handshake and
// disappears on disconnect. A lookup miss is not an error; handlers race
// registration and must treat a missing device as a droppable condition.
type Registry struct {
	mutex   sync.RWMutex
	devices map[uint64]*Device
}

func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[uint64]*Device),
	}
}

func (r *Registry) Register(d *Device) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if d == nil {
		panic("nil device")
	}
	if old, ok := r.devices[d.DPID()]; ok {
		// A reconnect can overtake the teardown of the previous session.
		logger.Infof("closing the stale device for DPID %#x", d.DPID())
		old.Close()
	}
	r.devices[d.DPID()] = d
	logger.Infof("registered a new device: DPID=%#x", d.DPID())
}

func (r *Registry) Unregister(dpid uint64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.devices[dpid]; !ok {
		return
	}
	delete(r.devices, dpid)
	logger.Infof("unregistered the device: DPID=%#x", dpid)
}

// Device returns the control handle for a switch, or nil if the switch is
// not connected.
func (r *Registry) Device(dpid uint64) *Device {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.devices[dpid]
}

func (r *Registry) Devices() []*Device {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		v = append(v, d)
	}
	sort.Slice(v, func(i, j int) bool { return v[i].DPID() < v[j].DPID() })

	return v
}

func (r *Registry) String() string {
	var buf bytes.Buffer
	for _, d := range r.Devices() {
		buf.WriteString(fmt.Sprintf("%v\n", d))
	}

	return buf.String()
}
