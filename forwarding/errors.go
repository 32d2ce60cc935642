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
	"errors"
)

var (
	// ErrUnresolvable means the ingress access port contradicts the
	// learned attachment point of the claimed source address. Installing
	// rules anchored to a stale or spoofed attachment point would poison
	// the path, so the whole resolution is abandoned.
	ErrUnresolvable = errors.New("ingress port contradicts the learned attachment point")

	// ErrLinkPortMissing means the topology has no port pair for an
	// adjacency the path requires. Remaining hops are abandoned; rules
	// already submitted stay, since each is independently harmless and
	// expires on its own.
	ErrLinkPortMissing = errors.New("no port pair for a path adjacency")

	// ErrAccessPortMissing means the destination's access port on the
	// edge switch cannot be resolved.
	ErrAccessPortMissing = errors.New("no access port for the destination host")
)
