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
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// floodGuard bounds discovery broadcast storms: a packet whose payload was
// already flooded within the window is not flooded again. A reflooded
// broadcast carries no new information for the hosts, only load for the
// access ports.
type floodGuard struct {
	cache  *lru.Cache
	window time.Duration
}

// newFloodGuard returns a guard with the given suppression window. A zero
// or negative window disables suppression.
func newFloodGuard(window time.Duration) *floodGuard {
	c, err := lru.New(8192)
	if err != nil {
		panic(fmt.Sprintf("failed to init the flood guard cache: %v", err))
	}

	return &floodGuard{
		cache:  c,
		window: window,
	}
}

// suppress reports whether this packet was flooded within the window, and
// stamps it otherwise.
func (r *floodGuard) suppress(packet []byte) bool {
	if r.window <= 0 {
		return false
	}

	key := sha256.Sum256(packet)
	now := time.Now()
	if v, ok := r.cache.Get(key); ok {
		if now.Sub(v.(time.Time)) <= r.window {
			return true
		}
	}
	r.cache.Add(key, now)

	return false
}
