// Copyright (C) 2026  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package delivery

import "sync"

// Pins counts references of in-flight messages to attachment files. A file may only be removed
// once no in-flight message of this process references it anymore.
type Pins struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewPins() *Pins {
	return &Pins{counts: make(map[string]int)}
}

func (p *Pins) Pin(paths []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, path := range paths {
		p.counts[path]++
	}
}

// Unpin drops one reference per path and returns the paths that are no longer referenced.
func (p *Pins) Unpin(paths []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var released []string

	for _, path := range paths {
		count, ok := p.counts[path]
		if !ok {
			continue
		}

		if count <= 1 {
			delete(p.counts, path)
			released = append(released, path)
		} else {
			p.counts[path] = count - 1
		}
	}

	return released
}

func (p *Pins) Pinned(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.counts[path] > 0
}
