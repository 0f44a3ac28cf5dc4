package services

import (
	"slices"
	"strings"
	"wip-tracker-service/internal/domain"
)

// Allocator assigns every lot inside a lane a vertical slot that no other
// registered lot in the same lane holds.
//
// The policy is smallest-available-slot: slot k sits at
// anchorY + startOffset + k*spacing and the lowest free k wins, so offsets
// freed by departing lots are reused before the lane grows.
//
// Occupancy lives only in memory. Reinitialize rebuilds it from the lot
// registry at process start; ResetLane does the same for a single lane.
//
// An Allocator is not safe for concurrent use; Tracker serializes access.
type Allocator struct {
	order    []string
	lanes    map[string]domain.Lane
	occupied map[string]map[float64]struct{}
}

// NewAllocator builds an allocator for the given lane layout. Lane order is
// preserved; the first lane is where new lots enter.
func NewAllocator(lanes []domain.Lane) *Allocator {
	a := &Allocator{
		order:    make([]string, 0, len(lanes)),
		lanes:    make(map[string]domain.Lane, len(lanes)),
		occupied: make(map[string]map[float64]struct{}, len(lanes)),
	}
	for _, l := range lanes {
		if _, dup := a.lanes[l.Name]; dup {
			continue
		}
		a.order = append(a.order, l.Name)
		a.lanes[l.Name] = l
		a.occupied[l.Name] = map[float64]struct{}{}
	}
	return a
}

// Lane returns the configured lane with the given name.
func (a *Allocator) Lane(name string) (domain.Lane, bool) {
	l, ok := a.lanes[name]
	return l, ok
}

// Lanes returns the lane layout in flow order.
func (a *Allocator) Lanes() []domain.Lane {
	out := make([]domain.Lane, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.lanes[name])
	}
	return out
}

// First returns the intake lane.
func (a *Allocator) First() (domain.Lane, bool) {
	if len(a.order) == 0 {
		return domain.Lane{}, false
	}
	return a.lanes[a.order[0]], true
}

// Allocate reserves the smallest free slot in the lane.
// Unknown lanes degrade to the zero position and reserve nothing.
func (a *Allocator) Allocate(lane string) (domain.Position, bool) {
	l, ok := a.lanes[lane]
	if !ok {
		return domain.Position{}, false
	}

	used := a.occupied[lane]
	y := l.SlotY(0)
	for k := 1; ; k++ {
		if _, taken := used[y]; !taken {
			break
		}
		y = l.SlotY(k)
	}

	used[y] = struct{}{}
	return domain.Position{X: l.SlotX(), Y: y}, true
}

// Release frees an offset. Unknown lanes and offsets are ignored.
func (a *Allocator) Release(lane string, y float64) {
	if used, ok := a.occupied[lane]; ok {
		delete(used, y)
	}
}

// Claim reserves a specific offset if nobody holds it.
func (a *Allocator) Claim(lane string, y float64) bool {
	used, ok := a.occupied[lane]
	if !ok {
		return false
	}
	if _, taken := used[y]; taken {
		return false
	}
	used[y] = struct{}{}
	return true
}

// Move transfers a lot from one lane to another. Either the old offset is
// released and a new one allocated, or nothing changes (unknown target).
// Moving within the same lane keeps the current slot.
func (a *Allocator) Move(from string, fromY float64, to string) (domain.Position, bool) {
	target, ok := a.lanes[to]
	if !ok {
		return domain.Position{}, false
	}

	if from == to {
		if _, known := a.lanes[from]; known {
			a.occupied[from][fromY] = struct{}{}
		}
		return domain.Position{X: target.SlotX(), Y: fromY}, true
	}

	a.Release(from, fromY)
	return a.Allocate(to)
}

// Reinitialize discards all occupancy and rebuilds it from the stored
// positions of registered lots. It returns how many lots were skipped
// because their lane is not configured, and the lots whose offset an
// earlier lot in the same lane already holds. Displaced lots hold no slot
// until the caller allocates one for them.
func (a *Allocator) Reinitialize(lots []*domain.Lot) (skipped int, displaced []*domain.Lot) {
	for name := range a.occupied {
		a.occupied[name] = map[float64]struct{}{}
	}

	for _, lot := range lots {
		if lot == nil || lot.Status != domain.LotRegistered {
			continue
		}
		used, ok := a.occupied[lot.Lane]
		if !ok {
			skipped++
			continue
		}
		if _, taken := used[lot.Position.Y]; taken {
			displaced = append(displaced, lot)
			continue
		}
		used[lot.Position.Y] = struct{}{}
	}
	return skipped, displaced
}

// ResetLane rebuilds one lane's occupancy from stored lots, leaving other
// lanes alone. Duplicated offsets are reported like in Reinitialize.
func (a *Allocator) ResetLane(lane string, lots []*domain.Lot) []*domain.Lot {
	if _, ok := a.lanes[lane]; !ok {
		return nil
	}

	used := map[float64]struct{}{}
	var displaced []*domain.Lot
	for _, lot := range lots {
		if lot == nil || lot.Lane != lane || lot.Status != domain.LotRegistered {
			continue
		}
		if _, taken := used[lot.Position.Y]; taken {
			displaced = append(displaced, lot)
			continue
		}
		used[lot.Position.Y] = struct{}{}
	}
	a.occupied[lane] = used
	return displaced
}

// Repack compacts the given lots of one lane onto consecutive slots,
// keeping their relative vertical order, and rebuilds that lane's
// occupancy from the result. Lots that are shipped or belong to another
// lane are ignored. Returns the new position of every repacked lot.
func (a *Allocator) Repack(lane string, lots []*domain.Lot) map[string]domain.Position {
	l, ok := a.lanes[lane]
	if !ok {
		return map[string]domain.Position{}
	}

	members := make([]*domain.Lot, 0, len(lots))
	for _, lot := range lots {
		if lot != nil && lot.Lane == lane && lot.Status == domain.LotRegistered {
			members = append(members, lot)
		}
	}

	// Ties on Y break by id so the result is deterministic.
	slices.SortFunc(members, func(x, y *domain.Lot) int {
		if x.Position.Y < y.Position.Y {
			return -1
		}
		if x.Position.Y > y.Position.Y {
			return 1
		}
		return strings.Compare(x.ID, y.ID)
	})

	used := make(map[float64]struct{}, len(members))
	out := make(map[string]domain.Position, len(members))
	for k, lot := range members {
		y := l.SlotY(k)
		used[y] = struct{}{}
		out[lot.ID] = domain.Position{X: l.SlotX(), Y: y}
	}
	a.occupied[lane] = used

	return out
}

// Occupied returns the lane's reserved offsets in ascending order.
func (a *Allocator) Occupied(lane string) []float64 {
	used := a.occupied[lane]
	out := make([]float64, 0, len(used))
	for y := range used {
		out = append(out, y)
	}
	slices.Sort(out)
	return out
}
