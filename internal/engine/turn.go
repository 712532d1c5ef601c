package engine

// nextActive finds the uid holding the turn after fromUID: the next
// active player in seat order, wrapping past seat 3 and skipping
// inactive seats. Returns "" when no other player is active. fromUID
// must hold a seat; its own Active flag is irrelevant so a leaver can
// still hand the turn on.
func nextActive(s State, fromUID string) string {
	from, ok := s.Players[fromUID]
	if !ok {
		return ""
	}

	afterUID, afterSeat := "", -1
	wrapUID, wrapSeat := "", -1
	for uid, p := range s.Players {
		if !p.Active || uid == fromUID {
			continue
		}
		if p.Seat > from.Seat && (afterSeat == -1 || p.Seat < afterSeat) {
			afterUID, afterSeat = uid, p.Seat
		}
		if wrapSeat == -1 || p.Seat < wrapSeat {
			wrapUID, wrapSeat = uid, p.Seat
		}
	}
	if afterUID != "" {
		return afterUID
	}
	return wrapUID
}

func lowestFreeSeat(s State) int {
	taken := map[int]bool{}
	for _, p := range s.Players {
		taken[p.Seat] = true
	}
	seat := 0
	for taken[seat] {
		seat++
	}
	return seat
}
