// Package board holds the pure offset arithmetic for the shared 56-cell
// track and the per-color safe zones. Every caller computes moves with
// these functions so all clients agree on the outcome.
package board

const (
	TrackSize    = 56
	EntrySpacing = 14

	// Safe-zone offsets are stored 56..61; the zone begins 50 cells
	// past a seat's entry slot.
	SafeZoneLead = 50
	SafeZoneSize = 6
	SafeZoneBase = 56

	HomeOffset   = -1
	FinishOffset = 62

	TokensPerPlayer = 4
	MaxPlayers      = 4
	MinPlayers      = 2

	DiceMin  = 1
	DiceMax  = 6
	ExitRoll = 6 // needed to leave home, and grants another turn
)

// EntryOffset is a player's absolute board slot when a token leaves home.
func EntryOffset(seat int) int {
	return seat * EntrySpacing
}

// Advance moves an on-board offset forward with wrap-around.
func Advance(offset, steps int) int {
	return (offset + steps) % TrackSize
}

// SafeZoneStart is the first absolute offset of a seat's safe zone.
func SafeZoneStart(seat int) int {
	return EntryOffset(seat) + SafeZoneLead
}

// InSafeZone reports whether a post-wrap board offset falls inside the
// seat's safe zone. The comparison is against the wrapped 0..55 value,
// preserving the reference arithmetic as-is.
func InSafeZone(seat, offset int) bool {
	start := SafeZoneStart(seat)
	return offset >= start && offset < start+SafeZoneSize
}

// SafeZoneIndex converts a board offset inside the seat's safe zone to
// its 0..5 index. Only meaningful when InSafeZone holds.
func SafeZoneIndex(seat, offset int) int {
	return offset - SafeZoneStart(seat)
}
