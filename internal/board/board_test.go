package board

import "testing"

func TestEntryOffset(t *testing.T) {
	for seat := 0; seat < MaxPlayers; seat++ {
		if got := EntryOffset(seat); got != seat*14 {
			t.Fatalf("EntryOffset(%d) = %d, want %d", seat, got, seat*14)
		}
	}
}

func TestAdvanceStaysOnTrack(t *testing.T) {
	for offset := 0; offset < TrackSize; offset++ {
		for steps := DiceMin; steps <= DiceMax; steps++ {
			got := Advance(offset, steps)
			if got < 0 || got >= TrackSize {
				t.Fatalf("Advance(%d, %d) = %d, out of 0..%d", offset, steps, got, TrackSize-1)
			}
		}
	}
}

func TestAdvanceWraps(t *testing.T) {
	if got := Advance(55, 3); got != 2 {
		t.Fatalf("Advance(55, 3) = %d, want 2", got)
	}
}

func TestSafeZoneMembership(t *testing.T) {
	cases := []struct {
		name   string
		seat   int
		offset int
		want   bool
	}{
		{"seat0 zone start", 0, 50, true},
		{"seat0 zone end", 0, 55, true},
		{"seat0 before zone", 0, 49, false},
		{"seat1 zone unreachable after wrap", 1, 8, false},
		{"seat1 nominal start out of track range", 1, 63, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InSafeZone(tc.seat, tc.offset); got != tc.want {
				t.Fatalf("InSafeZone(%d, %d) = %v, want %v", tc.seat, tc.offset, got, tc.want)
			}
		})
	}
}

func TestSafeZoneIndex(t *testing.T) {
	if got := SafeZoneIndex(0, 53); got != 3 {
		t.Fatalf("SafeZoneIndex(0, 53) = %d, want 3", got)
	}
}
