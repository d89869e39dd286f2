package classifier

import "testing"

func TestIsTargetRoomCountTwoRooms(t *testing.T) {
	c := New(2)

	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"dash abbreviation", "2-к. квартира, 54 м², 3/9 эт.", true},
		{"compact abbreviation", "2к. квартира у метро", true},
		{"dash komn", "Сдам 2-комн. квартиру", true},
		{"space komn", "2 комнатная квартира", true},
		{"spelled", "Двухкомнатная квартира в центре", true},
		{"slang", "Уютная ДВУШКА", true},
		{"upper case", "2-К. КВАРТИРА", true},
		{"one room", "1-к. квартира, 30 м²", false},
		{"three room", "3-к. квартира, 80 м²", false},
		{"studio", "Студия, 25 м²", false},
		{"twelve is not two", "12-к. апартаменты", false},
		{"no signal", "Квартира в новостройке", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsTargetRoomCount(tt.title); got != tt.want {
				t.Errorf("IsTargetRoomCount(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestClassifyVerdicts(t *testing.T) {
	c := New(2)

	tests := []struct {
		title string
		want  Verdict
	}{
		{"2-к. квартира", VerdictMatch},
		{"3-к. квартира", VerdictOtherRooms},
		{"1к. квартира", VerdictOtherRooms},
		{"Студия", VerdictStudio},
		{"Квартира", VerdictUnknown},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.title); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.title, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := New(2).String(); got != "2-room" {
		t.Errorf("String() = %q", got)
	}
}

func TestOtherTargets(t *testing.T) {
	three := New(3)
	if !three.IsTargetRoomCount("Трёхкомнатная квартира") {
		t.Error("expected spelled three-room title to match")
	}
	if !three.IsTargetRoomCount("3-к. квартира, 70 м²") {
		t.Error("expected 3-к. to match")
	}
	if three.IsTargetRoomCount("2-к. квартира") {
		t.Error("two-room title must not match a three-room classifier")
	}

	if New(3).Target() != 3 {
		t.Errorf("Target() = %d, want 3", New(3).Target())
	}
	if New(0).Target() != DefaultRooms {
		t.Errorf("expected non-positive target to fall back to %d", DefaultRooms)
	}
}
