package transit

import "testing"

func TestNormalizeMode_Synonyms(t *testing.T) {
	tests := []struct {
		raw  string
		want TransportMode
	}{
		{"taxi", ModeCab},
		{"TAXI", ModeCab},
		{"Car", ModeCab},
		{"transit", ModeMetro},
		{"train", ModeLocalTrain},
		{"TRAIN", ModeLocalTrain},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeMode(tt.raw)
			if !ok {
				t.Fatalf("NormalizeMode(%q) not resolved", tt.raw)
			}
			if got != tt.want {
				t.Errorf("NormalizeMode(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeMode_Canonical(t *testing.T) {
	for _, m := range AllModes() {
		got, ok := NormalizeMode(string(m))
		if !ok || got != m {
			t.Errorf("NormalizeMode(%q) = %s, %v; want identity", m, got, ok)
		}
	}

	// Lowercase canonical spellings resolve too.
	got, ok := NormalizeMode("metro")
	if !ok || got != ModeMetro {
		t.Errorf("NormalizeMode(metro) = %s, %v", got, ok)
	}
}

func TestNormalizeMode_Unknown(t *testing.T) {
	if _, ok := NormalizeMode("hyperloop"); ok {
		t.Error("expected hyperloop to be rejected")
	}
	if _, ok := NormalizeMode(""); ok {
		t.Error("expected empty string to be rejected")
	}
}

func TestValidPreference(t *testing.T) {
	for _, p := range []Preference{PreferCheapest, PreferFastest, PreferEco, PreferComfortable} {
		if !ValidPreference(p) {
			t.Errorf("expected %s to be valid", p)
		}
	}
	if ValidPreference("SCENIC") {
		t.Error("expected SCENIC to be invalid")
	}
}

func TestValidCrowdLevel(t *testing.T) {
	if !ValidCrowdLevel(CrowdStanding) {
		t.Error("expected Standing Room Only to be valid")
	}
	if ValidCrowdLevel("Packed") {
		t.Error("expected Packed to be invalid")
	}
}
