package fortune

import (
	"math/rand"
	"strings"
	"testing"
	"unicode"

	"github.com/pacebot/server/pkg/types"
)

func TestNameIsNeverEmptyAndCapitalized(t *testing.T) {
	g := New(rand.New(rand.NewSource(1)))
	user := &types.UserProfile{ID: "u1"}

	activities := []*types.Activity{
		{},
		{Type: types.TypeRide, Distance: 205, SpeedAvg: 28},
		{Type: types.TypeRun, Distance: 42.3, PaceAvg: 290},
		{Type: types.TypeVirtualRide, Distance: 30},
		{Type: types.TypeRide, Commute: true, Distance: 8},
	}
	for _, act := range activities {
		for i := 0; i < 50; i++ {
			name := g.Name(user, act, "", nil)
			if name == "" {
				t.Fatalf("empty name for %+v", act)
			}
			first := []rune(name)[0]
			if unicode.IsLetter(first) && !unicode.IsUpper(first) {
				t.Fatalf("name %q is not capitalized", name)
			}
		}
	}
}

func TestDoubleCenturyRideDrawsItsOwnBand(t *testing.T) {
	g := New(rand.New(rand.NewSource(7)))
	user := &types.UserProfile{ID: "u1"}
	act := &types.Activity{Type: types.TypeRide, Distance: 205}

	// Distance bands are exclusive: a 205 km ride must never produce a
	// century or quadzilla name.
	for i := 0; i < 200; i++ {
		name := strings.ToLower(g.Name(user, act, "boring", nil))
		if strings.Contains(name, "century") && !strings.Contains(name, "double century") {
			t.Fatalf("plain century name %q for a double-century distance", name)
		}
		if strings.Contains(name, "quadzilla") {
			t.Fatalf("quadzilla name %q for a double-century distance", name)
		}
	}
}

func TestCommuteFallbackName(t *testing.T) {
	// A plain commute with no other signals: the pair branch can only yield
	// "commute" since the pools hold nothing else.
	g := New(rand.New(rand.NewSource(3)))
	user := &types.UserProfile{ID: "u1"}
	act := &types.Activity{Type: types.TypeRide, Commute: true, Distance: 8}

	sawCommute := false
	for i := 0; i < 100; i++ {
		if g.Name(user, act, "boring", nil) == "Commute" {
			sawCommute = true
			break
		}
	}
	if !sawCommute {
		t.Error("expected the plain commute name to appear within 100 draws")
	}
}

func TestWeatherPrefixes(t *testing.T) {
	g := New(rand.New(rand.NewSource(11)))
	user := &types.UserProfile{ID: "u1"}
	act := &types.Activity{Type: types.TypeRide, Distance: 120} // century names only

	cold := &types.WeatherSummary{Temperature: -3}
	sawColdPrefix := false
	for i := 0; i < 300; i++ {
		name := strings.ToLower(g.Name(user, act, "boring", cold))
		if strings.HasPrefix(name, "freezing ") || strings.HasPrefix(name, "ice cold ") {
			sawColdPrefix = true
			break
		}
	}
	if !sawColdPrefix {
		t.Error("sub-zero weather should eventually prefix a name")
	}

	t.Run("missing temperature sentinel contributes nothing", func(t *testing.T) {
		missing := &types.WeatherSummary{Temperature: types.WeatherMissing}
		for i := 0; i < 300; i++ {
			name := strings.ToLower(g.Name(user, act, "boring", missing))
			if strings.HasPrefix(name, "freezing") || strings.HasPrefix(name, "scorching") {
				t.Fatalf("sentinel temperature produced weather name %q", name)
			}
		}
	})
}

func TestCorpusFor(t *testing.T) {
	if len(corpusFor("boring")) == 0 || len(corpusFor("quote")) == 0 || len(corpusFor("")) == 0 {
		t.Fatal("every corpus must be non-empty")
	}
	if &corpusFor("Boring")[0] != &boringCorpus[0] {
		t.Error("humour tag should be case insensitive")
	}
	if &corpusFor("unknown")[0] != &jokeCorpus[0] {
		t.Error("unknown humour should fall back to the joke corpus")
	}
}

func TestRepeatedDigits(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{111, true},
		{22.4, true}, // rounds to 22
		{7, false},   // single digit
		{121, false},
		{0, false},
		{222.49, true},
	}
	for _, tt := range tests {
		if got := repeatedDigits(tt.v); got != tt.want {
			t.Errorf("repeatedDigits(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestCapitalizeFirst(t *testing.T) {
	if got := capitalizeFirst("double century ride"); got != "Double century ride" {
		t.Errorf("got %q", got)
	}
	if got := capitalizeFirst(""); got != "" {
		t.Errorf("got %q", got)
	}
}
