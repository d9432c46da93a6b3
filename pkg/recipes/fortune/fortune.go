package fortune

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/pacebot/server/pkg/types"
)

// Selection probabilities. A non-empty unique pool wins most of the time,
// a (prefix, name) pair most of the remainder, and the static corpus covers
// whatever is left.
const (
	uniqueProbability = 0.9
	namesProbability  = 0.7
)

// Generator synthesizes humorous activity names from statistical thresholds.
// The random source is injected so callers can seed it for reproducibility.
type Generator struct {
	rnd *rand.Rand
}

func New(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd}
}

// pools accumulates name candidates while walking the threshold table.
type pools struct {
	unique   []string
	prefixes []string
	names    []string
}

func (p *pools) addUnique(s ...string) { p.unique = append(p.unique, s...) }
func (p *pools) addPrefix(s ...string) { p.prefixes = append(p.prefixes, s...) }
func (p *pools) addName(s ...string)   { p.names = append(p.names, s...) }

// Name generates a name for the activity. The humour tag selects the fallback
// corpus flavour; a provider hint passed in its place is ignored. Weather is
// optional and only contributes condition prefixes.
func (g *Generator) Name(user *types.UserProfile, act *types.Activity, humour string, weather *types.WeatherSummary) string {
	var p pools

	category := act.Type.Category()
	indoor := act.Trainer || act.Type.Virtual()

	if indoor {
		switch category {
		case types.CategoryRide:
			p.addPrefix("indoor", "virtual", "pain cave")
		case types.CategoryRun:
			p.addPrefix("treadmill", "indoor")
		}
	}

	g.distanceBands(&p, category, act.Distance)
	g.speedBands(&p, category, act)
	g.powerBands(&p, act)
	g.climbBands(&p, act)
	g.durationBands(&p, act)
	g.effortBands(&p, act)
	g.coincidences(&p, act)
	g.weatherPrefixes(&p, weather)

	if act.Commute {
		if len(p.unique) == 0 && len(p.names) == 0 {
			p.addName("commute")
		} else {
			p.addPrefix("commute")
		}
	}

	var chosen string
	switch {
	case len(p.unique) > 0 && g.rnd.Float64() < uniqueProbability:
		chosen = p.unique[g.rnd.Intn(len(p.unique))]
	case len(p.names) > 0 && g.rnd.Float64() < namesProbability:
		name := p.names[g.rnd.Intn(len(p.names))]
		if len(p.prefixes) > 0 {
			chosen = p.prefixes[g.rnd.Intn(len(p.prefixes))] + " " + name
		} else {
			chosen = name
		}
	default:
		corpus := corpusFor(humour)
		chosen = corpus[g.rnd.Intn(len(corpus))]
	}

	return capitalizeFirst(chosen)
}

// distanceBands are exclusive per category so a 205 km ride only ever draws
// from the double-century entries.
func (g *Generator) distanceBands(p *pools, category types.SportCategory, distance float64) {
	switch category {
	case types.CategoryRide:
		switch {
		case distance >= 400:
			p.addUnique("quadzilla of a ride", "ultra distance annihilation")
			p.addName("monster ride")
		case distance >= 200:
			p.addUnique("double century celebration", "double century tour")
			p.addName("double century ride")
		case distance >= 100:
			p.addName("century ride", "century tour")
		case distance > 0 && distance < 5:
			p.addName("bike stroll", "ridelet")
		}
	case types.CategoryRun:
		switch {
		case distance >= 42:
			p.addUnique("marathon runner in the making")
			p.addName("marathon")
		case distance >= 21:
			p.addName("half marathon")
		case distance > 0 && distance < 2.5:
			p.addName("jog around the block", "runlet")
		}
	}
}

func (g *Generator) speedBands(p *pools, category types.SportCategory, act *types.Activity) {
	switch category {
	case types.CategoryRide:
		switch {
		case act.SpeedAvg >= 40:
			p.addUnique("warp speed engaged")
			p.addName("rocket ride")
		case act.SpeedAvg >= 32:
			p.addName("fast ride")
		case act.SpeedAvg > 0 && act.SpeedAvg < 12:
			p.addName("leisurely ride", "coffee ride")
		}
	case types.CategoryRun:
		// PaceAvg is seconds per km, lower is faster.
		switch {
		case act.PaceAvg > 0 && act.PaceAvg <= 240:
			p.addUnique("legs of lightning")
			p.addName("blazing run")
		case act.PaceAvg > 0 && act.PaceAvg <= 300:
			p.addName("tempo run")
		case act.PaceAvg >= 540:
			p.addName("easy shuffle", "recovery run")
		}
	}
}

func (g *Generator) powerBands(p *pools, act *types.Activity) {
	watts := act.WattsWeighted
	if watts == 0 {
		watts = act.WattsAvg
	}
	switch {
	case watts >= 500:
		p.addUnique("nuclear power plant on wheels")
	case watts >= 300:
		p.addName("power hour", "watt factory")
	}
}

func (g *Generator) climbBands(p *pools, act *types.Activity) {
	if act.Distance <= 0 {
		return
	}
	ratio := act.ElevationGain / act.Distance
	switch {
	case ratio >= 25:
		p.addUnique("everesting rehearsal")
		p.addName("mountain goat expedition")
	case ratio >= 15:
		p.addName("climbing day")
	case act.ElevationGain == 0 && act.Distance >= 20:
		p.addName("pancake flat cruise")
	}
}

func (g *Generator) durationBands(p *pools, act *types.Activity) {
	switch {
	case act.MovingTime >= 6*3600:
		p.addUnique("all day epic")
		p.addName("endurance epic")
	case act.MovingTime > 0 && act.MovingTime <= 15*60:
		p.addName("quickie")
	}
}

func (g *Generator) effortBands(p *pools, act *types.Activity) {
	switch {
	case act.Calories >= 6000:
		p.addUnique("ate the whole fridge afterwards")
	case act.Calories >= 3000:
		p.addName("calorie furnace")
	}
	if act.HrAvg >= 170 {
		p.addName("heart pounding effort")
	}
	if act.CadenceAvg >= 100 {
		p.addName("spin class on the road")
	}
}

// coincidences flags numeric oddities: rounded distance equal to rounded
// average speed, and repeated-digit values across the main metrics.
func (g *Generator) coincidences(p *pools, act *types.Activity) {
	if act.Distance > 0 && act.SpeedAvg > 0 &&
		math.Round(act.Distance) == math.Round(act.SpeedAvg) {
		p.addUnique("magic number day")
	}
	for _, v := range []float64{act.Distance, act.SpeedAvg, act.WattsAvg, act.ElevationGain} {
		if repeatedDigits(v) {
			p.addUnique("lucky numbers everywhere")
			break
		}
	}
}

func (g *Generator) weatherPrefixes(p *pools, weather *types.WeatherSummary) {
	if weather == nil {
		return
	}
	if weather.Temperature != types.WeatherMissing {
		switch {
		case weather.Temperature <= 0:
			p.addPrefix("freezing", "ice cold")
		case weather.Temperature >= 30:
			p.addPrefix("scorching", "sweltering")
		}
	}
	if weather.Precipitation > 0 && weather.Precipitation != types.WeatherMissing {
		p.addPrefix("rainy", "soggy")
	}
}

// repeatedDigits reports whether the rounded value is at least two digits
// long and consists of a single repeated digit (e.g. 111, 22).
func repeatedDigits(v float64) bool {
	if v <= 0 {
		return false
	}
	s := fmt.Sprintf("%d", int64(math.Round(v)))
	if len(s) < 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func corpusFor(humour string) []string {
	switch strings.ToLower(humour) {
	case "boring":
		return boringCorpus
	case "quote":
		return quoteCorpus
	default:
		return jokeCorpus
	}
}
