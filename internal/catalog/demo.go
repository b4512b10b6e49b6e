package catalog

import "divorcerisk/internal/model"

var demoAnswers = []struct {
	text  string
	value int
}{
	{"A small repair phrase tends to steady the ship for us.", 0},
	{"Our apologies often feel cosmetic rather than course-correcting.", 1},
	{"Carving out couple-only pockets at home is a rarity.", 1},
	{"Trips together are usually a bright patch for us.", 1},
	{"Our picture of marriage mostly overlaps.", 1},
	{"In the heat of it, I sometimes slip into jabs.", 2},
	{"I keep up with what's been weighing on her lately.", 1},
	{"Tensions tend to climb instead of settling.", 1},
	{"In conflict, I catch myself zeroing in on her flaws.", 0},
	{"We read personal freedom and boundaries in similar ways.", 1},
	{"The way topics get raised often grates on me.", 0},
	{"Arguments can spark out of the blue.", 1},
	{"Our long-term tracks largely run in parallel.", 1},
	{"Stepping away for a spell is sometimes how I cool down.", 2},
	{"I go quiet to keep a lid on my temper.", 2},
	{"Home can feel side-by-side rather than together.", 0},
	{"I could name the little things that light her up.", 1},
	{"Time off together is generally easy between us.", 1},
	{"Those 'always/never' lines still slip into our quarrels.", 1},
	{"We mean similar things when we say 'happy'.", 1},
}

// DemoAnswers is a paraphrased answer set for one partner, used by the seed and the CLI
func DemoAnswers(partner model.Partner) []model.RawAnswer {
	out := make([]model.RawAnswer, len(demoAnswers))
	for i, a := range demoAnswers {
		out[i] = model.RawAnswer{Text: a.text, Value: a.value, Partner: partner}
	}
	return out
}
