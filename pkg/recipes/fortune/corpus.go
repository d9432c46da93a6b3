package fortune

// Static fallback corpora, sampled when neither threshold pool produced a
// candidate (or the probability roll elected the fallback).

var jokeCorpus = []string{
	"legs shouldn't feel like this",
	"outran the couch again",
	"powered entirely by snacks",
	"the hill started it",
	"will suffer for fitness",
	"chafing builds character",
	"slightly faster than yesterday",
	"my watch made me do it",
	"escaped the notifications",
	"zero regrets, some regrets",
	"the wind was personal today",
	"earned that second breakfast",
	"gravity remains undefeated",
	"pretending this was fun",
	"cardio loading screen",
	"sweat is just sad fat leaving",
	"professional amateur hour",
	"chasing a personal mediocre",
	"the route looked shorter on the map",
	"training for the zombie apocalypse",
}

var quoteCorpus = []string{
	"it never gets easier, you just go faster",
	"the only bad workout is the one that didn't happen",
	"pain is temporary, quitting lasts forever",
	"somewhere someone is training harder",
	"the body achieves what the mind believes",
	"motivation gets you going, habit keeps you there",
	"don't count the miles, make the miles count",
	"sweat now, shine later",
	"strong is the new fast",
	"every mile is a memory",
	"the finish line is just the beginning",
	"discipline beats motivation",
}

var boringCorpus = []string{
	"morning activity",
	"afternoon activity",
	"evening activity",
	"regular workout",
	"another day, another workout",
	"daily exercise",
	"routine session",
	"standard outing",
	"just another session",
	"keeping the streak alive",
}
