package srs

// Params holds every tunable of the scheduling core. The anchor sequence and
// ease constants are deliberate design choices, not laws; hosts may override
// them through configuration, and tests pin them down as vectors.
type Params struct {
	// Interval scheduler
	Anchors             []int   // interval (days) for success streaks 1..len(Anchors)
	FailureIntervalDays int     // interval after any score < 2
	DefaultEase         float64 // ease factor for a card's first state
	EasePenalty         float64 // subtracted from ease on failure
	EaseFloor           float64 // ease never decremented below this
	MinGrowthEase       float64 // ease never applied as a multiplier below this

	// Adaptive selector
	IncludeUnseen   bool    // whether unseen cards are eligible
	MasteryWeight   float64 // weight of (3 - mastery) in the priority score
	JitterAmplitude float64 // magnitude of the random tie-breaking term
	TopicStreakCap  int     // max consecutive selections from one micro topic
	ExcludeWindow   int     // recent selections excluded from re-selection

	// Metrics aggregator
	DueSoonDays int // horizon of the "due soon" bucket
}

func NewDefaultParams() Params {
	return Params{
		Anchors:             []int{1, 3, 7, 14},
		FailureIntervalDays: 1,
		DefaultEase:         1.8,
		EasePenalty:         0.1,
		EaseFloor:           1.3,
		MinGrowthEase:       1.0,

		IncludeUnseen:   true,
		MasteryWeight:   0.5,
		JitterAmplitude: 0.01,
		TopicStreakCap:  3,
		ExcludeWindow:   3,

		DueSoonDays: 7,
	}
}
