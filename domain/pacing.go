package domain

import "time"

// Pacing groups the deliberate delays that make the meeting readable by
// humans. Tests inject ZeroPacing to run the loop at full speed.
type Pacing struct {
	Start    time.Duration // before the first round begins
	Announce time.Duration // after a round announcement
	Think    time.Duration // "typing" pause before a persona generates
	Turn     time.Duration // between two persona turns
	Round    time.Duration // between two rounds
	Intro    time.Duration // between team introductions
}

func DefaultPacing() Pacing {
	return Pacing{
		Start:    2 * time.Second,
		Announce: 1 * time.Second,
		Think:    2 * time.Second,
		Turn:     4 * time.Second,
		Round:    2 * time.Second,
		Intro:    1500 * time.Millisecond,
	}
}

func ZeroPacing() Pacing {
	return Pacing{}
}
