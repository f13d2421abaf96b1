package core

// Signal is a semantic identifier of an effect controller value.
type Signal uint8

const (
	SignalTT10 Signal = iota
	SignalTT11
	SignalTT12
	SignalTT13
	SignalUpDown
	SignalDownDown
	SignalDownVelocity
	SignalLandingBurnCore
	SignalLandingBurnInner

	SignalEngineStartup
	SignalLiftoffTime
	SignalLiftoffDown
	SignalClusterPower
	SignalDistance
	SignalDeluge

	signalCount
)

var signalNames = [signalCount]string{
	SignalTT10:             "TT10",
	SignalTT11:             "TT11",
	SignalTT12:             "TT12",
	SignalTT13:             "TT13",
	SignalUpDown:           "upndown",
	SignalDownDown:         "downdown",
	SignalDownVelocity:     "downVelocity",
	SignalLandingBurnCore:  "LandingBurnCore",
	SignalLandingBurnInner: "LandingBurnInner",
	SignalEngineStartup:    "engineStartup",
	SignalLiftoffTime:      "liftoff time",
	SignalLiftoffDown:      "liftoff down",
	SignalClusterPower:     "ClusterPower",
	SignalDistance:         "distance",
	SignalDeluge:           "deluge",
}

// LandingSignals is the vocabulary pushed by the landing controller, in push order.
var LandingSignals = []Signal{
	SignalTT10, SignalTT11, SignalTT12, SignalTT13,
	SignalUpDown, SignalDownDown, SignalDownVelocity,
	SignalLandingBurnCore, SignalLandingBurnInner,
}

// Name returns the controller name the signal is published under.
func (s Signal) Name() string {
	if s >= signalCount {
		return ""
	}
	return signalNames[s]
}

func (s Signal) String() string {
	return s.Name()
}

// Frame holds the controller values produced by one tick. A signal that was not
// produced (for example the angle of a missing reference) is absent, not zero.
type Frame struct {
	values  [signalCount]float32
	present uint32
}

// Set records v for s.
func (f *Frame) Set(s Signal, v float32) {
	if s >= signalCount {
		return
	}
	f.values[s] = v
	f.present |= 1 << s
}

// Get returns the value of s and whether it was produced.
func (f *Frame) Get(s Signal) (float32, bool) {
	if s >= signalCount || f.present&(1<<s) == 0 {
		return 0, false
	}
	return f.values[s], true
}

// Value returns the value of s, or 0 when absent.
func (f *Frame) Value(s Signal) float32 {
	v, _ := f.Get(s)
	return v
}

// Has reports whether s was produced.
func (f *Frame) Has(s Signal) bool {
	_, ok := f.Get(s)
	return ok
}

// Len returns the number of produced signals.
func (f *Frame) Len() int {
	n := 0
	for s := Signal(0); s < signalCount; s++ {
		if f.present&(1<<s) != 0 {
			n++
		}
	}
	return n
}

// Each calls fn for every produced signal in signal order.
func (f *Frame) Each(fn func(Signal, float32)) {
	for s := Signal(0); s < signalCount; s++ {
		if f.present&(1<<s) != 0 {
			fn(s, f.values[s])
		}
	}
}
