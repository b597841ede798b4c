package timer

import "time"

// Monotonic is a Timer backed by time.Now, whose monotonic reading Go
// guarantees never to run backwards regardless of wall-clock adjustments
// (see the time package's "Monotonic Clocks" documentation).
type Monotonic struct {
	deadline time.Time
	armed    bool
}

// NewMonotonic returns an unarmed Monotonic timer; Expired reports true
// until Arm or ArmSeconds is called.
func NewMonotonic() *Monotonic {
	return &Monotonic{}
}

func (m *Monotonic) Arm(d time.Duration) {
	m.deadline = time.Now().Add(d)
	m.armed = true
}

func (m *Monotonic) ArmSeconds(s uint16) {
	m.Arm(time.Duration(s) * time.Second)
}

func (m *Monotonic) Expired() bool {
	if !m.armed {
		return true
	}
	return !time.Now().Before(m.deadline)
}

func (m *Monotonic) Remaining() time.Duration {
	if !m.armed {
		return 0
	}
	return time.Until(m.deadline)
}
