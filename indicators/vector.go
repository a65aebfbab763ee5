package indicators

// Vector maps an indicator id to a score in [0,1]. A nil entry means the
// indicator was expected but could not be computed; a missing key means it
// was never attempted.
type Vector map[string]*float64

// Score boxes v for use as a Vector entry.
func Score(v float64) *float64 { return &v }

func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, s := range v {
		if s != nil {
			out[k] = Score(*s)
		} else {
			out[k] = nil
		}
	}
	return out
}

// Merge copies every entry of o into v. A nil entry in o never overwrites a
// computed score already present in v.
func (v Vector) Merge(o Vector) {
	for k, s := range o {
		if s == nil {
			if _, ok := v[k]; ok {
				continue
			}
			v[k] = nil
			continue
		}
		v[k] = Score(*s)
	}
}

// Sanitized returns a copy where non-finite or out-of-range scores become nil.
func (v Vector) Sanitized() Vector {
	out := make(Vector, len(v))
	for k, s := range v {
		if s == nil || !finite(*s) || *s < 0 || *s > 1 {
			out[k] = nil
			continue
		}
		out[k] = Score(*s)
	}
	return out
}

// Computed counts the non-nil entries.
func (v Vector) Computed() int {
	n := 0
	for _, s := range v {
		if s != nil {
			n++
		}
	}
	return n
}
