package series

// Stats is a pure derived view over a series' current samples.
// A zero Count means "no data"; Average, Max, Min and Last are only
// meaningful when Count > 0 and callers must check it first.
type Stats[T Number] struct {
	Count   int
	Average float64
	Max     T
	Min     T
	Last    T
}

// Stats computes the derived view over the retained samples.
func (s *Series[T]) Stats() Stats[T] {
	st := Stats[T]{Count: len(s.samples)}
	if st.Count == 0 {
		return st
	}

	st.Max = s.samples[0]
	st.Min = s.samples[0]
	st.Last = s.samples[st.Count-1]

	var sum float64
	for _, v := range s.samples {
		sum += float64(v)
		if v > st.Max {
			st.Max = v
		}
		if v < st.Min {
			st.Min = v
		}
	}
	st.Average = sum / float64(st.Count)
	return st
}
