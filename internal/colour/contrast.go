package colour

// increaseContrastSteps bounds the number of interpolation steps taken by
// IncreaseContrast.
const increaseContrastSteps = 64

// increaseContrast interpolates c towards the reference colour on the space's
// own axes and returns the first step whose contrast against `against`
// reaches desired. If no step gets there it returns the reference colour
// itself, which is the furthest the colour is allowed to travel.
func increaseContrast(s Space, c, against, towards Color, desired float64, asForeground bool) Color {
	measure := func(candidate Color) float64 {
		if asForeground {
			return s.Contrast(against, candidate)
		}
		return s.Contrast(candidate, against)
	}

	if measure(c) >= desired {
		return c
	}

	from := s.coords(c)
	to := s.coords(towards)
	for i := 1; i <= increaseContrastSteps; i++ {
		t := float64(i) / increaseContrastSteps
		candidate := s.encode([3]float64{
			from[0] + (to[0]-from[0])*t,
			from[1] + (to[1]-from[1])*t,
			from[2] + (to[2]-from[2])*t,
		})
		if measure(candidate) >= desired {
			return candidate
		}
	}
	return towards
}

// MostContrasting returns whichever of black or white contrasts more with the
// background, encoded in the space.
func MostContrasting(s Space, background Color) Color {
	white, black := White(s), Black(s)
	if s.Contrast(background, white) > s.Contrast(background, black) {
		return white
	}
	return black
}
