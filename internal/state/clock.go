package state

import "fmt"

const (
	MinutesPerHour = 60
	MinutesPerDay  = 1440
)

// Clock is the simulated time of a run. Only the engine advances it.
type Clock struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Total  int `json:"total"` // cumulative simulated minutes since the run began
	Speed  int `json:"speed"` // minutes advanced per tick
}

// NewClock starts a clock on the given day and hour.
func NewClock(day, hour, speed int) Clock {
	return Clock{Day: max(1, day), Hour: hour, Speed: max(1, speed)}
}

// Advance moves the clock forward by minutes, rolling minute, hour and day
// over. It returns how many day boundaries were crossed.
func (c *Clock) Advance(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	c.Total += minutes
	m := c.Minute + minutes
	c.Minute = m % MinutesPerHour
	h := c.Hour + m/MinutesPerHour
	c.Hour = h % 24
	days := h / 24
	c.Day += days
	return days
}

// MinuteOfDay returns minutes since midnight.
func (c Clock) MinuteOfDay() int {
	return c.Hour*MinutesPerHour + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("Day %d, %d:%02d", c.Day, c.Hour, c.Minute)
}
