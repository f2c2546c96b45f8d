package clock

import (
	"time"

	domainClock "github.com/t-kuni/deptrace/domain/system/clock"
)

type Clock struct{}

func NewClock() domainClock.IClock {
	return &Clock{}
}

func (c *Clock) Now() time.Time {
	return time.Now()
}
