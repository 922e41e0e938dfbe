package presence

import (
	"context"
	"time"
)

func (c *Counter) SetClock(now func() time.Time) { c.now = now }

func (c *Counter) SweepNow() { c.sweep(context.Background()) }
