package usecase

import "time"

func (e *BalanceEngine) SetClock(now func() time.Time) {
	e.now = now
}
