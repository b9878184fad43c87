package indicator

import (
	"time"

	"synapse-analytics/internal/model"
)

func barFor(symbol string, close float64) model.Bar {
	return model.Bar{
		Symbol: symbol,
		TS:     time.Unix(0, 0).UTC(),
		Open:   close,
		High:   close + 0.5,
		Low:    close - 0.5,
		Close:  close,
		Volume: 100,
	}
}
