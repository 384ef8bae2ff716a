package classifier

import (
	"time"

	"github.com/mohammad-safakhou/toxscore/internal/metrics"
)

func observeBatch(elapsed time.Duration) {
	metrics.ObserveClassifierBatch(elapsed)
}
