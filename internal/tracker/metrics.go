package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var saves = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marble_tracker_saves_total",
	Help: "Progress file saves by result.",
}, []string{"result"})
