package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inflaxprotocol/inflax/logging"
)

const namespace = "inflax"

var (
	positionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "positions_total",
		Help:      "Number of position lifecycle transitions, by outcome",
	}, []string{"outcome"})

	openPositionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "open_positions",
		Help:      "Number of currently open positions",
	})

	markPriceGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "amm",
		Name:      "mark_price",
		Help:      "Current vAMM mark price, natural units",
	})

	openInterestGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "amm",
		Name:      "open_interest",
		Help:      "Aggregate open interest per side, natural units",
	}, []string{"side"})

	fundingRateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "funding",
		Name:      "rate",
		Help:      "Current funding rate",
	})
)

func init() {
	prometheus.MustRegister(
		positionCounter,
		openPositionsGauge,
		markPriceGauge,
		openInterestGauge,
		fundingRateGauge,
	)
}

// PositionOpenedInc increments the opened-position counter.
func PositionOpenedInc() {
	positionCounter.WithLabelValues("opened").Inc()
}

// PositionClosedInc increments the closed-position counter.
func PositionClosedInc() {
	positionCounter.WithLabelValues("closed").Inc()
}

// PositionLiquidatedInc increments the liquidated-position counter.
func PositionLiquidatedInc() {
	positionCounter.WithLabelValues("liquidated").Inc()
}

// SetOpenPositions records the number of currently open positions.
func SetOpenPositions(n int) {
	openPositionsGauge.Set(float64(n))
}

// SetMarkPrice records the current mark price in natural units.
func SetMarkPrice(p float64) {
	markPriceGauge.Set(p)
}

// SetOpenInterest records aggregate open interest per side in natural units.
func SetOpenInterest(long, short float64) {
	openInterestGauge.WithLabelValues("long").Set(long)
	openInterestGauge.WithLabelValues("short").Set(short)
}

// SetFundingRate records the current funding rate.
func SetFundingRate(r float64) {
	fundingRateGauge.Set(r)
}

// Start exposes the prometheus handler on the configured address. It returns
// the server so the caller can shut it down.
func Start(log *logging.Logger, cfg Config) *http.Server {
	if !cfg.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()
	log.Info("metrics server started", logging.String("address", cfg.Address))
	return srv
}
