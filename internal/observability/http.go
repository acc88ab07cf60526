package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the scrape endpoint. Scrapes themselves are counted through
// promhttp's own instrumentation and OpenMetrics is offered when the scraper asks for it.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	scrape := promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics:   true,
			MaxRequestsInFlight: 4,
		}),
	)
	return adaptor.HTTPHandler(scrape)
}
