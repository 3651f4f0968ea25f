package metrics

import "github.com/prometheus/client_golang/prometheus"

// CatalogueMetrics tracks catalogue loads.
type CatalogueMetrics struct {
	products       prometheus.Gauge
	sourceFailures *prometheus.CounterVec
}

func NewCatalogueMetrics(reg prometheus.Registerer) *CatalogueMetrics {
	if reg == nil {
		return &CatalogueMetrics{}
	}
	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalogue_products",
		Help: "Products in the loaded catalogue index.",
	})
	sourceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogue_source_failures_total",
		Help: "Catalogue sources skipped because they failed to load.",
	}, []string{"source"})
	reg.MustRegister(products, sourceFailures)
	return &CatalogueMetrics{products: products, sourceFailures: sourceFailures}
}

func (c *CatalogueMetrics) SetProducts(n int) {
	if c == nil || c.products == nil {
		return
	}
	c.products.Set(float64(n))
}

func (c *CatalogueMetrics) IncSourceFailure(source string) {
	if c == nil || c.sourceFailures == nil {
		return
	}
	c.sourceFailures.WithLabelValues(normalizeLabel(source)).Inc()
}
