package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistryIsDefault(t *testing.T) {
	if Registry == nil {
		t.Fatal("Registry is nil")
	}
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry is not the default Prometheus registerer")
	}
}
