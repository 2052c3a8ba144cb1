package exporter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"

	dht "github.com/arbona-robin/pxt-DHT11-DHT22"
)

type fakeSource struct {
	result dht.Result
}

func (s *fakeSource) LastResult() dht.Result     { return s.result }
func (s *fakeSource) SensorType() dht.SensorType { return dht.DHT22 }

func newTestRouter(t *testing.T, src Source) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "DHT22", "GPIO4")
	m.Observe(src.LastResult(), time.Now())
	logger, _ := test.NewNullLogger()
	return NewRouter(src, reg, logger)
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReading(t *testing.T) {
	src := &fakeSource{result: dht.Result{
		Humidity: 65.2, Temperature: 68.18, Unit: dht.Fahrenheit,
		SensorResponded: true, ChecksumValid: true, Duration: 22500 * time.Microsecond,
	}}
	router := newTestRouter(t, src)

	w := get(router, "/reading")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /reading = %d", w.Code)
	}
	var got Reading
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Sensor != "DHT22" || got.Unit != "fahrenheit" || !got.ChecksumValid || got.DurationMicros != 22500 {
		t.Errorf("reading = %+v", got)
	}
	if got.Humidity == nil || *got.Humidity != 65.2 || got.Temperature == nil || *got.Temperature != 68.18 {
		t.Errorf("values = %v/%v", got.Humidity, got.Temperature)
	}

	if w := get(router, "/healthz"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), OutcomeOK) {
		t.Errorf("GET /healthz = %d %s", w.Code, w.Body.String())
	}
}

func TestReadingNoSensor(t *testing.T) {
	src := &fakeSource{result: dht.Result{Humidity: dht.Unset, Temperature: dht.Unset}}
	router := newTestRouter(t, src)

	w := get(router, "/reading")
	if !strings.Contains(w.Body.String(), `"humidity":null`) || !strings.Contains(w.Body.String(), `"temperature":null`) {
		t.Errorf("GET /reading = %s", w.Body.String())
	}
	if w := get(router, "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /healthz = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeSource{result: dht.Result{SensorResponded: true}})

	w := get(router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`dht_queries_total{outcome="checksum_error",pin="GPIO4",sensor="DHT22"} 1`,
		`dht_queries_total{outcome="ok",pin="GPIO4",sensor="DHT22"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
