package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	_ "liyu1981.xyz/solar-telemetry-service/pkg/testing"
)

type upstream struct {
	*httptest.Server
	hits    atomic.Int32
	lastReq atomic.Pointer[http.Request]
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.lastReq.Store(r)
		handler(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newRouter(client *Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandlers(client).RegisterRoutes(r.Group("/api"))
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestInvalidCoordinates(t *testing.T) {
	common.SetTestLoggerNop()
	up := newUpstream(t, jsonReply(http.StatusOK, `{}`))
	r := newRouter(NewClient(WithBaseURLs(up.URL, up.URL, up.URL), WithAPIKeys("k", "k")))

	for _, path := range []string{
		"/api/pvgis/abc/75.7",
		"/api/weather/15.3/east",
		"/api/solar-insight/NaN/75.7",
	} {
		w := get(r, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "Invalid coordinates", decode(t, w)["error"])
	}
	assert.Zero(t, up.hits.Load())
}

func TestPVGISForwardsQuery(t *testing.T) {
	common.SetTestLoggerNop()
	up := newUpstream(t, jsonReply(http.StatusOK, `{"outputs":{"totals":{"fixed":{"E_y":1612.4}}}}`))
	r := newRouter(NewClient(WithBaseURLs(up.URL, "", "")))

	w := get(r, "/api/pvgis/12.97/77.59")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"outputs":{"totals":{"fixed":{"E_y":1612.4}}}}`, w.Body.String())

	req := up.lastReq.Load()
	require.NotNil(t, req)
	assert.Equal(t, UserAgent, req.Header.Get("User-Agent"))
	q := req.URL.Query()
	assert.Equal(t, "12.97", q.Get("lat"))
	assert.Equal(t, "77.59", q.Get("lon"))
	assert.Equal(t, "PVGIS-SARAH2", q.Get("raddatabase"))
	assert.Equal(t, "35", q.Get("angle"))
	assert.Equal(t, "14", q.Get("loss"))
}

func TestPVGISUpstreamError(t *testing.T) {
	common.SetTestLoggerNop()
	up := newUpstream(t, jsonReply(http.StatusBadRequest, `{"message":"Location over the sea"}`))
	r := newRouter(NewClient(WithBaseURLs(up.URL, "", "")))

	w := get(r, "/api/pvgis/0/0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "PVGIS API error", body["error"])
	assert.Equal(t, map[string]any{"message": "Location over the sea"}, body["details"])
}

func TestPVGISTimeout(t *testing.T) {
	common.SetTestLoggerNop()
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	r := newRouter(NewClient(WithBaseURLs(up.URL, "", ""), WithTimeout(50*time.Millisecond)))

	w := get(r, "/api/pvgis/15.3/75.7")
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Equal(t, "PVGIS API timeout", decode(t, w)["error"])
}

func TestPVGISUnreachable(t *testing.T) {
	common.SetTestLoggerNop()
	up := newUpstream(t, jsonReply(http.StatusOK, `{}`))
	up.Close()
	r := newRouter(NewClient(WithBaseURLs(up.URL, "", "")))

	w := get(r, "/api/pvgis/15.3/75.7")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to fetch PVGIS data", decode(t, w)["error"])
}

func TestWeatherFallbackWithoutKey(t *testing.T) {
	common.SetTestLoggerNop()
	up := newUpstream(t, jsonReply(http.StatusOK, `{}`))

	for _, key := range []string{"", DemoKey} {
		r := newRouter(NewClient(WithBaseURLs("", up.URL, ""), WithAPIKeys(key, "")))
		w := get(r, "/api/weather/15.3/75.7")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"main":{"temp":25,"humidity":60},"weather":[{"main":"Clear","description":"clear sky"}],"clouds":{"all":10}}`, w.Body.String())
	}
	assert.Zero(t, up.hits.Load())
}

func TestWeatherUpstream(t *testing.T) {
	common.SetTestLoggerNop()

	t.Run("ok", func(t *testing.T) {
		up := newUpstream(t, jsonReply(http.StatusOK, `{"main":{"temp":31.2}}`))
		r := newRouter(NewClient(WithBaseURLs("", up.URL, ""), WithAPIKeys("secret", "")))

		w := get(r, "/api/weather/12.97/77.59")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"main":{"temp":31.2}}`, w.Body.String())

		q := up.lastReq.Load().URL.Query()
		assert.Equal(t, "secret", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
	})

	t.Run("bad key", func(t *testing.T) {
		up := newUpstream(t, jsonReply(http.StatusUnauthorized, `{"cod":401}`))
		r := newRouter(NewClient(WithBaseURLs("", up.URL, ""), WithAPIKeys("wrong", "")))

		w := get(r, "/api/weather/12.97/77.59")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid OpenWeather API key", decode(t, w)["error"])
	})

	t.Run("other failure falls back", func(t *testing.T) {
		up := newUpstream(t, jsonReply(http.StatusBadGateway, `oops`))
		r := newRouter(NewClient(WithBaseURLs("", up.URL, ""), WithAPIKeys("secret", "")))

		w := get(r, "/api/weather/12.97/77.59")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Clear", decode(t, w)["weather"].([]any)[0].(map[string]any)["main"])
	})
}

func TestSolarInsight(t *testing.T) {
	common.SetTestLoggerNop()

	t.Run("fallback without key", func(t *testing.T) {
		r := newRouter(NewClient())
		w := get(r, "/api/solar-insight/15.3/75.7")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"solarPotential":{"yearlyEnergyDcKwh":1500,"roofSegmentSummaries":[{"yearlyEnergyDcKwh":1500,"segmentIndex":0}]}}`, w.Body.String())
	})

	t.Run("forwards location", func(t *testing.T) {
		up := newUpstream(t, jsonReply(http.StatusOK, `{"name":"buildings/abc"}`))
		r := newRouter(NewClient(WithBaseURLs("", "", up.URL), WithAPIKeys("", "gkey")))

		w := get(r, "/api/solar-insight/12.5/76.25")
		require.Equal(t, http.StatusOK, w.Code)
		q := up.lastReq.Load().URL.Query()
		assert.Equal(t, "12.5", q.Get("location.latitude"))
		assert.Equal(t, "76.25", q.Get("location.longitude"))
		assert.Equal(t, "gkey", q.Get("key"))
	})

	t.Run("forbidden", func(t *testing.T) {
		up := newUpstream(t, jsonReply(http.StatusForbidden, `{"error":{"status":"PERMISSION_DENIED"}}`))
		r := newRouter(NewClient(WithBaseURLs("", "", up.URL), WithAPIKeys("", "gkey")))

		w := get(r, "/api/solar-insight/12.5/76.25")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Invalid Google Solar API key", decode(t, w)["error"])
	})

	t.Run("not found falls back", func(t *testing.T) {
		up := newUpstream(t, jsonReply(http.StatusNotFound, `{}`))
		r := newRouter(NewClient(WithBaseURLs("", "", up.URL), WithAPIKeys("", "gkey")))

		w := get(r, "/api/solar-insight/12.5/76.25")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, decode(t, w), "solarPotential")
	})
}
