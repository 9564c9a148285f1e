package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/scheduler"
)

type staticSignals struct {
	sig Signals
	err error
}

func (s staticSignals) Signals(context.Context) (Signals, error) { return s.sig, s.err }

func statusServer(t *testing.T, status int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGate_Policy(t *testing.T) {
	ok := statusServer(t, http.StatusOK, nil)
	missing := statusServer(t, http.StatusNotFound, nil)
	broken := statusServer(t, http.StatusInternalServerError, nil)

	tests := []struct {
		name    string
		signals Signals
		url     string
		route   Route
		reason  Reason
	}{
		{"battery full", Signals{BatteryPercent: 100}, ok.URL, RouteNative, ReasonBatteryFull},
		{"vpn active", Signals{BatteryPercent: 50, VPNActive: true}, ok.URL, RouteNative, ReasonVPNActive},
		{"malformed url", Signals{BatteryPercent: 50}, "not a url", RouteNative, ReasonInvalidURL},
		{"relative url", Signals{BatteryPercent: 50}, "/landing", RouteNative, ReasonInvalidURL},
		{"wrong scheme", Signals{BatteryPercent: 50}, "ftp://example.com/x", RouteNative, ReasonInvalidURL},
		{"empty url", Signals{BatteryPercent: 50}, "", RouteNative, ReasonInvalidURL},
		{"404", Signals{BatteryPercent: 50}, missing.URL, RouteNative, ReasonNotFound},
		{"200", Signals{BatteryPercent: 50}, ok.URL, RouteRemote, ReasonRemoteResponse},
		{"500", Signals{BatteryPercent: 50}, broken.URL, RouteRemote, ReasonRemoteResponse},
		{"unknown battery", UnknownSignals, ok.URL, RouteRemote, ReasonRemoteResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(Config{RemoteURL: tt.url, Signals: staticSignals{sig: tt.signals}})
			d := g.Decide(context.Background())
			assert.Equal(t, tt.route, d.Route)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestGate_ShortCircuitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := statusServer(t, http.StatusOK, &hits)

	g := New(Config{RemoteURL: srv.URL, Signals: staticSignals{sig: Signals{BatteryPercent: 100}}})
	g.Decide(context.Background())
	assert.Zero(t, hits.Load())

	g = New(Config{RemoteURL: srv.URL, Signals: staticSignals{sig: Signals{BatteryPercent: 20}}})
	d := g.Decide(context.Background())
	assert.Equal(t, int32(1), hits.Load(), "exactly one request, no retry")
	assert.Equal(t, http.StatusOK, d.StatusCode)
}

type failingDoer struct{ calls int }

func (f *failingDoer) Do(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestGate_TransportFailureRoute(t *testing.T) {
	doer := &failingDoer{}
	g := New(Config{RemoteURL: "https://example.com/landing", Client: doer, Signals: staticSignals{sig: Signals{BatteryPercent: 40}}})

	d := g.Decide(context.Background())
	assert.Equal(t, RouteRemote, d.Route, "default keeps remote")
	assert.Equal(t, ReasonTransportError, d.Reason)
	assert.Error(t, d.Err)
	assert.Equal(t, 1, doer.calls)

	g = New(Config{
		RemoteURL:             "https://example.com/landing",
		Client:                &failingDoer{},
		Signals:               staticSignals{sig: Signals{BatteryPercent: 40}},
		TransportFailureRoute: RouteNative,
	})
	assert.Equal(t, RouteNative, g.Decide(context.Background()).Route)
}

func TestGate_SignalErrorDegradesToUnknown(t *testing.T) {
	srv := statusServer(t, http.StatusOK, nil)
	g := New(Config{RemoteURL: srv.URL, Signals: staticSignals{err: errors.New("no sysfs")}})
	assert.Equal(t, RouteRemote, g.Decide(context.Background()).Route)
}

func TestGate_DecideAsyncDeliversOnDispatcher(t *testing.T) {
	loop := scheduler.NewLoop(scheduler.DefaultLoopConfig())
	go func() { _ = loop.Run(context.Background()) }()
	t.Cleanup(loop.Stop)

	srv := statusServer(t, http.StatusNotFound, nil)
	g := New(Config{RemoteURL: srv.URL, Signals: staticSignals{sig: Signals{BatteryPercent: 10}}})

	got := make(chan Decision, 1)
	g.DecideAsync(context.Background(), loop, func(d Decision) { got <- d })

	select {
	case d := <-got:
		assert.Equal(t, RouteNative, d.Route)
		assert.Equal(t, ReasonNotFound, d.Reason)
	case <-time.After(5 * time.Second):
		t.Fatal("decision not delivered")
	}
}

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute(" Native ")
	require.NoError(t, err)
	assert.Equal(t, RouteNative, r)

	_, err = ParseRoute("sideways")
	assert.True(t, shared.IsValidation(err))
}
