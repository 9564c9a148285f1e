// Package gate makes the one-shot startup decision between the native flow and
// remote content presentation.
//
// Policy, evaluated in order:
//  1. battery at 100% or an active VPN → native, without touching the network;
//  2. a remote URL that is not an absolute http(s) URL with a host → native;
//  3. a single GET to the URL: 404 → native, any other status → remote,
//     no response at all → the configured transport-failure route.
package gate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/pkg/logger"
)

// Route is where the app goes after launch.
type Route string

const (
	RouteNative Route = "native"
	RouteRemote Route = "remote"
)

// ParseRoute parses a configured route name.
func ParseRoute(s string) (Route, error) {
	switch Route(strings.ToLower(strings.TrimSpace(s))) {
	case RouteNative:
		return RouteNative, nil
	case RouteRemote:
		return RouteRemote, nil
	}
	return "", shared.NewDomainError("gate", "ParseRoute", shared.ErrInvalidInput,
		fmt.Sprintf("unknown route %q", s))
}

// Reason records which rule produced a decision.
type Reason string

const (
	ReasonBatteryFull    Reason = "battery_full"
	ReasonVPNActive      Reason = "vpn_active"
	ReasonInvalidURL     Reason = "invalid_url"
	ReasonNotFound       Reason = "not_found"
	ReasonRemoteResponse Reason = "remote_response"
	ReasonTransportError Reason = "transport_error"
)

// Decision is the gate outcome. It is derived once per launch and never persisted.
type Decision struct {
	Route      Route
	Reason     Reason
	StatusCode int           // zero unless a response arrived
	Latency    time.Duration // zero unless the probe ran
	Err        error         // transport error, if any
}

// Signals are the device facts the first rule looks at.
type Signals struct {
	// BatteryPercent is in [0,100], or -1 when unknown.
	BatteryPercent int
	VPNActive      bool
}

// UnknownSignals is what a failing SignalSource degrades to.
var UnknownSignals = Signals{BatteryPercent: -1}

// SignalSource reports device signals.
type SignalSource interface {
	Signals(ctx context.Context) (Signals, error)
}

// HTTPDoer is the transport the probe uses. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gate evaluates the policy.
type Gate struct {
	remoteURL    string
	client       HTTPDoer
	signals      SignalSource
	failureRoute Route
	publisher    shared.EventPublisher
	logger       *logger.Logger
}

// Config contains the Gate's settings and collaborators.
type Config struct {
	RemoteURL string
	Signals   SignalSource

	// Client defaults to an http.Client without a timeout override.
	Client HTTPDoer

	// TransportFailureRoute defaults to RouteRemote.
	TransportFailureRoute Route

	Publisher shared.EventPublisher
	Logger    *logger.Logger
}

// New creates a Gate.
func New(cfg Config) *Gate {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.TransportFailureRoute == "" {
		cfg.TransportFailureRoute = RouteRemote
	}
	if cfg.Publisher == nil {
		cfg.Publisher = shared.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	return &Gate{
		remoteURL:    cfg.RemoteURL,
		client:       cfg.Client,
		signals:      cfg.Signals,
		failureRoute: cfg.TransportFailureRoute,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger.With(logger.Component("gate")),
	}
}

// Decide evaluates the policy synchronously. It performs at most one request.
func (g *Gate) Decide(ctx context.Context) Decision {
	d := g.decide(ctx)

	fields := []logger.Field{logger.Route(string(d.Route)), logger.Reason(string(d.Reason))}
	if d.StatusCode != 0 {
		fields = append(fields, logger.StatusCode(d.StatusCode))
	}
	if d.Latency != 0 {
		fields = append(fields, logger.Latency(d.Latency))
	}
	if d.Err != nil {
		fields = append(fields, logger.Err(d.Err))
	}
	g.logger.Info("gate decided", fields...)

	if err := g.publisher.Publish(shared.NewGateDecidedEvent(string(d.Route), string(d.Reason))); err != nil {
		g.logger.Warn("failed to publish gate decision", logger.Err(err))
	}
	return d
}

// DecideAsync runs Decide off the serialized context and posts callback with
// the result back onto dispatcher.
func (g *Gate) DecideAsync(ctx context.Context, dispatcher shared.Dispatcher, callback func(Decision)) {
	go func() {
		d := g.Decide(ctx)
		if !dispatcher.Post(func() { callback(d) }) {
			g.logger.Warn("dispatcher stopped before gate decision was delivered", logger.Route(string(d.Route)))
		}
	}()
}

func (g *Gate) decide(ctx context.Context) Decision {
	sig := g.readSignals(ctx)
	g.logger.Debug("device signals", logger.BatteryPercent(sig.BatteryPercent), logger.VPNActive(sig.VPNActive))

	if sig.BatteryPercent == 100 {
		return Decision{Route: RouteNative, Reason: ReasonBatteryFull}
	}
	if sig.VPNActive {
		return Decision{Route: RouteNative, Reason: ReasonVPNActive}
	}

	target, ok := validURL(g.remoteURL)
	if !ok {
		g.logger.Debug("remote url invalid", logger.String("url", g.remoteURL))
		return Decision{Route: RouteNative, Reason: ReasonInvalidURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Decision{Route: RouteNative, Reason: ReasonInvalidURL, Err: err}
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Decision{Route: g.failureRoute, Reason: ReasonTransportError, Latency: latency, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode == http.StatusNotFound {
		return Decision{Route: RouteNative, Reason: ReasonNotFound, StatusCode: resp.StatusCode, Latency: latency}
	}
	return Decision{Route: RouteRemote, Reason: ReasonRemoteResponse, StatusCode: resp.StatusCode, Latency: latency}
}

func (g *Gate) readSignals(ctx context.Context) Signals {
	if g.signals == nil {
		return UnknownSignals
	}
	sig, err := g.signals.Signals(ctx)
	if err != nil {
		g.logger.Warn("device signals unavailable", logger.Err(err))
		return UnknownSignals
	}
	return sig
}

// validURL accepts only absolute http(s) URLs with a host.
func validURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, false
	}
	return u, true
}
