// Package device reads the signals the startup gate looks at: battery charge
// and whether a VPN tunnel is up.
package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/skillplay/skillplay-life/internal/domain/gate"
)

// DefaultPowerSupplyDir is where Linux exposes batteries.
const DefaultPowerSupplyDir = "/sys/class/power_supply"

// VPNInterfacePrefixes are interface name prefixes treated as VPN tunnels.
var VPNInterfacePrefixes = []string{"tun", "tap", "wg", "ppp", "utun", "ipsec"}

// ══════════════════════════════════════════════════════════════════════════════
// SYSTEM COLLECTOR
// ══════════════════════════════════════════════════════════════════════════════

// System collects signals from sysfs and the network interface table.
type System struct {
	// PowerSupplyDir defaults to DefaultPowerSupplyDir.
	PowerSupplyDir string

	// Interfaces defaults to net.Interfaces.
	Interfaces func() ([]net.Interface, error)
}

var _ gate.SignalSource = (*System)(nil)

// NewSystem returns a collector for the running host.
func NewSystem() *System {
	return &System{PowerSupplyDir: DefaultPowerSupplyDir, Interfaces: net.Interfaces}
}

// Signals implements gate.SignalSource. A missing battery reports -1 and is
// not an error; only an unreadable interface table is.
func (s *System) Signals(ctx context.Context) (gate.Signals, error) {
	if err := ctx.Err(); err != nil {
		return gate.UnknownSignals, err
	}

	sig := gate.Signals{BatteryPercent: s.battery()}

	list := s.Interfaces
	if list == nil {
		list = net.Interfaces
	}
	ifaces, err := list()
	if err != nil {
		return sig, fmt.Errorf("list interfaces: %w", err)
	}
	sig.VPNActive = vpnActive(ifaces)
	return sig, nil
}

// battery returns the lowest capacity among batteries, or -1 when none is readable.
func (s *System) battery() int {
	dir := s.PowerSupplyDir
	if dir == "" {
		dir = DefaultPowerSupplyDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return -1
	}

	level := -1
	for _, e := range entries {
		supply := filepath.Join(dir, e.Name())
		kind, err := readTrimmed(filepath.Join(supply, "type"))
		if err != nil || !strings.EqualFold(kind, "Battery") {
			continue
		}
		raw, err := readTrimmed(filepath.Join(supply, "capacity"))
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 100 {
			continue
		}
		if level == -1 || n < level {
			level = n
		}
	}
	return level
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func vpnActive(ifaces []net.Interface) bool {
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		name := strings.ToLower(iface.Name)
		for _, prefix := range VPNInterfacePrefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// STATIC SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// Static reports fixed signals, typically from configuration.
type Static struct {
	BatteryPercent int
	VPNActive      bool
}

var _ gate.SignalSource = Static{}

// Signals implements gate.SignalSource.
func (s Static) Signals(context.Context) (gate.Signals, error) {
	if s.BatteryPercent < -1 || s.BatteryPercent > 100 {
		return gate.UnknownSignals, fmt.Errorf("battery percent %d out of range", s.BatteryPercent)
	}
	return gate.Signals{BatteryPercent: s.BatteryPercent, VPNActive: s.VPNActive}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SELECTION
// ══════════════════════════════════════════════════════════════════════════════

// Source names a signal source in configuration.
const (
	SourceSystem = "system"
	SourceStatic = "static"
)

// ErrUnknownSource is returned by New for an unrecognised source name.
var ErrUnknownSource = errors.New("device: unknown signal source")

// New builds the named source. static uses battery and vpn as given.
func New(source string, battery int, vpn bool) (gate.SignalSource, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", SourceSystem:
		return NewSystem(), nil
	case SourceStatic:
		return Static{BatteryPercent: battery, VPNActive: vpn}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
}
