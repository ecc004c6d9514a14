package displayclient

import (
	"context"
	"sync"
	"time"

	"masjid-display-server/internal/domain"

	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 30 * time.Second

// Snapshot is what the renderer reads. IsAuthorized is the gate; Err is
// surfaced separately so a momentary outage never blanks an approved
// display.
type Snapshot struct {
	IsAuthorized      bool
	IsLoading         bool
	NeedsRegistration bool
	Status            string
	DeviceName        string
	Err               error
}

type Config struct {
	DeviceID         string
	DisplayID        string
	UserAgent        string
	ScreenResolution string
	// Interval between probes. Revocations made out-of-band are detected
	// within one interval.
	Interval time.Duration
	// OnChange fires when status, authorization or the registration need
	// changes. Optional.
	OnChange func(Snapshot)
}

// Poller is the authorization state machine run by each unattended
// display. One loop goroutine owns all probes, so a slow network can
// never produce overlapping in-flight requests.
type Poller struct {
	client *Client
	cfg    Config

	mu      sync.Mutex
	snap    Snapshot
	started bool

	stop     chan struct{}
	done     chan struct{}
	poke     chan struct{}
	stopOnce sync.Once
}

func NewPoller(client *Client, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	return &Poller{
		client: client,
		cfg:    cfg,
		snap:   Snapshot{IsLoading: true, Status: domain.StatusUnregistered},
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		poke:   make(chan struct{}, 1),
	}
}

// Start probes immediately, then on every interval tick, until Stop is
// called or ctx is canceled.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.probeOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.probeOnce(ctx)
		case <-p.poke:
			p.probeOnce(ctx)
		}
	}
}

// Stop tears the polling timer down and waits for the loop to exit.
// Safe on a poller that was never started.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if started {
		<-p.done
	}
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Register pairs the device under the given name and pokes the loop to
// refresh the state right away instead of waiting out the current
// interval. The probe itself stays on the loop goroutine; only the loop
// ever has a probe in flight.
func (p *Poller) Register(ctx context.Context, deviceName string) error {
	err := p.client.Register(ctx, &domain.RegisterDeviceRequest{
		DeviceID:         p.cfg.DeviceID,
		DisplayID:        p.cfg.DisplayID,
		DeviceName:       deviceName,
		UserAgent:        p.cfg.UserAgent,
		ScreenResolution: p.cfg.ScreenResolution,
	})
	if err != nil {
		return err
	}

	select {
	case p.poke <- struct{}{}:
	default:
	}
	return nil
}

func (p *Poller) probeOnce(ctx context.Context) {
	resp, err := p.client.Probe(ctx, &domain.ProbeRequest{
		DeviceID:         p.cfg.DeviceID,
		DisplayID:        p.cfg.DisplayID,
		UserAgent:        p.cfg.UserAgent,
		ScreenResolution: p.cfg.ScreenResolution,
	})

	p.mu.Lock()
	prev := p.snap

	if err != nil {
		// Transient failure: keep the last known authorization and
		// registration state, surface the error separately.
		p.snap.IsLoading = false
		p.snap.Err = err
		p.mu.Unlock()
		logrus.Warnf("probe failed, keeping last known state (%s): %v", prev.Status, err)
		return
	}

	p.snap = Snapshot{
		IsAuthorized:      resp.Authorized,
		NeedsRegistration: resp.NeedsRegistration,
		Status:            resp.Status,
		DeviceName:        resp.DeviceName,
	}
	// NeedsRegistration is level-triggered so a failed registration
	// attempt gets another chance on the next probe.
	changed := p.snap.Status != prev.Status ||
		p.snap.IsAuthorized != prev.IsAuthorized ||
		p.snap.NeedsRegistration
	snap := p.snap
	p.mu.Unlock()

	if changed && p.cfg.OnChange != nil {
		p.cfg.OnChange(snap)
	}
}
