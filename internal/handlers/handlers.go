// Package handlers implements the host commands: flight lifecycle, part
// attachment, per-tick controller updates and host metrics.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slefx/plumectl/internal/api"
	"github.com/slefx/plumectl/internal/cache"
	"github.com/slefx/plumectl/internal/dispatcher"
	"github.com/slefx/plumectl/internal/geo"
	"github.com/slefx/plumectl/internal/influx"
	"github.com/slefx/plumectl/internal/mission"
	"github.com/slefx/plumectl/internal/parser"
	"github.com/slefx/plumectl/internal/part"
	"github.com/slefx/plumectl/internal/storage"
	"github.com/slefx/plumectl/pkg/core"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/slefx/plumectl/internal/handlers"

var (
	// ErrUnknownPart is returned for commands naming a part that is not attached.
	ErrUnknownPart = errors.New("unknown part")
	// ErrUnknownKind is returned by :ATTACH: for an unsupported module kind.
	ErrUnknownKind = errors.New("unknown module kind")
	// ErrNoInflux is returned by :METRIC: when influx is not configured.
	ErrNoInflux = errors.New("influx is not configured")
)

// Recorder queues samples for the storage backend.
type Recorder interface {
	Enqueue(s core.Sample)
	Flush() error
}

// MetricWriter receives host metrics.
type MetricWriter interface {
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Uploader posts an exported flight file.
type Uploader interface {
	Upload(path string, meta api.UploadMetadata) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Parser   *parser.Parser
	Parts    *cache.PartCache
	Links    *cache.LinkCache
	Backend  storage.Backend // optional
	Recorder Recorder        // optional
	Influx   MetricWriter    // optional
	Uploader Uploader        // optional
	// UploadTag is sent with every upload
	UploadTag string
	Logger    *slog.Logger
	Version   string
	// PartOptions is the template for every attached part; Logger and Link are set per part.
	PartOptions part.Options
	// Now defaults to time.Now
	Now func() time.Time
}

// Service provides handler methods for the host commands
type Service struct {
	deps Dependencies
	ctx  *mission.Context

	mu    sync.Mutex
	track *geo.Track

	ticks   metric.Int64Counter
	samples metric.Int64Counter
}

// NewService creates a new handler service
func NewService(deps Dependencies, ctx *mission.Context) (*Service, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	if deps.Parts == nil {
		deps.Parts = cache.NewPartCache()
	}
	if deps.Links == nil {
		deps.Links = cache.NewLinkCache()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if ctx == nil {
		ctx = mission.NewContext()
	}

	s := &Service{
		deps: deps,
		ctx:  ctx,
	}

	m := otel.Meter(instrumentationName)
	var err error
	s.ticks, err = m.Int64Counter(
		"handlers.ticks",
		metric.WithDescription("Ticks processed per module kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	s.samples, err = m.Int64Counter(
		"handlers.samples",
		metric.WithDescription("Samples queued for recording"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating samples counter: %w", err)
	}
	return s, nil
}

// Context returns the flight context
func (s *Service) Context() *mission.Context {
	return s.ctx
}

// Parts returns the attached parts
func (s *Service) Parts() *cache.PartCache {
	return s.deps.Parts
}

// RegisterHandlers registers all command handlers with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Flight lifecycle and attachment - sync, the host waits for the outcome
	d.Register(":FLIGHT:START:", s.handleFlightStart, dispatcher.Logged())
	d.Register(":FLIGHT:END:", s.handleFlightEnd, dispatcher.Logged())
	d.Register(":ATTACH:", s.handleAttach, dispatcher.Logged())
	d.Register(":DETACH:", s.handleDetach, dispatcher.Logged())

	// Ticks - sync, the reply carries the controller values
	d.Register(":TICK:", s.handleTick)

	d.Register(":METRIC:", s.handleMetric, dispatcher.Buffered(1000))
	d.Register(":VERSION:", func(dispatcher.Event) (any, error) {
		return s.deps.Version, nil
	})
}

func (s *Service) handleFlightStart(e dispatcher.Event) (any, error) {
	flight, err := s.deps.Parser.ParseFlightStart(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flight start: %w", err)
	}

	if s.ctx.Active() {
		s.deps.Logger.Warn("Flight started while another is open, ending it", "previous", s.ctx.Name())
		if _, err := s.endFlight(); err != nil {
			s.deps.Logger.Error("Failed to end previous flight", "error", err)
		}
	}

	flight.StartTime = s.deps.Now()
	flight.Version = s.deps.Version

	if s.deps.Backend != nil {
		if err := s.deps.Backend.StartFlight(&flight); err != nil {
			return nil, fmt.Errorf("failed to start flight %q: %w", flight.Name, err)
		}
	}

	s.mu.Lock()
	s.track = geo.NewTrack()
	s.mu.Unlock()
	s.ctx.SetFlight(&flight)

	s.deps.Logger.Info("Flight started", "flight", flight.Name, "vessel", flight.Vessel, "id", flight.ID)
	return nil, nil
}

func (s *Service) handleFlightEnd(e dispatcher.Event) (any, error) {
	if !s.ctx.Active() {
		return nil, storage.ErrNoFlight
	}
	path, err := s.endFlight()
	if err != nil {
		return nil, err
	}
	if path != "" {
		return path, nil
	}
	return nil, nil
}

// endFlight flushes pending samples, stamps the flight with its end time and
// ground track, closes it in the backend and detaches every part. It returns
// the exported file path when the backend wrote one for this flight.
func (s *Service) endFlight() (string, error) {
	flight := s.ctx.GetFlight()

	var errs []error
	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush samples: %w", err))
		}
	}

	s.mu.Lock()
	flight.EndTime = s.deps.Now()
	if s.track != nil {
		flight.Track = s.track.WKT()
	}
	s.track = nil
	s.mu.Unlock()

	var path string
	if s.deps.Backend != nil {
		if err := s.deps.Backend.EndFlight(); err != nil {
			errs = append(errs, fmt.Errorf("failed to end flight %q: %w", flight.Name, err))
		} else if exp, ok := s.deps.Backend.(storage.Exportable); ok {
			path = exp.ExportedFilePath()
		}
	}

	if path != "" && s.deps.Uploader != nil {
		s.upload(path, flight)
	}

	s.ctx.SetFlight(nil)
	s.deps.Parts.Reset()
	s.deps.Links.Reset()

	s.deps.Logger.Info("Flight ended", "flight", flight.Name, "export", path)
	return path, errors.Join(errs...)
}

// upload failures are logged; the export stays on disk.
func (s *Service) upload(path string, flight *core.Flight) {
	meta := api.UploadMetadata{
		FlightName: flight.Name,
		Vessel:     flight.Vessel,
		Duration:   flight.EndTime.Sub(flight.StartTime).Seconds(),
		Tag:        s.deps.UploadTag,
	}
	if err := s.deps.Uploader.Upload(path, meta); err != nil {
		s.deps.Logger.Error("Failed to upload flight export", "path", path, "error", err)
		return
	}
	s.deps.Logger.Info("Uploaded flight export", "path", path)
}

func (s *Service) handleAttach(e dispatcher.Event) (any, error) {
	a, err := s.deps.Parser.ParseAttach(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attach: %w", err)
	}
	if _, ok := core.ParseKind(string(a.Kind)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}

	opts := s.deps.PartOptions
	opts.Logger = s.deps.Logger
	if a.Kind == core.KindLiftoffProducer || a.Kind == core.KindLiftoffConsumer {
		var vessel string
		if f := s.ctx.GetFlight(); f != nil {
			vessel = f.Vessel
		}
		opts.Link = s.deps.Links.Get(vessel)
	}

	p, err := part.New(a.PartID, a.Kind, a.Controllers, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to attach part %s: %w", a.PartID, err)
	}
	if s.deps.Parts.Add(p) {
		s.deps.Logger.Warn("Part re-attached, previous module state dropped", "part", a.PartID)
	}
	s.deps.Logger.Debug("Part attached", "part", a.PartID, "kind", a.Kind, "controllers", a.Controllers)
	return nil, nil
}

func (s *Service) handleDetach(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseDetach(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse detach: %w", err)
	}
	if !s.deps.Parts.Delete(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPart, id)
	}
	return nil, nil
}

// handleTick runs one part's module and replies with [name, value, ...] of the
// controllers it set. While a flight is open the tick is also queued as a sample.
func (s *Service) handleTick(e dispatcher.Event) (any, error) {
	t, err := s.deps.Parser.ParseTick(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tick: %w", err)
	}
	p, ok := s.deps.Parts.Get(t.PartID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPart, t.PartID)
	}

	out := p.Tick(t)
	s.ticks.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", string(p.Kind()))))

	reply := make([]any, 0, 2*len(out.Pushed))
	for _, v := range out.Pushed {
		reply = append(reply, v.Name, v.Value)
	}

	if out.Updated && s.deps.Recorder != nil && s.ctx.Active() {
		s.deps.Recorder.Enqueue(s.sample(p, t, out))
		s.samples.Add(context.Background(), 1)
	}
	return reply, nil
}

func (s *Service) sample(p *part.Part, t parser.Tick, out part.Output) core.Sample {
	smp := core.Sample{
		PartID:      p.ID(),
		Kind:        p.Kind(),
		MissionTime: t.Telemetry.MissionTime,
		Time:        s.deps.Now(),
		Values:      out.Pushed,
		Events:      out.Events,
	}

	tel := t.Telemetry
	point, err := geo.TrackPoint(tel.Position, tel.BodyCenter, float64(tel.Altitude))
	if err != nil {
		return smp
	}
	smp.Track = point.AsText()

	s.mu.Lock()
	if s.track != nil {
		s.track.Add(point)
	}
	s.mu.Unlock()
	return smp
}

func (s *Service) handleMetric(e dispatcher.Event) (any, error) {
	if s.deps.Influx == nil {
		return nil, ErrNoInflux
	}
	bucket, point, err := influx.ParseMetric(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metric: %w", err)
	}
	if err := s.deps.Influx.WritePoint(bucket, point); err != nil {
		return nil, fmt.Errorf("failed to write metric: %w", err)
	}
	return nil, nil
}
