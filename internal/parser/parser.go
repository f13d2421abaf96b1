// Package parser converts raw host command arguments into core values.
// It performs no I/O and keeps no per-flight state.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/slefx/plumectl/internal/util"
	"github.com/slefx/plumectl/pkg/core"
)

var (
	// ErrInvalidVector is returned for malformed [x,y,z] or [x,y,z,w] arguments.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrArgCount is returned when a command receives the wrong number of arguments.
	ErrArgCount = errors.New("wrong argument count")
)

// Parser provides pure []string -> core value conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// clean strips host quoting from every argument in place.
func clean(data []string) {
	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(strings.TrimSpace(v)))
	}
}

func expectArgs(data []string, n int) error {
	if len(data) != n {
		return fmt.Errorf("%w: want %d, got %d", ErrArgCount, n, len(data))
	}
	return nil
}

func parseFloat32(s, field string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, fmt.Errorf("error converting %s to float: %w", field, err)
	}
	return float32(f), nil
}

func parseComponents(s string, n int) ([]float64, error) {
	items, ok := util.SplitList(s)
	if !ok || len(items) != n {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVector, s)
	}
	out := make([]float64, n)
	for i, it := range items {
		f, err := strconv.ParseFloat(it, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVector, s, err)
		}
		out[i] = f
	}
	return out, nil
}

// ParseVec3d parses "[x,y,z]" at double precision.
func ParseVec3d(s string) (mgl64.Vec3, error) {
	c, err := parseComponents(s, 3)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return mgl64.Vec3{c[0], c[1], c[2]}, nil
}

// ParseVec3 parses "[x,y,z]".
func ParseVec3(s string) (mgl32.Vec3, error) {
	c, err := parseComponents(s, 3)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}, nil
}

// ParseQuat parses "[x,y,z,w]".
func ParseQuat(s string) (mgl32.Quat, error) {
	c, err := parseComponents(s, 4)
	if err != nil {
		return mgl32.Quat{}, err
	}
	return mgl32.Quat{W: float32(c[3]), V: mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}}, nil
}

// ParseFlightStart parses [name, vessel].
func (p *Parser) ParseFlightStart(data []string) (core.Flight, error) {
	var flight core.Flight
	if err := expectArgs(data, 2); err != nil {
		return flight, err
	}
	clean(data)
	if data[0] == "" {
		return flight, fmt.Errorf("flight name is empty")
	}
	flight.Name = data[0]
	flight.Vessel = data[1]
	return flight, nil
}

// ParseAttach parses [partID, kind, controllerNames].
func (p *Parser) ParseAttach(data []string) (Attach, error) {
	var a Attach
	if err := expectArgs(data, 3); err != nil {
		return a, err
	}
	clean(data)

	if data[0] == "" {
		return a, fmt.Errorf("part id is empty")
	}
	a.PartID = data[0]
	a.Kind = core.Kind(data[1])

	names, ok := util.SplitList(data[2])
	if !ok {
		return a, fmt.Errorf("error parsing controller names %q", data[2])
	}
	a.Controllers = names
	return a, nil
}

// ParseDetach parses [partID].
func (p *Parser) ParseDetach(data []string) (string, error) {
	if err := expectArgs(data, 1); err != nil {
		return "", err
	}
	clean(data)
	return data[0], nil
}

// tick argument positions
const (
	argPart = iota
	argMissionTime
	argDeltaTime
	argPosition
	argVelocity
	argBodyCenter
	argAltitude
	argSurfaceSpeed
	argPartPosition
	argPartRotation
	argTT10
	argTT11
	argTT12
	argTT13
	argEngines
	tickArgs
)

// ParseTick parses the per-tick telemetry of one part. A lone part id means the
// host has no active vessel this tick.
func (p *Parser) ParseTick(data []string) (Tick, error) {
	var tick Tick
	if len(data) != 1 {
		if err := expectArgs(data, tickArgs); err != nil {
			return tick, err
		}
	}
	clean(data)

	tick.PartID = data[argPart]
	if tick.PartID == "" {
		return tick, fmt.Errorf("part id is empty")
	}
	if len(data) == 1 {
		return tick, nil
	}
	tick.Active = true

	var err error
	tel := &tick.Telemetry
	if tel.MissionTime, err = parseFloat32(data[argMissionTime], "missionTime"); err != nil {
		return tick, err
	}
	if tel.DeltaTime, err = parseFloat32(data[argDeltaTime], "dt"); err != nil {
		return tick, err
	}
	if tel.Position, err = ParseVec3d(data[argPosition]); err != nil {
		return tick, fmt.Errorf("error parsing position: %w", err)
	}
	if tel.Velocity, err = ParseVec3(data[argVelocity]); err != nil {
		return tick, fmt.Errorf("error parsing velocity: %w", err)
	}
	if tel.BodyCenter, err = ParseVec3d(data[argBodyCenter]); err != nil {
		return tick, fmt.Errorf("error parsing body center: %w", err)
	}
	if tel.Altitude, err = parseFloat32(data[argAltitude], "altitude"); err != nil {
		return tick, err
	}
	if tel.SurfaceSpeed, err = parseFloat32(data[argSurfaceSpeed], "surfaceSpeed"); err != nil {
		return tick, err
	}

	if tick.Pose.Position, err = ParseVec3d(data[argPartPosition]); err != nil {
		return tick, fmt.Errorf("error parsing part position: %w", err)
	}
	if tick.Pose.Rotation, err = ParseQuat(data[argPartRotation]); err != nil {
		return tick, fmt.Errorf("error parsing part rotation: %w", err)
	}

	for ref := core.Reference(0); ref < core.ReferenceCount; ref++ {
		raw := data[argTT10+int(ref)]
		if raw == "" {
			continue
		}
		fwd, err := ParseVec3(raw)
		if err != nil {
			return tick, fmt.Errorf("error parsing %s: %w", ref.Signal(), err)
		}
		tick.References[ref] = Reference{Forward: fwd, Present: true}
	}

	if tick.Engines, err = parseEngines(data[argEngines]); err != nil {
		return tick, err
	}

	return tick, nil
}

func parseEngines(s string) ([]core.EngineStatus, error) {
	items, ok := util.SplitList(s)
	if !ok {
		return nil, fmt.Errorf("error parsing engines %q", s)
	}
	engines := make([]core.EngineStatus, 0, len(items))
	for _, it := range items {
		fields, ok := util.SplitList(it)
		if !ok || len(fields) != 4 {
			return nil, fmt.Errorf("error parsing engine %q", it)
		}
		ignited, err := strconv.ParseBool(fields[1])
		if err != nil {
			return nil, fmt.Errorf("error converting engine ignited to bool: %w", err)
		}
		throttle, err := parseFloat32(fields[2], "engine throttle")
		if err != nil {
			return nil, err
		}
		thrust, err := parseFloat32(fields[3], "engine thrust")
		if err != nil {
			return nil, err
		}
		engines = append(engines, core.EngineStatus{
			ID:          core.EngineID(fields[0]),
			Ignited:     ignited,
			Throttle:    throttle,
			FinalThrust: thrust,
		})
	}
	return engines, nil
}
