package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slefx/plumectl/pkg/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&PlumeInfo{},
	&Flight{},
	&Sample{},
	&RecorderPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// PlumeInfo identifies the recorder instance that owns the database
type PlumeInfo struct {
	gorm.Model
	InstanceName string `json:"instanceName" gorm:"size:127"`
	Version      string `json:"version" gorm:"size:64"`
}

func (*PlumeInfo) TableName() string {
	return "plume_infos"
}

// RecorderPerformance is the model for recorder throughput metrics
type RecorderPerformance struct {
	Time                time.Time `json:"time" gorm:"index:idx_perf_time"`
	FlightID            uint      `json:"flightId" gorm:"index:idx_perf_flight_id"`
	Flight              Flight    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:FlightID;"`
	QueueLength         int       `json:"queueLength"`
	SamplesWritten      int       `json:"samplesWritten"`
	LastWriteDurationMs float32   `json:"lastWriteDurationMs"`
}

func (*RecorderPerformance) TableName() string {
	return "recorder_performances"
}

////////////////////////
// RECORDING
////////////////////////

// Flight is one recording session
type Flight struct {
	gorm.Model
	Name      string       `json:"name" gorm:"size:200"`
	Vessel    string       `json:"vessel" gorm:"size:200"`
	StartTime time.Time    `json:"flightStart" gorm:"index:idx_flight_start"`
	EndTime   sql.NullTime `json:"flightEnd"`
	Version   string       `json:"version" gorm:"size:64"`
	// Track is the ground track of the vessel as an EPSG:3857 WKT line string
	Track string `json:"track"`

	Samples []Sample
}

func (*Flight) TableName() string {
	return "flights"
}

// Sample is one tick of one part
type Sample struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time      `json:"time"`
	FlightID    uint           `json:"flightId" gorm:"index:idx_sample_flight_id"`
	Flight      Flight         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:FlightID;"`
	PartID      string         `json:"partId" gorm:"size:128;index:idx_sample_part_id"`
	Kind        string         `json:"kind" gorm:"size:32"`
	MissionTime float32        `json:"missionTime" gorm:"index:idx_sample_mission_time"`
	Values      datatypes.JSON `json:"values"`
	Events      datatypes.JSON `json:"events"`
	Track       string         `json:"track" gorm:"size:255"` // EPSG:3857 WKT point, empty when unknown
}

func (*Sample) TableName() string {
	return "samples"
}

////////////////////////
// CONVERSION
////////////////////////

// FlightFromCore converts a core flight to its row.
func FlightFromCore(f core.Flight) Flight {
	row := Flight{
		Name:      f.Name,
		Vessel:    f.Vessel,
		StartTime: f.StartTime,
		Version:   f.Version,
	}
	row.ID = f.ID
	return row
}

// ToCore converts a row back to a core flight.
func (f Flight) ToCore() core.Flight {
	out := core.Flight{
		ID:        f.ID,
		Name:      f.Name,
		Vessel:    f.Vessel,
		StartTime: f.StartTime,
		Version:   f.Version,
		Track:     f.Track,
	}
	if f.EndTime.Valid {
		out.EndTime = f.EndTime.Time
	}
	return out
}

// SampleFromCore converts a core sample to its row, stamped with flightID.
func SampleFromCore(s core.Sample, flightID uint) (Sample, error) {
	values, err := json.Marshal(nonNil(s.Values))
	if err != nil {
		return Sample{}, fmt.Errorf("marshal values: %w", err)
	}
	events, err := json.Marshal(nonNil(s.Events))
	if err != nil {
		return Sample{}, fmt.Errorf("marshal events: %w", err)
	}
	return Sample{
		Time:        s.Time,
		FlightID:    flightID,
		PartID:      s.PartID,
		Kind:        string(s.Kind),
		MissionTime: s.MissionTime,
		Values:      datatypes.JSON(values),
		Events:      datatypes.JSON(events),
		Track:       s.Track,
	}, nil
}

// ToCore converts a row back to a core sample.
func (s Sample) ToCore() (core.Sample, error) {
	out := core.Sample{
		PartID:      s.PartID,
		Kind:        core.Kind(s.Kind),
		MissionTime: s.MissionTime,
		Time:        s.Time,
		Track:       s.Track,
	}
	if len(s.Values) > 0 {
		if err := json.Unmarshal(s.Values, &out.Values); err != nil {
			return core.Sample{}, fmt.Errorf("unmarshal values: %w", err)
		}
	}
	if len(s.Events) > 0 {
		if err := json.Unmarshal(s.Events, &out.Events); err != nil {
			return core.Sample{}, fmt.Errorf("unmarshal events: %w", err)
		}
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
