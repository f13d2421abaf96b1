package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/slefx/plumectl/internal/config"
	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachable(dir string) config.InfluxConfig {
	return config.InfluxConfig{
		Enabled:   true,
		Host:      "127.0.0.1",
		Port:      "1",
		Protocol:  "http",
		Org:       "plumectl",
		Bucket:    "plume_controllers",
		BackupDir: dir,
	}
}

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	return string(data)
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.Active())
	assert.NoError(t, m.Close())
}

func TestNewManager_Buckets(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Bucket: "plume_controllers", BackupDir: "logs"})
	assert.Equal(t, []string{"plume_controllers", PerformanceBucket}, m.BucketNames)
	assert.Equal(t, filepath.Join("logs", BackupFileName), m.BackupPath)
}

func TestConnect_UnreachableFallsBackToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backup")
	m := NewManager(zerolog.Nop(), unreachable(dir))

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	assert.True(t, m.Active())

	s := &core.Sample{
		PartID:      "booster",
		Kind:        core.KindLanding,
		MissionTime: 12.5,
		Time:        time.Unix(1700000000, 0),
		Values:      []core.NamedValue{{Name: "downdown", Value: 1}},
	}
	require.NoError(t, m.WriteSample("CRS-30", s))
	require.NoError(t, m.WriteRecorderStats(3, 10, 20*time.Millisecond))
	require.NoError(t, m.Close())

	out := readBackup(t, m.BackupPath)
	assert.Contains(t, out, "controllers,")
	assert.Contains(t, out, "part=booster")
	assert.Contains(t, out, "kind=landing")
	assert.Contains(t, out, "flight=CRS-30")
	assert.Contains(t, out, "downdown=1")
	assert.Contains(t, out, "1700000000000000000")
	assert.Contains(t, out, "recorder ")
	assert.Contains(t, out, "queue_length=3i")
}

func TestWritePoint_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})
	err := m.WritePoint("any", influxdb2_write.NewPointWithMeasurement("x").AddField("v", 1))
	assert.Error(t, err)
}

func TestSamplePoint(t *testing.T) {
	s := &core.Sample{
		PartID: "pad",
		Kind:   core.KindDeluge,
		Values: []core.NamedValue{{Name: "deluge", Value: 0.75}},
	}

	p := SamplePoint("", s)
	assert.Equal(t, ControllersMeasurement, p.Name())
	assert.False(t, p.Time().IsZero())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"part": "pad", "kind": "deluge"}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.InDelta(t, 0.75, fields["deluge"], 1e-6)
	assert.Contains(t, fields, "mission_time")
}

func TestParseMetric(t *testing.T) {
	bucket, point, err := ParseMetric([]string{
		"plumectl_performance", "host_fps",
		"tag::world::kerbin",
		"field::float::fps::59.5",
		"field::int::parts::12",
		"field::string::scene::flight",
	})
	require.NoError(t, err)
	assert.Equal(t, "plumectl_performance", bucket)
	assert.Equal(t, "host_fps", point.Name())

	fields := map[string]any{}
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, 59.5, fields["fps"])
	assert.Equal(t, int64(12), fields["parts"])
	assert.Equal(t, "flight", fields["scene"])
	require.Len(t, point.TagList(), 1)
	assert.Equal(t, "kerbin", point.TagList()[0].Value)
}

func TestParseMetric_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []string
	}{
		{"too few", []string{"b", "m"}},
		{"no fields", []string{"b", "m", "tag::a::b"}},
		{"bad int", []string{"b", "m", "field::int::n::x"}},
		{"bad float", []string{"b", "m", "field::float::n::x"}},
		{"unknown type", []string{"b", "m", "field::bool::n::true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseMetric(tt.data)
			assert.Error(t, err)
		})
	}
}
