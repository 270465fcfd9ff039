package influxdb

import (
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rotblauer/gridmask/params"
)

// ComputeRecord is one mask computation worth of measurements.
type ComputeRecord struct {
	Time     time.Time
	Planar   bool
	Degraded bool
	Cells    int
	Inside   int
	Features int
	Vertices int
	Elapsed  time.Duration
}

// ExportCompute posts a compute record to an InfluxDB Write API.
// The last error encountered is returned.
func ExportCompute(rec ComputeRecord) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(params.INFLUXDB_URL, params.INFLUXDB_TOKEN, opts)
	writeAPI := client.WriteAPI(params.INFLUXDB_ORG, params.INFLUXDB_BUCKET)

	// Errors returns a channel for reading errors which occur during
	// async writes. Must be called before any writes, and drained, or
	// the writer will block.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	mode := "geodesic"
	if rec.Planar {
		mode = "planar"
	}
	p := influxdb2.NewPointWithMeasurement("gridmask_compute").
		SetTime(rec.Time).
		AddTag("mode", mode).
		AddField("cells", rec.Cells).
		AddField("inside", rec.Inside).
		AddField("features", rec.Features).
		AddField("vertices", rec.Vertices).
		AddField("elapsed_ms", rec.Elapsed.Milliseconds())
	if rec.Degraded {
		p.AddField("degraded", 1)
	}
	writeAPI.WritePoint(p)
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
