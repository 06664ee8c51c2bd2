// Package monitoring defines the error reporting hook used by the simulator.
package monitoring

import "time"

// Monitor reports errors and panics to an external service.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover must be deferred directly; it reports and re-panics.
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// Recorder keeps captured errors in memory. Used in tests.
type Recorder struct {
	Errors []error
	Tags   []map[string]string
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err)
	r.Tags = append(r.Tags, tags)
}

func (r *Recorder) Recover()            {}
func (r *Recorder) Flush(time.Duration) {}
