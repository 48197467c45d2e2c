package testutil

import (
	"fmt"
	"sync"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
)

// RecordingDevice wraps a cfu.Device and records every operation issued to
// it, for asserting the pipeline driver's ordering contract. It can also
// inject a failure on a named operation.
type RecordingDevice struct {
	mu      sync.Mutex
	inner   cfu.Device
	ops     []string
	failOn  string
	failErr error
}

// NewRecordingDevice wraps an inner device
func NewRecordingDevice(inner cfu.Device) *RecordingDevice {
	return &RecordingDevice{inner: inner}
}

// FailOn makes the named operation return err instead of reaching the inner
// device. An empty name disables injection.
func (d *RecordingDevice) FailOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failOn = op
	d.failErr = err
}

// Ops returns the recorded operation names in issue order
func (d *RecordingDevice) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.ops))
	copy(out, d.ops)
	return out
}

// ResetLog clears the recorded operations without touching device state
func (d *RecordingDevice) ResetLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = d.ops[:0]
}

func (d *RecordingDevice) record(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, op)
	if d.failOn != "" && d.failOn == op {
		if d.failErr != nil {
			return d.failErr
		}
		return fmt.Errorf("injected failure on %s", op)
	}
	return nil
}

func (d *RecordingDevice) Reset() error {
	if err := d.record("Reset"); err != nil {
		return err
	}
	return d.inner.Reset()
}

func (d *RecordingDevice) LoadInputOffset(offset int32) error {
	if err := d.record("LoadInputOffset"); err != nil {
		return err
	}
	return d.inner.LoadInputOffset(offset)
}

func (d *RecordingDevice) SetOutputOffsets(outputOffset, activationMin, activationMax int32) error {
	if err := d.record("SetOutputOffsets"); err != nil {
		return err
	}
	return d.inner.SetOutputOffsets(outputOffset, activationMin, activationMax)
}

func (d *RecordingDevice) LoadOutputParams(channelStart, channelCount int, bias, multiplier, shift []int32) error {
	if err := d.record("LoadOutputParams"); err != nil {
		return err
	}
	return d.inner.LoadOutputParams(channelStart, channelCount, bias, multiplier, shift)
}

func (d *RecordingDevice) LoadFilter(inputDepth, outputChannels int, weights []int8) error {
	if err := d.record("LoadFilter"); err != nil {
		return err
	}
	return d.inner.LoadFilter(inputDepth, outputChannels, weights)
}

func (d *RecordingDevice) LoadInput(inputWidth, inputDepth int, data []int8) error {
	if err := d.record("LoadInput"); err != nil {
		return err
	}
	return d.inner.LoadInput(inputWidth, inputDepth, data)
}

func (d *RecordingDevice) AdvanceFilterInput(iterations int) error {
	if err := d.record("AdvanceFilterInput"); err != nil {
		return err
	}
	return d.inner.AdvanceFilterInput(iterations)
}

func (d *RecordingDevice) MultiplyAccumulate() (int32, error) {
	if err := d.record("MultiplyAccumulate"); err != nil {
		return 0, err
	}
	return d.inner.MultiplyAccumulate()
}

func (d *RecordingDevice) PostProcess(acc int32) error {
	if err := d.record("PostProcess"); err != nil {
		return err
	}
	return d.inner.PostProcess(acc)
}

func (d *RecordingDevice) GetOutputWord() (uint32, error) {
	if err := d.record("GetOutputWord"); err != nil {
		return 0, err
	}
	return d.inner.GetOutputWord()
}
