//go:build linux

package cfu

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The CFU bridge exposes the accelerator register file through a small
// memory-mapped command window (a UIO region on the SoC):
//
//	0x00  CMD     write: register ID, bit 31 set for a read access
//	0x04  VALUE   write: operand for register writes
//	0x08  STATUS  read: 1 while the access is in flight, 0 when idle
//	0x0C  RESULT  read: result of the last read access
//
// Writing CMD starts the access; the bridge clears STATUS when the register
// file has consumed it.
const (
	mmioCmd    = 0x00
	mmioValue  = 0x04
	mmioStatus = 0x08
	mmioResult = 0x0C

	mmioCmdRead = 1 << 31

	mmioWindowSize = 4096

	// The bridge answers within a few bus cycles; a spin this long means
	// the gateware is not loaded or the clock is stopped.
	mmioSpinLimit = 1 << 24
)

// MmioDevice is a cfu.Device backed by a memory-mapped CFU register window
type MmioDevice struct {
	fd   int
	mem  []byte
	path string
	gen  Generation
}

// OpenMmio maps the CFU register window at the given UIO device path and
// verifies the register file responds.
func OpenMmio(path string, gen Generation) (*MmioDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		errno, ok := err.(unix.Errno)
		if ok && errno == unix.ENOENT {
			return nil, NewErrorWithCause(StatusNotFound, "opening CFU window "+path, err)
		}
		return nil, NewErrorWithCause(StatusDeviceFailure, "opening CFU window "+path, err)
	}
	mem, err := unix.Mmap(fd, 0, mmioWindowSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, NewErrorWithCause(StatusDeviceFailure, "mapping CFU window "+path, err)
	}

	d := &MmioDevice{fd: fd, mem: mem, path: path, gen: gen}
	v, err := d.readReg(gen.Registers.Verify)
	if err != nil {
		d.Close()
		return nil, err
	}
	if v != VerifyPattern {
		d.Close()
		return nil, NewError(StatusVerifyMismatch, "opening CFU window "+path)
	}
	return d, nil
}

// Close unmaps the register window and closes the device
func (d *MmioDevice) Close() error {
	if d.mem != nil {
		if err := unix.Munmap(d.mem); err != nil {
			return NewErrorWithCause(StatusDeviceFailure, "unmapping CFU window", err)
		}
		d.mem = nil
	}
	if d.fd >= 0 {
		err := unix.Close(d.fd)
		d.fd = -1
		if err != nil {
			return NewErrorWithCause(StatusDeviceFailure, "closing CFU window", err)
		}
	}
	return nil
}

// Path returns the device path
func (d *MmioDevice) Path() string {
	return d.path
}

func (d *MmioDevice) reg32(offset uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(&d.mem[offset]))
}

func (d *MmioDevice) waitIdle() error {
	for i := 0; i < mmioSpinLimit; i++ {
		if atomic.LoadUint32(d.reg32(mmioStatus)) == 0 {
			return nil
		}
	}
	return NewError(StatusDeviceFailure, "CFU bridge not responding")
}

func (d *MmioDevice) writeReg(reg uint32, value uint32) error {
	atomic.StoreUint32(d.reg32(mmioValue), value)
	atomic.StoreUint32(d.reg32(mmioCmd), reg)
	return d.waitIdle()
}

func (d *MmioDevice) readReg(reg uint32) (uint32, error) {
	atomic.StoreUint32(d.reg32(mmioCmd), reg|mmioCmdRead)
	if err := d.waitIdle(); err != nil {
		return 0, err
	}
	return atomic.LoadUint32(d.reg32(mmioResult)), nil
}

// Reset clears all device state
func (d *MmioDevice) Reset() error {
	return d.writeReg(d.gen.Registers.Reset, 1)
}

// LoadInputOffset loads the input zero-point offset
func (d *MmioDevice) LoadInputOffset(offset int32) error {
	return d.writeReg(d.gen.Registers.InputOffset, uint32(offset))
}

// SetOutputOffsets loads the output zero-point offset and activation clamp
func (d *MmioDevice) SetOutputOffsets(outputOffset, activationMin, activationMax int32) error {
	if err := d.writeReg(d.gen.Registers.OutputOffset, uint32(outputOffset)); err != nil {
		return err
	}
	if err := d.writeReg(d.gen.Registers.ActivationMin, uint32(activationMin)); err != nil {
		return err
	}
	return d.writeReg(d.gen.Registers.ActivationMax, uint32(activationMax))
}

// LoadOutputParams loads per-channel bias, multiplier and shift for one
// channel tile
func (d *MmioDevice) LoadOutputParams(channelStart, channelCount int, bias, multiplier, shift []int32) error {
	end := channelStart + channelCount
	if channelStart < 0 || channelCount <= 0 ||
		end > len(bias) || end > len(multiplier) || end > len(shift) {
		return NewError(StatusInvalidArgument, "bad output param range")
	}
	if err := d.writeReg(d.gen.Registers.ParamReset, uint32(channelCount)); err != nil {
		return err
	}
	for ch := channelStart; ch < end; ch++ {
		if err := d.writeReg(d.gen.Registers.OutputBias, uint32(bias[ch])); err != nil {
			return err
		}
		if err := d.writeReg(d.gen.Registers.OutputMult, uint32(multiplier[ch])); err != nil {
			return err
		}
		if err := d.writeReg(d.gen.Registers.OutputShift, uint32(shift[ch])); err != nil {
			return err
		}
	}
	return nil
}

// LoadFilter streams one channel tile's filter weights into the filter store
func (d *MmioDevice) LoadFilter(inputDepth, outputChannels int, weights []int8) error {
	words := outputChannels * FilterWordsPerOutputChannel(inputDepth)
	if words > d.gen.MaxFilterWords {
		return NewError(StatusCapacityExceeded, "filter load")
	}
	size := outputChannels * FilterHeight * FilterWidth * inputDepth
	if len(weights) < size {
		return NewError(StatusInvalidArgument, "filter buffer too small for load")
	}
	control := uint32(inputDepth)<<16 | uint32(outputChannels)
	if err := d.writeReg(d.gen.Registers.FilterControl, control); err != nil {
		return err
	}
	for _, w := range PackWords(weights[:size]) {
		if err := d.writeReg(d.gen.Registers.FilterWord, w); err != nil {
			return err
		}
	}
	return nil
}

// LoadInput streams one 4x4xinputDepth window into the input store
func (d *MmioDevice) LoadInput(inputWidth, inputDepth int, data []int8) error {
	if InputWordsPerWindow(inputDepth) > d.gen.MaxInputWords {
		return NewError(StatusCapacityExceeded, "input load")
	}
	rowStride := inputWidth * inputDepth
	rowLen := FilterWidth * inputDepth
	if len(data) < (FilterHeight-1)*rowStride+rowLen {
		return NewError(StatusInvalidArgument, "input buffer too small for window")
	}
	control := uint32(inputWidth)<<16 | uint32(inputDepth)
	if err := d.writeReg(d.gen.Registers.InputControl, control); err != nil {
		return err
	}
	for y := 0; y < FilterHeight; y++ {
		row := data[y*rowStride:]
		for _, w := range PackWords(row[:rowLen]) {
			if err := d.writeReg(d.gen.Registers.InputWord, w); err != nil {
				return err
			}
		}
	}
	return nil
}

// AdvanceFilterInput runs multiply-accumulate iterations
func (d *MmioDevice) AdvanceFilterInput(iterations int) error {
	if iterations < 1 {
		return NewError(StatusInvalidArgument, "iterations must be at least 1")
	}
	return d.writeReg(d.gen.Registers.Advance, uint32(iterations))
}

// MultiplyAccumulate returns the accumulator and resets it
func (d *MmioDevice) MultiplyAccumulate() (int32, error) {
	v, err := d.readReg(d.gen.Registers.MaccOut)
	return int32(v), err
}

// PostProcess routes an accumulator through the post-process unit
func (d *MmioDevice) PostProcess(acc int32) error {
	return d.writeReg(d.gen.Registers.PostProcess, uint32(acc))
}

// GetOutputWord drains one packed word from the output FIFO
func (d *MmioDevice) GetOutputWord() (uint32, error) {
	return d.readReg(d.gen.Registers.OutputWord)
}
