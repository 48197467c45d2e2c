// Package convcase reads and writes conv2d golden-case container files: a
// named convolution (shapes, parameters, per-channel quantization) together
// with its input, filter and bias tensors and the expected output tensor.
//
// File layout:
//
//	header   32 bytes: magic, version, metadata size, payload size, MD5
//	metadata protobuf wire format (see parser.go for field numbers)
//	payload  raw little-endian tensors: input, filter, bias, expected
package convcase

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
)

// Container format constants
const (
	CaseMagic      = 0x01464343 // "CCF\x01" in little-endian
	CaseVersion    = 1
	CaseHeaderSize = 32
	Md5Length      = 16
)

// Errors
var (
	ErrInvalidMagic       = errors.New("invalid case file magic number")
	ErrUnsupportedVersion = errors.New("unsupported case file version")
	ErrTruncatedHeader    = errors.New("truncated case file header")
	ErrInvalidChecksum    = errors.New("invalid case file checksum")
	ErrTruncatedData      = errors.New("truncated case file data")
	ErrInvalidMetadata    = errors.New("invalid case file metadata")
)

// Header represents the fixed-size case file header
type Header struct {
	Magic       uint32
	Version     uint32
	MetaSize    uint32
	PayloadSize uint32
	ExpectedMD5 [Md5Length]byte
}

// ParseHeader parses the case file header from raw bytes
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < CaseHeaderSize {
		return nil, ErrTruncatedHeader
	}
	header := &Header{
		Magic:       binary.LittleEndian.Uint32(data[0:4]),
		Version:     binary.LittleEndian.Uint32(data[4:8]),
		MetaSize:    binary.LittleEndian.Uint32(data[8:12]),
		PayloadSize: binary.LittleEndian.Uint32(data[12:16]),
	}
	copy(header.ExpectedMD5[:], data[16:32])

	if header.Magic != CaseMagic {
		return nil, fmt.Errorf("%w: got 0x%08X, expected 0x%08X", ErrInvalidMagic, header.Magic, CaseMagic)
	}
	if header.Version != CaseVersion {
		return nil, fmt.Errorf("%w: got V%d", ErrUnsupportedVersion, header.Version)
	}
	return header, nil
}

// Case is one named convolution test case: everything needed to run a
// convolution and check it against a golden output.
type Case struct {
	Name string

	Params conv.Params
	Quant  conv.PerChannelQuant

	InputShape  conv.Shape
	FilterShape conv.Shape
	OutputShape conv.Shape

	Input    []int8
	Filter   []int8
	Bias     []int32
	Expected []int8
}

// PayloadSize returns the raw tensor payload size in bytes
func (c *Case) PayloadSize() int {
	return c.InputShape.FlatSize() +
		c.FilterShape.FlatSize() +
		4*c.OutputShape.Channels +
		c.OutputShape.FlatSize()
}

// Validate checks that the case's buffers match its shapes
func (c *Case) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty case name", ErrInvalidMetadata)
	}
	if len(c.Input) != c.InputShape.FlatSize() {
		return fmt.Errorf("%w: input has %d elements, shape wants %d",
			ErrInvalidMetadata, len(c.Input), c.InputShape.FlatSize())
	}
	if len(c.Filter) != c.FilterShape.FlatSize() {
		return fmt.Errorf("%w: filter has %d elements, shape wants %d",
			ErrInvalidMetadata, len(c.Filter), c.FilterShape.FlatSize())
	}
	if len(c.Expected) != c.OutputShape.FlatSize() {
		return fmt.Errorf("%w: expected output has %d elements, shape wants %d",
			ErrInvalidMetadata, len(c.Expected), c.OutputShape.FlatSize())
	}
	if c.Bias != nil && len(c.Bias) != c.OutputShape.Channels {
		return fmt.Errorf("%w: bias has %d entries, output depth is %d",
			ErrInvalidMetadata, len(c.Bias), c.OutputShape.Channels)
	}
	if len(c.Quant.Multiplier) != c.OutputShape.Channels ||
		len(c.Quant.Shift) != c.OutputShape.Channels {
		return fmt.Errorf("%w: per-channel quant arrays do not match output depth",
			ErrInvalidMetadata)
	}
	return nil
}
