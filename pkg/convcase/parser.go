package convcase

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"os"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
)

// Parse parses a case file from a file path
func Parse(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a case file from raw bytes
func ParseBytes(data []byte) (*Case, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	metaStart := CaseHeaderSize
	metaEnd := metaStart + int(header.MetaSize)
	payloadEnd := metaEnd + int(header.PayloadSize)
	if payloadEnd > len(data) {
		return nil, fmt.Errorf("%w: sections exceed file size", ErrTruncatedData)
	}

	sum := md5.Sum(data[metaStart:payloadEnd])
	if !bytes.Equal(sum[:], header.ExpectedMD5[:]) {
		return nil, ErrInvalidChecksum
	}

	c := &Case{}
	hasBias, err := parseMetadata(c, data[metaStart:metaEnd])
	if err != nil {
		return nil, err
	}
	if err := parsePayload(c, hasBias, data[metaEnd:payloadEnd]); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// maxShapeDim bounds each tensor dimension. Far beyond any shape the device
// handles, and small enough that no FlatSize can overflow or go negative.
const maxShapeDim = 1 << 12

func parseShape(v []byte) (conv.Shape, error) {
	var dims [4]int
	for i := 0; i < 4; i++ {
		d, n := protowire.ConsumeVarint(v)
		if n < 0 {
			return conv.Shape{}, fmt.Errorf("%w: truncated shape", ErrInvalidMetadata)
		}
		if d == 0 || d > maxShapeDim {
			return conv.Shape{}, fmt.Errorf("%w: shape dimension %d out of range", ErrInvalidMetadata, d)
		}
		dims[i] = int(d)
		v = v[n:]
	}
	return conv.Shape{Batches: dims[0], Height: dims[1], Width: dims[2], Channels: dims[3]}, nil
}

func parseFixed32Slice(v []byte) ([]int32, error) {
	values := make([]int32, 0, len(v)/4)
	for len(v) > 0 {
		u, n := protowire.ConsumeFixed32(v)
		if n < 0 {
			return nil, fmt.Errorf("%w: truncated fixed32 slice", ErrInvalidMetadata)
		}
		values = append(values, int32(u))
		v = v[n:]
	}
	return values, nil
}

func parseParams(p *conv.Params, msg []byte) error {
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return fmt.Errorf("%w: bad params tag", ErrInvalidMetadata)
		}
		msg = msg[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return fmt.Errorf("%w: truncated params varint", ErrInvalidMetadata)
			}
			msg = msg[n:]
			switch num {
			case fieldPadding:
				p.Padding = conv.PaddingMode(v)
			case fieldPaddingHeight:
				p.PaddingHeight = int(v)
			case fieldPaddingWidth:
				p.PaddingWidth = int(v)
			case fieldStrideHeight:
				p.StrideHeight = int(v)
			case fieldStrideWidth:
				p.StrideWidth = int(v)
			case fieldDilationHeight:
				p.DilationHeight = int(v)
			case fieldDilationWidth:
				p.DilationWidth = int(v)
			}
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(msg)
			if n < 0 {
				return fmt.Errorf("%w: truncated params fixed32", ErrInvalidMetadata)
			}
			msg = msg[n:]
			switch num {
			case fieldInputOffset:
				p.InputOffset = int32(v)
			case fieldOutputOffset:
				p.OutputOffset = int32(v)
			case fieldActivationMin:
				p.ActivationMin = int32(v)
			case fieldActivationMax:
				p.ActivationMax = int32(v)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return fmt.Errorf("%w: bad params field", ErrInvalidMetadata)
			}
			msg = msg[n:]
		}
	}
	return nil
}

// parseMetadata decodes the metadata section into c, returning whether the
// payload carries a bias tensor
func parseMetadata(c *Case, meta []byte) (hasBias bool, err error) {
	for len(meta) > 0 {
		num, typ, n := protowire.ConsumeTag(meta)
		if n < 0 {
			return false, fmt.Errorf("%w: bad metadata tag", ErrInvalidMetadata)
		}
		meta = meta[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(meta)
			if n < 0 {
				return false, fmt.Errorf("%w: truncated metadata field", ErrInvalidMetadata)
			}
			meta = meta[n:]
			switch num {
			case fieldName:
				c.Name = string(v)
			case fieldInputShape:
				if c.InputShape, err = parseShape(v); err != nil {
					return false, err
				}
			case fieldFilterShape:
				if c.FilterShape, err = parseShape(v); err != nil {
					return false, err
				}
			case fieldOutputShape:
				if c.OutputShape, err = parseShape(v); err != nil {
					return false, err
				}
			case fieldParams:
				if err = parseParams(&c.Params, v); err != nil {
					return false, err
				}
			case fieldMultiplier:
				if c.Quant.Multiplier, err = parseFixed32Slice(v); err != nil {
					return false, err
				}
			case fieldShift:
				if c.Quant.Shift, err = parseFixed32Slice(v); err != nil {
					return false, err
				}
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(meta)
			if n < 0 {
				return false, fmt.Errorf("%w: truncated metadata varint", ErrInvalidMetadata)
			}
			meta = meta[n:]
			if num == fieldHasBias {
				hasBias = v != 0
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, meta)
			if n < 0 {
				return false, fmt.Errorf("%w: bad metadata field", ErrInvalidMetadata)
			}
			meta = meta[n:]
		}
	}
	return hasBias, nil
}

// parsePayload decodes the raw tensor payload section into c
func parsePayload(c *Case, hasBias bool, payload []byte) error {
	inputSize := c.InputShape.FlatSize()
	filterSize := c.FilterShape.FlatSize()
	biasSize := 4 * c.OutputShape.Channels
	expectedSize := c.OutputShape.FlatSize()
	if len(payload) != inputSize+filterSize+biasSize+expectedSize {
		return fmt.Errorf("%w: payload is %d bytes, shapes want %d",
			ErrTruncatedData, len(payload), inputSize+filterSize+biasSize+expectedSize)
	}

	c.Input = bytesToInt8(payload[:inputSize])
	payload = payload[inputSize:]
	c.Filter = bytesToInt8(payload[:filterSize])
	payload = payload[filterSize:]

	bias := make([]int32, c.OutputShape.Channels)
	for i := range bias {
		bias[i] = int32(binary.LittleEndian.Uint32(payload[i*4 : i*4+4]))
	}
	payload = payload[biasSize:]
	if hasBias {
		c.Bias = bias
	}

	c.Expected = bytesToInt8(payload)
	return nil
}

func bytesToInt8(b []byte) []int8 {
	out := make([]int8, len(b))
	for i, v := range b {
		out[i] = int8(v)
	}
	return out
}
