package convcase

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"os"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
)

// Metadata field numbers (protobuf wire format)
const (
	fieldName        = 1 // bytes
	fieldInputShape  = 2 // packed varint: batches, height, width, channels
	fieldFilterShape = 3 // packed varint
	fieldOutputShape = 4 // packed varint
	fieldParams      = 5 // submessage
	fieldMultiplier  = 6 // packed fixed32, one per output channel
	fieldShift       = 7 // packed fixed32, one per output channel
	fieldHasBias     = 8 // varint bool
)

// Params submessage field numbers
const (
	fieldPadding        = 1  // varint
	fieldPaddingHeight  = 2  // varint
	fieldPaddingWidth   = 3  // varint
	fieldStrideHeight   = 4  // varint
	fieldStrideWidth    = 5  // varint
	fieldDilationHeight = 6  // varint
	fieldDilationWidth  = 7  // varint
	fieldInputOffset    = 8  // fixed32 (two's complement)
	fieldOutputOffset   = 9  // fixed32
	fieldActivationMin  = 10 // fixed32
	fieldActivationMax  = 11 // fixed32
)

func appendShape(b []byte, field protowire.Number, s conv.Shape) []byte {
	var packed []byte
	packed = protowire.AppendVarint(packed, uint64(s.Batches))
	packed = protowire.AppendVarint(packed, uint64(s.Height))
	packed = protowire.AppendVarint(packed, uint64(s.Width))
	packed = protowire.AppendVarint(packed, uint64(s.Channels))
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func appendParams(b []byte, p conv.Params) []byte {
	var msg []byte
	msg = protowire.AppendTag(msg, fieldPadding, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(p.Padding))
	msg = protowire.AppendTag(msg, fieldPaddingHeight, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(p.PaddingHeight))
	msg = protowire.AppendTag(msg, fieldPaddingWidth, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(p.PaddingWidth))
	msg = protowire.AppendTag(msg, fieldStrideHeight, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(p.StrideHeight))
	msg = protowire.AppendTag(msg, fieldStrideWidth, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(p.StrideWidth))
	msg = protowire.AppendTag(msg, fieldDilationHeight, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(p.DilationHeight))
	msg = protowire.AppendTag(msg, fieldDilationWidth, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(p.DilationWidth))
	msg = protowire.AppendTag(msg, fieldInputOffset, protowire.Fixed32Type)
	msg = protowire.AppendFixed32(msg, uint32(p.InputOffset))
	msg = protowire.AppendTag(msg, fieldOutputOffset, protowire.Fixed32Type)
	msg = protowire.AppendFixed32(msg, uint32(p.OutputOffset))
	msg = protowire.AppendTag(msg, fieldActivationMin, protowire.Fixed32Type)
	msg = protowire.AppendFixed32(msg, uint32(p.ActivationMin))
	msg = protowire.AppendTag(msg, fieldActivationMax, protowire.Fixed32Type)
	msg = protowire.AppendFixed32(msg, uint32(p.ActivationMax))

	b = protowire.AppendTag(b, fieldParams, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendFixed32Slice(b []byte, field protowire.Number, values []int32) []byte {
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendFixed32(packed, uint32(v))
	}
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// encodeMetadata encodes the case metadata section
func encodeMetadata(c *Case) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldName, protowire.BytesType)
	b = protowire.AppendString(b, c.Name)
	b = appendShape(b, fieldInputShape, c.InputShape)
	b = appendShape(b, fieldFilterShape, c.FilterShape)
	b = appendShape(b, fieldOutputShape, c.OutputShape)
	b = appendParams(b, c.Params)
	b = appendFixed32Slice(b, fieldMultiplier, c.Quant.Multiplier)
	b = appendFixed32Slice(b, fieldShift, c.Quant.Shift)
	b = protowire.AppendTag(b, fieldHasBias, protowire.VarintType)
	if c.Bias != nil {
		b = protowire.AppendVarint(b, 1)
	} else {
		b = protowire.AppendVarint(b, 0)
	}
	return b
}

// encodePayload encodes the raw tensor payload section
func encodePayload(c *Case) []byte {
	payload := make([]byte, 0, c.PayloadSize())
	for _, v := range c.Input {
		payload = append(payload, byte(v))
	}
	for _, v := range c.Filter {
		payload = append(payload, byte(v))
	}
	bias := c.Bias
	if bias == nil {
		bias = make([]int32, c.OutputShape.Channels)
	}
	for _, v := range bias {
		payload = binary.LittleEndian.AppendUint32(payload, uint32(v))
	}
	for _, v := range c.Expected {
		payload = append(payload, byte(v))
	}
	return payload
}

// Encode serializes a case into the container format
func Encode(c *Case) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	meta := encodeMetadata(c)
	payload := encodePayload(c)

	out := make([]byte, CaseHeaderSize, CaseHeaderSize+len(meta)+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], CaseMagic)
	binary.LittleEndian.PutUint32(out[4:8], CaseVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(meta)))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(payload)))

	sum := md5.New()
	sum.Write(meta)
	sum.Write(payload)
	copy(out[16:32], sum.Sum(nil))

	out = append(out, meta...)
	out = append(out, payload...)
	return out, nil
}

// WriteFile serializes a case and writes it to path
func WriteFile(path string, c *Case) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write case file: %w", err)
	}
	return nil
}
