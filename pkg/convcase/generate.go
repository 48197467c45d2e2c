package convcase

import (
	"math/rand"

	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
)

// Synthesize builds a deterministic case for the given shapes and
// parameters: pseudo-random tensors seeded from seed, per-channel
// requantization parameters, and a golden output computed through the
// reference path.
func Synthesize(name string, params conv.Params, inputShape, filterShape conv.Shape, seed int64) (*Case, error) {
	outputShape := conv.OutputShape(params, inputShape, filterShape)
	c := &Case{
		Name:        name,
		Params:      params,
		Quant:       synthQuant(outputShape.Channels, seed),
		InputShape:  inputShape,
		FilterShape: filterShape,
		OutputShape: outputShape,
		Input:       synthTensor(inputShape.FlatSize(), 32, seed+1),
		Filter:      synthTensor(filterShape.FlatSize(), 16, seed+2),
		Bias:        synthBias(outputShape.Channels, seed+3),
		Expected:    make([]int8, outputShape.FlatSize()),
	}
	err := conv.ConvPerChannelReference(c.Params, c.Quant,
		c.InputShape, c.Input, c.FilterShape, c.Filter, c.Bias,
		c.OutputShape, c.Expected)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// synthTensor fills a deterministic int8 tensor with values in
// [-limit, limit]
func synthTensor(n int, limit int, seed int64) []int8 {
	rng := rand.New(rand.NewSource(seed))
	data := make([]int8, n)
	for i := range data {
		data[i] = int8(rng.Intn(2*limit+1) - limit)
	}
	return data
}

// synthQuant builds varied per-channel multipliers in [2^30, 2^31) and
// small right shifts
func synthQuant(outputDepth int, seed int64) conv.PerChannelQuant {
	rng := rand.New(rand.NewSource(seed))
	q := conv.PerChannelQuant{
		Multiplier: make([]int32, outputDepth),
		Shift:      make([]int32, outputDepth),
	}
	for ch := 0; ch < outputDepth; ch++ {
		q.Multiplier[ch] = int32(1<<30) + rng.Int31n(1<<30)
		q.Shift[ch] = -(4 + rng.Int31n(4))
	}
	return q
}

// synthBias fills a deterministic bias tensor
func synthBias(outputDepth int, seed int64) []int32 {
	rng := rand.New(rand.NewSource(seed))
	bias := make([]int32, outputDepth)
	for i := range bias {
		bias[i] = rng.Int31n(2048) - 1024
	}
	return bias
}
