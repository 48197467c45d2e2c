// Package harness drives a single convolution case end to end: stage the
// input into a scratch arena, run the convolution through the dispatcher,
// diff every output element against the golden tensor and report. This is
// the acceptance surface for the whole acceleration core.
package harness

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
	"github.com/emergingrobotics/go-hps-accel/pkg/convcase"
)

// DumpWords is how many output words the mismatch dump shows
const DumpWords = 32

// Result reports the outcome of one case run
type Result struct {
	Name        string
	Accelerated bool
	Mismatches  int
}

// Pass reports whether the output matched the golden tensor exactly
func (r *Result) Pass() bool {
	return r.Mismatches == 0
}

// Run executes one case against the given device and reports the diff
// against the golden output. A numeric mismatch is a reported failure, not
// an error; the error return covers engine and staging faults only.
func Run(w io.Writer, dev cfu.Device, gen cfu.Generation, c *convcase.Case) (*Result, error) {
	fmt.Fprintf(w, "Testing Conv2D %s\n", c.Name)

	inputSize := c.InputShape.FlatSize()
	outputSize := c.OutputShape.FlatSize()
	arena, err := NewArena(inputSize + outputSize)
	if err != nil {
		return nil, fmt.Errorf("arena allocation: %w", err)
	}
	defer arena.Release()

	// Stage the input into the arena; the output lands right after it.
	scratch := arena.Bytes()
	input := unsafe.Slice((*int8)(unsafe.Pointer(&scratch[0])), inputSize)
	copy(input, c.Input)
	output := unsafe.Slice((*int8)(unsafe.Pointer(&scratch[inputSize])), outputSize)

	accelerated, err := conv.ConvPerChannel(dev, gen, c.Params, c.Quant,
		c.InputShape, input, c.FilterShape, c.Filter, c.Bias,
		c.OutputShape, output)
	if err != nil {
		return nil, err
	}

	result := &Result{Name: c.Name, Accelerated: accelerated}
	for i := 0; i < outputSize; i++ {
		if output[i] != c.Expected[i] {
			result.Mismatches++
		}
	}

	if result.Mismatches > 0 {
		dumpWordDiff(w, output, c.Expected)
		fmt.Fprintf(w, "FAIL - %d differences\n", result.Mismatches)
	} else {
		fmt.Fprintf(w, "OK - output identical to golden output\n")
	}
	return result, nil
}

// dumpWordDiff prints output words against expected words. A '*' marks a
// mismatched word; a '!' marks a word equal to the expected word one channel
// group earlier, which is the signature of an off-by-one-channel-group
// misalignment. The '!' is diagnostic only.
func dumpWordDiff(w io.Writer, output, expected []int8) {
	outputWords := packWords(output)
	expectedWords := packWords(expected)
	n := DumpWords
	if len(outputWords) < n {
		n = len(outputWords)
	}
	fmt.Fprintf(w, "word |  output  | expected |\n")
	for i := 0; i < n; i++ {
		mismatch := ""
		if expectedWords[i] != outputWords[i] {
			mismatch = "*"
		}
		shifted := ""
		if i >= 4 && expectedWords[i-4] == outputWords[i] {
			shifted = "!"
		}
		fmt.Fprintf(w, "%04x | %08x | %08x | %s%s\n",
			i, outputWords[i], expectedWords[i], mismatch, shifted)
	}
}

func packWords(data []int8) []uint32 {
	n := len(data) / cfu.ChannelsPerWord * cfu.ChannelsPerWord
	return cfu.PackWords(data[:n])
}
