package cfu

// CFU register IDs - must match the register file in the gen1 gateware.
// Each device operation is a write to (or read from) one of these registers.
const (
	RegReset          = 0  // write: clear all device state
	RegInputOffset    = 1  // write: input zero-point offset
	RegOutputOffset   = 2  // write: output zero-point offset
	RegActivationMin  = 3  // write: activation clamp minimum
	RegActivationMax  = 4  // write: activation clamp maximum
	RegFilterControl  = 5  // write: input depth (hi 16) | output channels (lo 16)
	RegFilterWord     = 6  // write: next packed filter word
	RegInputControl   = 7  // write: input width (hi 16) | input depth (lo 16)
	RegInputWord      = 8  // write: next packed input word
	RegParamReset     = 9  // write: restart output param loading
	RegOutputBias     = 10 // write: next per-channel bias
	RegOutputMult     = 11 // write: next per-channel multiplier
	RegOutputShift    = 12 // write: next per-channel shift
	RegAdvance        = 13 // write: run N multiply-accumulate iterations
	RegMaccOut        = 14 // read: accumulator value, resets accumulator
	RegPostProcess    = 15 // write: post-process an accumulator value
	RegOutputWord     = 16 // read: next packed word from the output FIFO
	RegVerify         = 17 // read: register file self-check value
)

// Gen2 register IDs. The gen2 gateware widened the register file and moved
// the run/drain registers; capacities also differ (see Gen2 below).
const (
	Gen2RegReset         = 0
	Gen2RegInputOffset   = 2
	Gen2RegOutputOffset  = 3
	Gen2RegActivationMin = 4
	Gen2RegActivationMax = 5
	Gen2RegFilterControl = 8
	Gen2RegFilterWord    = 9
	Gen2RegInputControl  = 10
	Gen2RegInputWord     = 11
	Gen2RegParamReset    = 12
	Gen2RegOutputBias    = 13
	Gen2RegOutputMult    = 14
	Gen2RegOutputShift   = 15
	Gen2RegAdvance       = 20
	Gen2RegMaccOut       = 21
	Gen2RegPostProcess   = 22
	Gen2RegOutputWord    = 24
	Gen2RegVerify        = 31
)

// VerifyPattern is the value the verify register reads back on a healthy
// register file.
const VerifyPattern = 0x1DEA4CF1

// Fixed geometry of the accelerated convolution. The pipeline is physically
// wired for a 4x4 kernel window and 4-channel word packing.
const (
	FilterHeight    = 4
	FilterWidth     = 4
	ChannelsPerWord = 4 // int8 elements packed per 32-bit transfer word
	MaccInputSize   = 16 // int8 elements consumed per multiply-accumulate iteration
)

// RegisterMap holds the register bindings for one gateware generation.
type RegisterMap struct {
	Reset         uint32
	InputOffset   uint32
	OutputOffset  uint32
	ActivationMin uint32
	ActivationMax uint32
	FilterControl uint32
	FilterWord    uint32
	InputControl  uint32
	InputWord     uint32
	ParamReset    uint32
	OutputBias    uint32
	OutputMult    uint32
	OutputShift   uint32
	Advance       uint32
	MaccOut       uint32
	PostProcess   uint32
	OutputWord    uint32
	Verify        uint32
}

// Generation describes one gateware revision: its on-chip capacities and
// register bindings. The eligibility check, tiling and pipeline driver are
// all parameterized by a Generation rather than compiled per revision.
type Generation struct {
	Name           string
	MaxFilterWords int // filter storage capacity, in 32-bit words
	MaxInputWords  int // input window storage capacity, in 32-bit words
	Registers      RegisterMap
}

// Gen1 is the original gateware: four filter stores of 512 words each and a
// single 512-word input window store.
var Gen1 = Generation{
	Name:           "gen1",
	MaxFilterWords: 2048,
	MaxInputWords:  512,
	Registers: RegisterMap{
		Reset:         RegReset,
		InputOffset:   RegInputOffset,
		OutputOffset:  RegOutputOffset,
		ActivationMin: RegActivationMin,
		ActivationMax: RegActivationMax,
		FilterControl: RegFilterControl,
		FilterWord:    RegFilterWord,
		InputControl:  RegInputControl,
		InputWord:     RegInputWord,
		ParamReset:    RegParamReset,
		OutputBias:    RegOutputBias,
		OutputMult:    RegOutputMult,
		OutputShift:   RegOutputShift,
		Advance:       RegAdvance,
		MaccOut:       RegMaccOut,
		PostProcess:   RegPostProcess,
		OutputWord:    RegOutputWord,
		Verify:        RegVerify,
	},
}

// Gen2 doubles the filter and input stores.
var Gen2 = Generation{
	Name:           "gen2",
	MaxFilterWords: 4096,
	MaxInputWords:  1024,
	Registers: RegisterMap{
		Reset:         Gen2RegReset,
		InputOffset:   Gen2RegInputOffset,
		OutputOffset:  Gen2RegOutputOffset,
		ActivationMin: Gen2RegActivationMin,
		ActivationMax: Gen2RegActivationMax,
		FilterControl: Gen2RegFilterControl,
		FilterWord:    Gen2RegFilterWord,
		InputControl:  Gen2RegInputControl,
		InputWord:     Gen2RegInputWord,
		ParamReset:    Gen2RegParamReset,
		OutputBias:    Gen2RegOutputBias,
		OutputMult:    Gen2RegOutputMult,
		OutputShift:   Gen2RegOutputShift,
		Advance:       Gen2RegAdvance,
		MaccOut:       Gen2RegMaccOut,
		PostProcess:   Gen2RegPostProcess,
		OutputWord:    Gen2RegOutputWord,
		Verify:        Gen2RegVerify,
	},
}
