package cfu

// Word packing for device transfers. All device data paths move 32-bit
// words holding 4 int8 elements, lowest-indexed element in the least
// significant byte - the same order the elements appear in memory on a
// little-endian host.

// PackWord packs 4 int8 elements into one transfer word
func PackWord(b0, b1, b2, b3 int8) uint32 {
	return uint32(uint8(b0)) |
		uint32(uint8(b1))<<8 |
		uint32(uint8(b2))<<16 |
		uint32(uint8(b3))<<24
}

// UnpackWord unpacks one transfer word into 4 int8 elements
func UnpackWord(w uint32) (int8, int8, int8, int8) {
	return int8(uint8(w)),
		int8(uint8(w >> 8)),
		int8(uint8(w >> 16)),
		int8(uint8(w >> 24))
}

// PackWords packs a slice of int8 elements into transfer words. The length
// of data must be a multiple of ChannelsPerWord.
func PackWords(data []int8) []uint32 {
	words := make([]uint32, len(data)/ChannelsPerWord)
	for i := range words {
		words[i] = PackWord(
			data[i*4], data[i*4+1], data[i*4+2], data[i*4+3])
	}
	return words
}

// UnpackWords unpacks transfer words into int8 elements, appending to dst
func UnpackWords(dst []int8, words []uint32) []int8 {
	for _, w := range words {
		b0, b1, b2, b3 := UnpackWord(w)
		dst = append(dst, b0, b1, b2, b3)
	}
	return dst
}

// FilterWordsPerOutputChannel returns the filter storage footprint of one
// output channel, in transfer words.
func FilterWordsPerOutputChannel(inputDepth int) int {
	return inputDepth * FilterHeight * FilterWidth / ChannelsPerWord
}

// InputWordsPerWindow returns the storage footprint of one 4x4xinputDepth
// input window, in transfer words.
func InputWordsPerWindow(inputDepth int) int {
	return inputDepth * FilterHeight * FilterWidth / ChannelsPerWord
}

// MaccIterations returns the number of multiply-accumulate iterations
// needed to cover one output channel's kernel against one input window.
func MaccIterations(inputDepth int) int {
	return FilterHeight * FilterWidth * inputDepth / MaccInputSize
}
