package evaluation

// BlockSize is the number of sentences submitted per batch model call.
const BlockSize = 10

// ChunkSamples groups samples into full blocks of BlockSize in dataset
// order, assigning 1-based local ids. blockLimit caps the number of blocks
// when positive. A trailing remainder smaller than BlockSize is dropped so
// every block prompt carries exactly BlockSize sentences.
func ChunkSamples(samples []Sample, blockLimit int) [][]Sample {
	var blocks [][]Sample
	block := make([]Sample, 0, BlockSize)

	for _, sample := range samples {
		sample.LocalID = len(block) + 1
		block = append(block, sample)
		if len(block) == BlockSize {
			blocks = append(blocks, block)
			block = make([]Sample, 0, BlockSize)
			if blockLimit > 0 && len(blocks) >= blockLimit {
				break
			}
		}
	}

	return blocks
}
