package sweep

// Block is the half-open depth index range [Start, End) owned by a worker.
type Block struct {
	Start, End int
}

func (b Block) Len() int { return b.End - b.Start }

// ClampWorkers limits the worker count to the number of depth points. The
// second result reports whether the request was reduced.
func ClampWorkers(requested, depths int) (int, bool) {
	if requested < 1 {
		requested = 1
	}
	if depths > 0 && requested > depths {
		return depths, true
	}
	return requested, false
}

// Partition splits n points into contiguous blocks for the given number of
// workers. Block i gets ceil(remaining / remaining workers) points, so sizes
// differ by at most one and the blocks cover [0, n) exactly once.
func Partition(n, workers int) []Block {
	if n <= 0 {
		return nil
	}
	workers, _ = ClampWorkers(workers, n)

	blocks := make([]Block, 0, workers)
	start := 0
	for i := 0; i < workers; i++ {
		left := workers - i
		size := (n - start + left - 1) / left
		blocks = append(blocks, Block{Start: start, End: start + size})
		start += size
	}
	return blocks
}
