package util

// Chunk 按固定大小切分批次，保持原有顺序，最后一批可能不足 size
// size <= 0 时整体作为一个批次
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end:end])
	}
	return batches
}
