package semantic

// Default chunking configuration. Windows are character-based, not token-
// or sentence-aware: boundaries may split words. That is an accepted
// approximation carried over from the published retrieval behavior, since
// smarter chunking would change which chunks a query returns.
const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
)

// splitChunks cuts text into fixed-length windows of size characters,
// advancing size-overlap characters per step. The final chunk may be
// shorter than size. Empty text yields no chunks.
func splitChunks(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
