package analyzer

import "strings"

// MaxChunkSize is the character budget per analysis call.
const MaxChunkSize = 12000

// SplitTranscript splits a transcript into chunks of at most maxSize
// characters. It splits on blank lines first so speaker turns stay intact;
// a single oversized paragraph falls back to line splitting.
func SplitTranscript(transcript string, maxSize int) []string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil
	}
	if len(transcript) <= maxSize {
		return []string{transcript}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	add := func(part string) {
		if current.Len() > 0 && current.Len()+len(part)+2 > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(part)
	}

	for _, para := range strings.Split(transcript, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= maxSize {
			add(para)
			continue
		}
		// oversized paragraph: split on lines
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				add(line)
			}
		}
	}
	flush()
	return chunks
}
