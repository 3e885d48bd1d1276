package codec

import (
	"github.com/squanchy11/cryptor/internal/flags"
)

// Phase is the field a Scanner is currently collecting.
type Phase int

const (
	PhaseDocument Phase = iota // Collecting the encrypted document, waiting for the document end marker.
	PhaseFilename              // Collecting the encrypted filename, waiting for the cipher end marker.
	PhaseDone                  // Both markers seen. Further bytes are ignored.
)

func (p Phase) String() string {
	switch p {
	case PhaseDocument:
		return "document"
	case PhaseFilename:
		return "filename"
	case PhaseDone:
		return "done"
	default:
		return "<unknown>"
	}
}

// Scanner splits a byte stream into the two marker-terminated fields of a frame.
//
// Matching progress falls back through a prefix table, so a partial match that fails part way never hides a
// real marker that started inside it.
type Scanner struct {
	markers  [2][]byte
	fallback [2][]int

	phase    Phase
	progress int
	fields   [2][]byte
}

// NewScanner returns a scanner in PhaseDocument for the given markers.
func NewScanner(markers flags.Pair) *Scanner {
	s := &Scanner{}
	s.markers[PhaseDocument] = markers.DocumentEnd
	s.markers[PhaseFilename] = markers.CipherEnd
	for i, m := range s.markers {
		s.fallback[i] = fallbackTable(m)
	}
	return s
}

// fallbackTable returns, for every prefix length i+1 of m, the length of the longest proper prefix of m that
// is also a suffix of m[:i+1].
func fallbackTable(m []byte) []int {
	t := make([]int, len(m))
	k := 0
	for i := 1; i < len(m); i++ {
		for k > 0 && m[i] != m[k] {
			k = t[k-1]
		}
		if m[i] == m[k] {
			k++
		}
		t[i] = k
	}
	return t
}

// Feed appends b to the current field and advances the marker match.
// It returns true once the cipher end marker has been seen.
func (s *Scanner) Feed(b byte) bool {
	if s.phase == PhaseDone {
		return true
	}

	m, t := s.markers[s.phase], s.fallback[s.phase]
	s.fields[s.phase] = append(s.fields[s.phase], b)

	for s.progress > 0 && b != m[s.progress] {
		s.progress = t[s.progress-1]
	}
	if b == m[s.progress] {
		s.progress++
	}
	if s.progress == len(m) {
		s.phase++
		s.progress = 0
	}
	return s.phase == PhaseDone
}

// Phase returns the field currently being collected.
func (s *Scanner) Phase() Phase {
	return s.phase
}

// Done reports whether both markers have been found.
func (s *Scanner) Done() bool {
	return s.phase == PhaseDone
}

// Document returns the bytes collected in PhaseDocument, trailing marker included.
func (s *Scanner) Document() []byte {
	return s.fields[PhaseDocument]
}

// Filename returns the bytes collected in PhaseFilename, trailing marker included.
func (s *Scanner) Filename() []byte {
	return s.fields[PhaseFilename]
}
