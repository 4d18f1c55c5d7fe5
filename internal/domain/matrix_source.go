package domain

import "fmt"

// MatrixSource identifies which strategy produced a distance matrix.
type MatrixSource int

const (
	SourceORS MatrixSource = iota + 1
	SourceAI
	SourceOSRM
	SourceGeometric
)

var matrixSourceNames = map[MatrixSource]string{
	SourceORS:       "ors",
	SourceAI:        "ai",
	SourceOSRM:      "osrm",
	SourceGeometric: "geometric",
}

func (s MatrixSource) String() string {
	if n, ok := matrixSourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("matrix_source(%d)", int(s))
}

func (s MatrixSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *MatrixSource) UnmarshalText(b []byte) error {
	v, err := ParseMatrixSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseMatrixSource(s string) (MatrixSource, error) {
	for src, name := range matrixSourceNames {
		if name == s {
			return src, nil
		}
	}
	return 0, fmt.Errorf("unknown matrix source %q", s)
}
