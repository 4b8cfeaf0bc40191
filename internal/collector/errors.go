package collector

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRetrieval matches every *RetrievalError via errors.Is.
	ErrRetrieval = errors.New("retrieval error")
	// ErrInvalidAsset is returned for an empty or malformed asset identifier.
	ErrInvalidAsset = errors.New("invalid asset id")
	// ErrInvalidLimit is returned for a listing size outside 1..250.
	ErrInvalidLimit = errors.New("invalid listing limit")
)

// RetrievalError reports a network failure, a non-2xx response, or a body
// that could not be decoded.
type RetrievalError struct {
	Op      string
	AssetID string
	Status  int // 0 when no response was received
	Err     error
}

func (e *RetrievalError) Error() string {
	var b strings.Builder
	b.WriteString("retrieve ")
	b.WriteString(e.Op)
	if e.AssetID != "" {
		b.WriteString(" ")
		b.WriteString(e.AssetID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	} else if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	return b.String()
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }

func validateAsset(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAsset)
	}
	if strings.ContainsAny(id, "/?#") {
		return fmt.Errorf("%w: %q", ErrInvalidAsset, id)
	}
	return nil
}
