package db

import (
	"math"
	"strings"
	"testing"
)

func TestToVectorLiteral(t *testing.T) {
	t.Parallel()

	values := make([]float64, VectorDimensions)
	values[0] = 0.25
	values[1] = -1
	values[VectorDimensions-1] = 0.5

	literal, err := ToVectorLiteral(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(literal, "[0.25,-1,") {
		t.Fatalf("unexpected literal prefix: %q", literal[:20])
	}
	if !strings.HasSuffix(literal, ",0.5]") {
		t.Fatalf("unexpected literal suffix: %q", literal[len(literal)-10:])
	}
	if got := strings.Count(literal, ","); got != VectorDimensions-1 {
		t.Fatalf("expected %d separators, got %d", VectorDimensions-1, got)
	}
}

func TestToVectorLiteralRejectsWrongDimensions(t *testing.T) {
	t.Parallel()

	if _, err := ToVectorLiteral(make([]float64, 3)); err == nil {
		t.Fatalf("expected error for wrong dimension count")
	}
}

func TestToVectorLiteralRejectsNonFiniteValues(t *testing.T) {
	t.Parallel()

	values := make([]float64, VectorDimensions)
	values[7] = math.NaN()
	if _, err := ToVectorLiteral(values); err == nil {
		t.Fatalf("expected error for NaN value")
	}

	values[7] = math.Inf(1)
	if _, err := ToVectorLiteral(values); err == nil {
		t.Fatalf("expected error for Inf value")
	}
}
