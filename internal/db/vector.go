package db

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dano.kr/youthscope/internal/config"
)

// VectorDimensions is the width of the pgvector columns on notices and
// policies. It must match the embedding provider's outputDimensionality.
const VectorDimensions = config.EmbeddingVectorDimensions

// ToVectorLiteral renders an embedding as the pgvector text literal
// "[v1,v2,...]" so it can be passed as a $n::vector parameter.
func ToVectorLiteral(values []float64) (string, error) {
	if len(values) != VectorDimensions {
		return "", fmt.Errorf("expected %d dimensions, got %d", VectorDimensions, len(values))
	}

	var builder strings.Builder
	builder.Grow(len(values) * 8)
	builder.WriteByte('[')
	for i, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return "", fmt.Errorf("vector has non-finite value at index %d", i)
		}
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
