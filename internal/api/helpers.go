package api

import (
	"fmt"
	"io"
	"math"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/voxelflow/posemb/internal/tensor"
)

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode request: %w", err)
	}
	return out, nil
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func tensorStats(t *tensor.Tensor) EmbedStats {
	if len(t.Data) == 0 {
		return EmbedStats{}
	}
	min, max := float64(t.Data[0]), float64(t.Data[0])
	var sum, sq float64
	for _, v := range t.Data {
		f := float64(v)
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
		sum += f
		sq += f * f
	}
	n := float64(len(t.Data))
	return EmbedStats{
		Min:  min,
		Max:  max,
		Mean: sum / n,
		RMS:  math.Sqrt(sq / n),
	}
}
