package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/voxelflow/posemb/internal/posemb"
)

func newTestEcho() *echo.Echo {
	provider := NewCachedEmbedderProvider(posemb.Config{
		Variant:       posemb.VariantRope3D,
		HeadDim:       96,
		ModelChannels: 96,
		LenH:          8,
		LenW:          8,
		LenT:          8,
		MinFPS:        1,
		MaxFPS:        120,
	})
	server := NewServer(provider)
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateEmbeddingDefaultVariant(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/embeddings", `{"shape":[1,4,4,4,96],"fps":[24]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp EmbedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "emb-") {
		t.Fatalf("id: got %q", resp.ID)
	}
	if resp.Object != "positional.embedding" {
		t.Fatalf("object: got %q", resp.Object)
	}
	if resp.Variant != posemb.VariantRope3D {
		t.Fatalf("variant: got %q", resp.Variant)
	}
	wantDims := []int{64, 48, 2, 2}
	if len(resp.Dims) != 4 {
		t.Fatalf("dims: got %v", resp.Dims)
	}
	for i, d := range wantDims {
		if resp.Dims[i] != d {
			t.Fatalf("dims: got %v want %v", resp.Dims, wantDims)
		}
	}
	if resp.Elements != 64*48*4 {
		t.Fatalf("elements: got %d", resp.Elements)
	}
	// rotary blocks bound every value by the unit circle.
	if resp.Stats.Max > 1 || resp.Stats.Min < -1 {
		t.Fatalf("stats out of range: %+v", resp.Stats)
	}
	if len(resp.Data) != 0 {
		t.Fatalf("data returned without return_data")
	}
}

func TestCreateEmbeddingReturnsData(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/embeddings",
		`{"variant":"sincos-axis","shape":[1,2,2,2,96],"return_data":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp EmbedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Variant != posemb.VariantSinCosAxis {
		t.Fatalf("variant: got %q", resp.Variant)
	}
	if len(resp.Data) != resp.Elements {
		t.Fatalf("data length %d != elements %d", len(resp.Data), resp.Elements)
	}
	var sq float64
	for _, v := range resp.Data {
		sq += float64(v) * float64(v)
	}
	rms := math.Sqrt(sq / float64(len(resp.Data)))
	if math.Abs(rms-resp.Stats.RMS) > 1e-6 {
		t.Fatalf("stats rms %g disagrees with data rms %g", resp.Stats.RMS, rms)
	}
}

func TestCreateEmbeddingValidation(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	for _, tc := range []struct {
		name string
		body string
		want string
	}{
		{"bad shape length", `{"shape":[1,2,3]}`, "shape must be"},
		{"negative extent", `{"shape":[1,-2,4,4,96]}`, "positive"},
		{"unknown field", `{"shape":[1,2,4,4,96],"bogus":1}`, "decode request"},
		{"unknown variant", `{"variant":"nope","shape":[1,2,4,4,96]}`, "unknown embedding variant"},
		{"mixed fps batch", `{"shape":[2,4,4,4,96],"fps":[24,30]}`, "non-uniform fps"},
		{"shape beyond tables", `{"shape":[1,2,9,4,96]}`, "exceeds configured maximum"},
	} {
		rec := doJSON(t, e, http.MethodPost, "/v1/embeddings", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d body=%s", tc.name, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s: body %s missing %q", tc.name, rec.Body.String(), tc.want)
		}
	}
}

func TestCreateEmbeddingNTKOverride(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	base := doJSON(t, e, http.MethodPost, "/v1/embeddings",
		`{"shape":[1,2,2,2,96],"return_data":true}`)
	scaled := doJSON(t, e, http.MethodPost, "/v1/embeddings",
		`{"shape":[1,2,2,2,96],"return_data":true,"ntk":{"t":2.0}}`)
	if base.Code != http.StatusOK || scaled.Code != http.StatusOK {
		t.Fatalf("status: %d and %d", base.Code, scaled.Code)
	}
	var a, b EmbedResponse
	if err := json.Unmarshal(base.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode base: %v", err)
	}
	if err := json.Unmarshal(scaled.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode scaled: %v", err)
	}
	same := true
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("NTK override had no effect")
	}
}

func TestListVariants(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodGet, "/v1/variants", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp VariantsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Default != posemb.VariantRope3D {
		t.Fatalf("default variant: got %q", resp.Default)
	}
	if len(resp.Variants) != len(posemb.Variants) {
		t.Fatalf("variant count: got %d want %d", len(resp.Variants), len(posemb.Variants))
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestProviderCachesEmbedders(t *testing.T) {
	t.Parallel()

	provider := NewCachedEmbedderProvider(posemb.Config{
		Variant: posemb.VariantRope3D,
		HeadDim: 96,
		LenH:    4, LenW: 4, LenT: 4,
	})
	var first, second posemb.Embedder
	if err := provider.WithEmbedder("", func(v string, emb posemb.Embedder) error {
		first = emb
		return nil
	}); err != nil {
		t.Fatalf("first WithEmbedder: %v", err)
	}
	if err := provider.WithEmbedder(posemb.VariantRope3D, func(v string, emb posemb.Embedder) error {
		second = emb
		return nil
	}); err != nil {
		t.Fatalf("second WithEmbedder: %v", err)
	}
	if first != second {
		t.Fatalf("provider rebuilt a cached embedder")
	}
}

func TestProviderRejectsMissingDefault(t *testing.T) {
	t.Parallel()

	provider := NewCachedEmbedderProvider(posemb.Config{})
	err := provider.WithEmbedder("", func(string, posemb.Embedder) error { return nil })
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
