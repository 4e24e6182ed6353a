package api

// EmbedRequest asks the server to generate one positional embedding.
// Shape is [B,T,H,W,C]. FPS follows the engine contract: absent, a single
// value, or one per batch element. Variant overrides the server default;
// the table geometry always comes from the server configuration.
type EmbedRequest struct {
	Variant    string      `json:"variant,omitempty"`
	Shape      []int       `json:"shape"`
	FPS        []float64   `json:"fps,omitempty"`
	NTK        *NTKRequest `json:"ntk,omitempty"`
	ReturnData bool        `json:"return_data,omitempty"`
}

// NTKRequest carries per-call rotary NTK factor overrides.
type NTKRequest struct {
	H *float64 `json:"h,omitempty"`
	W *float64 `json:"w,omitempty"`
	T *float64 `json:"t,omitempty"`
}

// EmbedResponse describes a generated embedding. Data is included only when
// requested; large tensors are better exported to a PET file via the CLI.
type EmbedResponse struct {
	ID        string     `json:"id"`
	Object    string     `json:"object"`
	CreatedAt int64      `json:"created_at"`
	Variant   string     `json:"variant"`
	Dims      []int      `json:"dims"`
	Elements  int        `json:"elements"`
	Stats     EmbedStats `json:"stats"`
	Data      []float32  `json:"data,omitempty"`
}

// EmbedStats summarizes the generated values.
type EmbedStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	RMS  float64 `json:"rms"`
}

// VariantsResponse lists the variants the server can construct.
type VariantsResponse struct {
	Object   string   `json:"object"`
	Default  string   `json:"default"`
	Variants []string `json:"variants"`
}

// ResponseError is the error payload inside the error envelope.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
