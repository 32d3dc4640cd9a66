package nn

import (
	"fmt"

	"github.com/stanza-ml/stanza/internal/tensor"
)

// PredictorConfig holds the hyperparameters of a SequencePredictor.
type PredictorConfig struct {
	InputDim     int     // feature dimension of the input sequence
	ModelDim     int     // internal embedding dimension
	NumHeads     int     // attention heads per block
	FFDim        int     // feed-forward hidden dimension
	NumLayers    int     // encoder blocks
	NumClasses   int     // output classes per position
	MaxLen       int     // longest supported sequence
	Dropout      float32 // drop probability, 0 disables
	NoPositional bool    // skip the positional encoding addition
}

// Validate checks the configuration for internal consistency.
func (c PredictorConfig) Validate() error {
	if c.InputDim <= 0 {
		return fmt.Errorf("input_dim must be positive, got %d", c.InputDim)
	}
	if c.ModelDim <= 0 {
		return fmt.Errorf("model_dim must be positive, got %d", c.ModelDim)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("num_heads must be positive, got %d", c.NumHeads)
	}
	if c.ModelDim%c.NumHeads != 0 {
		return fmt.Errorf("model_dim (%d) must be divisible by num_heads (%d)", c.ModelDim, c.NumHeads)
	}
	if c.FFDim <= 0 {
		return fmt.Errorf("ff_dim must be positive, got %d", c.FFDim)
	}
	if c.NumLayers <= 0 {
		return fmt.Errorf("num_layers must be positive, got %d", c.NumLayers)
	}
	if c.NumClasses <= 0 {
		return fmt.Errorf("num_classes must be positive, got %d", c.NumClasses)
	}
	if c.MaxLen <= 0 {
		return fmt.Errorf("max_len must be positive, got %d", c.MaxLen)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("dropout must be in [0, 1), got %v", c.Dropout)
	}
	return nil
}

// SequencePredictor maps an input sequence to per-position class logits:
//
//	project InputDim -> ModelDim
//	add sinusoidal positional encodings (unless disabled)
//	run the encoder stack
//	output head: Linear -> LayerNorm -> ReLU -> Dropout -> Linear
//
// Input: [batch, seq, input_dim]. Output: [batch, seq, num_classes].
type SequencePredictor[B tensor.Backend] struct {
	Config   PredictorConfig
	Embed    *Linear[B]
	PosEnc   *SinusoidalPositionalEncoding[B]
	Enc      *Encoder[B]
	Head1    *Linear[B] // ModelDim -> ModelDim
	HeadNorm *LayerNorm[B]
	HeadDrop *Dropout[B]
	Head2    *Linear[B] // ModelDim -> NumClasses
	backend  B
}

// NewSequencePredictor builds a predictor from the configuration.
// Returns an error if the configuration is invalid.
func NewSequencePredictor[B tensor.Backend](cfg PredictorConfig, backend B) (*SequencePredictor[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid predictor config: %w", err)
	}

	return &SequencePredictor[B]{
		Config:   cfg,
		Embed:    NewLinear[B](cfg.InputDim, cfg.ModelDim, backend),
		PosEnc:   NewSinusoidalPositionalEncoding[B](cfg.MaxLen, cfg.ModelDim, backend),
		Enc:      NewEncoder[B](cfg.NumLayers, cfg.ModelDim, cfg.NumHeads, cfg.FFDim, cfg.Dropout, backend),
		Head1:    NewLinear[B](cfg.ModelDim, cfg.ModelDim, backend),
		HeadNorm: NewLayerNorm[B](cfg.ModelDim, 1e-5, backend),
		HeadDrop: NewDropout[B](cfg.Dropout, backend),
		Head2:    NewLinear[B](cfg.ModelDim, cfg.NumClasses, backend),
		backend:  backend,
	}, nil
}

// SetTraining toggles dropout across the whole model.
func (s *SequencePredictor[B]) SetTraining(training bool) {
	s.Enc.SetTraining(training)
	s.HeadDrop.SetTraining(training)
}

// Forward computes per-position logits for x [batch, seq, input_dim].
func (s *SequencePredictor[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return s.ForwardMasked(x, nil)
}

// ForwardMasked is Forward with an optional additive attention mask
// broadcastable to [batch, heads, seq, seq].
func (s *SequencePredictor[B]) ForwardMasked(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	h := s.embed(x)
	h = s.Enc.Forward(h, mask)
	return s.project(h)
}

// ForwardWithAttention also returns each block's attention weights for
// diagnostics.
func (s *SequencePredictor[B]) ForwardWithAttention(
	x *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], []*tensor.Tensor[float32, B]) {
	h := s.embed(x)
	h, weights := s.Enc.ForwardWithAttention(h, mask)
	return s.project(h), weights
}

func (s *SequencePredictor[B]) embed(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("SequencePredictor.Forward: expected 3D input [batch, seq, input_dim], got %v", shape))
	}
	if shape[2] != s.Config.InputDim {
		panic(fmt.Sprintf("SequencePredictor.Forward: expected input_dim %d, got %d", s.Config.InputDim, shape[2]))
	}

	batch, seq := shape[0], shape[1]
	h := s.Embed.Forward(x.Reshape(batch*seq, s.Config.InputDim))
	h = h.Reshape(batch, seq, s.Config.ModelDim)
	if s.Config.NoPositional {
		return h
	}
	return s.PosEnc.Forward(h)
}

func (s *SequencePredictor[B]) project(h *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := h.Shape()
	batch, seq := shape[0], shape[1]

	out := s.Head1.Forward(h.Reshape(batch*seq, s.Config.ModelDim))
	out = s.HeadNorm.Forward(out.Reshape(batch, seq, s.Config.ModelDim))
	out = out.ReLU()
	out = s.HeadDrop.Forward(out)

	logits := s.Head2.Forward(out.Reshape(batch*seq, s.Config.ModelDim))
	return logits.Reshape(batch, seq, s.Config.NumClasses)
}

// Parameters returns every trainable parameter of the model.
func (s *SequencePredictor[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	params = append(params, s.Embed.Parameters()...)
	params = append(params, s.Enc.Parameters()...)
	params = append(params, s.Head1.Parameters()...)
	params = append(params, s.HeadNorm.Parameters()...)
	params = append(params, s.Head2.Parameters()...)
	return params
}
