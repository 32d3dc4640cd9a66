package nn

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/stanza-ml/stanza/internal/tensor"
)

func TestPositionalEncodingValues(t *testing.T) {
	backend := newBackend()
	dim := 8

	pe := NewSinusoidalPositionalEncoding[Backend](10, dim, backend)
	data := pe.Encoding.Data()

	// Position 0: sin(0)=0 for even indices, cos(0)=1 for odd indices.
	for i := 0; i < dim; i++ {
		want := float32(0)
		if i%2 == 1 {
			want = 1
		}
		if math.Abs(float64(data[i]-want)) > 1e-6 {
			t.Errorf("PE(0, %d) = %v, want %v", i, data[i], want)
		}
	}

	// Spot-check position 3 against the closed form.
	pos := 3
	for i := 0; i < dim; i++ {
		angle := float64(pos) / math.Pow(10000.0, float64(2*(i/2))/float64(dim))
		want := math.Sin(angle)
		if i%2 == 1 {
			want = math.Cos(angle)
		}
		got := float64(data[pos*dim+i])
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("PE(%d, %d) = %v, want %v", pos, i, got, want)
		}
	}

	// Values stay in [-1, 1].
	for i, v := range data {
		if v < -1 || v > 1 {
			t.Fatalf("encoding[%d] = %v outside [-1, 1]", i, v)
		}
	}
}

func TestPositionalEncodingDeterministic(t *testing.T) {
	backend := newBackend()

	a := NewSinusoidalPositionalEncoding[Backend](16, 12, backend)
	b := NewSinusoidalPositionalEncoding[Backend](16, 12, backend)

	if diff := cmp.Diff(a.Encoding.Data(), b.Encoding.Data()); diff != "" {
		t.Errorf("two encodings with identical configuration differ:\n%s", diff)
	}
}

func TestPositionalEncodingForwardAdds(t *testing.T) {
	backend := newBackend()
	dim := 6

	pe := NewSinusoidalPositionalEncoding[Backend](8, dim, backend)
	x := randTensor(tensor.Shape{2, 4, dim}, backend)

	output := pe.Forward(x)

	if !shapeEqual(output.Shape(), tensor.Shape{2, 4, dim}) {
		t.Fatalf("output shape = %v, want [2 4 6]", output.Shape())
	}

	xData := x.Data()
	encData := pe.Encoding.Data()
	want := make([]float32, len(xData))
	for b := 0; b < 2; b++ {
		for p := 0; p < 4; p++ {
			for i := 0; i < dim; i++ {
				idx := (b*4+p)*dim + i
				want[idx] = xData[idx] + encData[p*dim+i]
			}
		}
	}

	opts := cmpopts.EquateApprox(0, 1e-6)
	if diff := cmp.Diff(want, output.Data(), opts); diff != "" {
		t.Errorf("forward output mismatch:\n%s", diff)
	}
}

func TestPositionalEncodingRejectsLongSequence(t *testing.T) {
	backend := newBackend()

	pe := NewSinusoidalPositionalEncoding[Backend](4, 8, backend)
	x := randTensor(tensor.Shape{1, 5, 8}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for sequence longer than MaxLen")
		}
	}()
	pe.Forward(x)
}

func TestPositionalEncodingRejectsDimMismatch(t *testing.T) {
	backend := newBackend()

	pe := NewSinusoidalPositionalEncoding[Backend](8, 8, backend)
	x := randTensor(tensor.Shape{1, 4, 6}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for feature dim mismatch")
		}
	}()
	pe.Forward(x)
}

func TestPositionalEncodingNoParameters(t *testing.T) {
	backend := newBackend()

	pe := NewSinusoidalPositionalEncoding[Backend](8, 8, backend)
	if len(pe.Parameters()) != 0 {
		t.Errorf("positional encoding has %d parameters, want 0", len(pe.Parameters()))
	}
}
