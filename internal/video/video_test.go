package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/keagan/highlightview/internal/config"
	"github.com/keagan/highlightview/internal/ffmpeg"
	"github.com/rs/zerolog"
)

// fakeSource yields total solid frames and records which ones were decoded fully
type fakeSource struct {
	total   int
	pos     int
	full    []int
	skipped []int
	closed  bool
}

func (f *fakeSource) frame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for i := range img.Pix {
		img.Pix[i] = uint8(f.pos)
	}
	return img
}

func (f *fakeSource) Next(ctx context.Context) (*image.RGBA, error) {
	if f.pos >= f.total {
		return nil, ErrEndOfStream
	}
	f.pos++
	f.full = append(f.full, f.pos)
	return f.frame(), nil
}

func (f *fakeSource) Skip(ctx context.Context) error {
	if f.pos >= f.total {
		return ErrEndOfStream
	}
	f.pos++
	f.skipped = append(f.skipped, f.pos)
	return nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func drain(t *testing.T, s *Sampler) ([]int, error) {
	t.Helper()
	var indices []int
	for {
		frame, err := s.Next(context.Background())
		if err != nil {
			return indices, err
		}
		indices = append(indices, frame.Index)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSamplerStrideThree(t *testing.T) {
	src := &fakeSource{total: 10}
	s := NewSampler(src, 3, 0)

	indices, err := drain(t, s)
	if !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
	if !equalInts(indices, []int{3, 6, 9}) {
		t.Errorf("expected frames [3 6 9], got %v", indices)
	}
	if !equalInts(src.full, []int{3, 6, 9}) {
		t.Errorf("only sampled frames should be fully decoded, got %v", src.full)
	}
	if !equalInts(src.skipped, []int{1, 2, 4, 5, 7, 8, 10}) {
		t.Errorf("unexpected skipped frames %v", src.skipped)
	}
	if s.Decoded() != 10 {
		t.Errorf("expected 10 decoded frames, got %d", s.Decoded())
	}
}

func TestSamplerStrideOne(t *testing.T) {
	s := NewSampler(&fakeSource{total: 5}, 1, 0)
	indices, err := drain(t, s)
	if !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
	if !equalInts(indices, []int{1, 2, 3, 4, 5}) {
		t.Errorf("expected every frame, got %v", indices)
	}
}

func TestSamplerFrameLimit(t *testing.T) {
	tests := []struct {
		name      string
		stride    int
		maxFrames int
		want      []int
		decoded   int
	}{
		{"limit on sampled frame", 3, 6, []int{3, 6}, 6},
		{"limit between samples", 3, 7, []int{3, 6}, 7},
		{"limit before first sample", 3, 2, nil, 2},
		{"stride one", 1, 3, []int{1, 2, 3}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{total: 100}
			s := NewSampler(src, tt.stride, tt.maxFrames)
			indices, err := drain(t, s)
			if !errors.Is(err, ErrFrameLimit) {
				t.Fatalf("expected ErrFrameLimit, got %v", err)
			}
			if !equalInts(indices, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, indices)
			}
			if s.Decoded() != tt.decoded {
				t.Errorf("expected %d decoded, got %d", tt.decoded, s.Decoded())
			}
		})
	}
}

func TestSamplerFrameLimitLargerThanStream(t *testing.T) {
	s := NewSampler(&fakeSource{total: 4}, 2, 50)
	indices, err := drain(t, s)
	if !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
	if !equalInts(indices, []int{2, 4}) {
		t.Errorf("expected [2 4], got %v", indices)
	}
}

func TestRGBFromBytes(t *testing.T) {
	pix := []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 10, 20, 30,
	}
	img := RGBFromBytes(pix, 2, 2)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{255, 0, 0, 255}},
		{1, 0, color.RGBA{0, 255, 0, 255}},
		{0, 1, color.RGBA{0, 0, 255, 255}},
		{1, 1, color.RGBA{10, 20, 30, 255}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPreprocessorResizes(t *testing.T) {
	p := NewPreprocessor(800, 450)

	src := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for i := range src.Pix {
		src.Pix[i] = 200
	}

	out, err := p.Normalize(src)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 800, 450) {
		t.Fatalf("expected 800x450, got %v", out.Bounds())
	}
	// a uniform image stays uniform under bilinear resampling
	got := out.RGBAAt(400, 225)
	for _, v := range []uint8{got.R, got.G, got.B} {
		if v < 199 || v > 201 {
			t.Errorf("expected uniform ~200, got %v", got)
		}
	}
}

func TestPreprocessorCopiesCanonicalFrames(t *testing.T) {
	p := NewPreprocessor(16, 9)
	src := image.NewRGBA(image.Rect(0, 0, 16, 9))
	src.Pix[0] = 42

	out, err := p.Normalize(src)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out == src {
		t.Fatal("expected a copy, got the source image")
	}
	if out.Pix[0] != 42 {
		t.Errorf("expected copied sample 42, got %d", out.Pix[0])
	}
	out.Pix[0] = 0
	if src.Pix[0] != 42 {
		t.Error("mutating the normalized frame must not touch the raw frame")
	}
}

func TestPreprocessorDownscaleIsLocal(t *testing.T) {
	// halving the width samples each output pixel from its two nearest source
	// columns only, so a single bright column does not bleed further out
	p := NewPreprocessor(4, 2)
	src := image.NewRGBA(image.Rect(0, 0, 8, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(0)
			if x == 3 {
				v = 200
			}
			src.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}

	out, err := p.Normalize(src)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := []uint8{0, 100, 0, 0}
	for x, w := range want {
		if got := out.RGBAAt(x, 0).R; got != w {
			t.Errorf("column %d = %d, want %d", x, got, w)
		}
	}
}

func TestPreprocessorRejectsEmptyFrames(t *testing.T) {
	p := NewPreprocessor(16, 9)
	if _, err := p.Normalize(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("expected an error for an empty frame")
	}
}

func TestStreamOpenError(t *testing.T) {
	inner := errors.New("no such file")
	err := error(&StreamOpenError{Path: "match.mp4", Err: inner})

	var soe *StreamOpenError
	if !errors.As(err, &soe) {
		t.Fatal("expected errors.As to find StreamOpenError")
	}
	if !errors.Is(err, inner) {
		t.Error("expected StreamOpenError to unwrap")
	}
}

func TestOpenMissingFile(t *testing.T) {
	exec := &ffmpeg.Executor{}
	_, err := Open(context.Background(), exec, filepath.Join(t.TempDir(), "missing.mp4"))

	var soe *StreamOpenError
	if !errors.As(err, &soe) {
		t.Fatalf("expected StreamOpenError, got %v", err)
	}
	if !os.IsNotExist(errors.Unwrap(err)) {
		t.Errorf("expected not-exist cause, got %v", soe.Err)
	}
}

func TestOpenUndecodableFile(t *testing.T) {
	exec, err := ffmpeg.New(zerolog.Nop(), config.FFmpegConfig{})
	if err != nil {
		t.Skipf("ffmpeg unavailable: %v", err)
	}

	path := filepath.Join(t.TempDir(), "garbage.mp4")
	if err := os.WriteFile(path, []byte("definitely not a video"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err = Open(context.Background(), exec, path)
	var soe *StreamOpenError
	if !errors.As(err, &soe) {
		t.Fatalf("expected StreamOpenError, got %v", err)
	}
}
