package decode

import "testing"

func TestRenormalizeNormals(t *testing.T) {
	// Raw bytes 186 decode to 0.45882 per axis; the renormalized unit
	// vector is 0.57735 per axis, which packs back to 201.
	res := &Result{
		Pix:    []byte{186, 186, 186},
		Width:  1,
		Height: 1,
		Format: RGB8,
	}

	RenormalizeNormals(res, false)

	for i, b := range res.Pix {
		if b != 201 {
			t.Errorf("Pix[%d] = %d, want 201", i, b)
		}
	}
}

func TestRenormalizeNormalsFlipGreen(t *testing.T) {
	res := &Result{
		Pix:    []byte{186, 186, 186},
		Width:  1,
		Height: 1,
		Format: RGB8,
	}

	RenormalizeNormals(res, true)

	if res.Pix[0] != 201 || res.Pix[2] != 201 {
		t.Errorf("X/Z = %d/%d, want 201/201", res.Pix[0], res.Pix[2])
	}
	// Negated Y: -0.57735 packs to 54.
	if res.Pix[1] != 54 {
		t.Errorf("Y = %d, want 54", res.Pix[1])
	}
}

func TestRenormalizeNormalsKeepsAlpha(t *testing.T) {
	res := &Result{
		Pix:    []byte{255, 128, 128, 37, 0, 128, 128, 211},
		Width:  2,
		Height: 1,
		Format: RGBA8,
	}

	RenormalizeNormals(res, false)

	if res.Pix[3] != 37 || res.Pix[7] != 211 {
		t.Errorf("alpha = %d/%d, want 37/211", res.Pix[3], res.Pix[7])
	}
}

func TestRenormalizeNormalsUnitVectorStable(t *testing.T) {
	// A texel already encoding +Z must stay put.
	res := &Result{
		Pix:    []byte{128, 128, 255},
		Width:  1,
		Height: 1,
		Format: RGB8,
	}

	RenormalizeNormals(res, false)

	if res.Pix[2] != 255 {
		t.Errorf("Z = %d, want 255", res.Pix[2])
	}
	// X and Y stay near the midpoint (exact 0 is not representable).
	for _, i := range []int{0, 1} {
		if res.Pix[i] < 127 || res.Pix[i] > 129 {
			t.Errorf("Pix[%d] = %d, want ~128", i, res.Pix[i])
		}
	}
}
