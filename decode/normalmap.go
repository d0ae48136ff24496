package decode

import "math"

// RenormalizeNormals repairs a tangent-space normal map in place. Lossy
// authoring pipelines (JPEG compression, resizing) leave normals shorter or
// longer than unit length; every texel's first three channels are remapped
// from [0,255] to [-1,1], optionally Y-flipped, renormalized, and written
// back. The fourth channel, when present, is untouched.
func RenormalizeNormals(r *Result, flipGreen bool) {
	bpt := r.Format.BytesPerTexel()

	for i := 0; i+2 < len(r.Pix); i += bpt {
		x := float64(r.Pix[i])/127.5 - 1
		y := float64(r.Pix[i+1])/127.5 - 1
		z := float64(r.Pix[i+2])/127.5 - 1

		if flipGreen {
			y = -y
		}

		length := math.Sqrt(x*x + y*y + z*z)
		if length == 0 {
			// Degenerate texel: point straight up.
			x, y, z = 0, 0, 1
		} else {
			x /= length
			y /= length
			z /= length
		}

		r.Pix[i] = packUnit(x)
		r.Pix[i+1] = packUnit(y)
		r.Pix[i+2] = packUnit(z)
	}
}

// packUnit maps a [-1,1] component back to [0,255].
func packUnit(v float64) uint8 {
	p := math.Round((v + 1) * 127.5)
	if p < 0 {
		p = 0
	} else if p > 255 {
		p = 255
	}
	return uint8(p)
}
