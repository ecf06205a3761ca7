package meter

import "github.com/viterin/vek/vek32"

type oversamplerState struct {
	history   [11]float32
	tmp, tmp2 []float32
}

// ref: https://www.itu.int/dms_pubrec/itu-r/rec/bs/R-REC-BS.1770-5-202311-I!!PDF-E.pdf
var oversamplingCoeffs = [4][12]float32{
	{0.0017089843750, 0.0109863281250, -0.0196533203125, 0.0332031250000, -0.0594482421875, 0.1373291015625, 0.9721679687500, -0.1022949218750, 0.0476074218750, -0.0266113281250, 0.0148925781250, -0.0083007812500},
	{-0.0291748046875, 0.0292968750000, -0.0517578125000, 0.0891113281250, -0.1665039062500, 0.4650878906250, 0.7797851562500, -0.2003173828125, 0.1015625000000, -0.0582275390625, 0.0330810546875, -0.0189208984375},
	{-0.0189208984375, 0.0330810546875, -0.058227539062, 0.1015625000000, -0.200317382812, 0.7797851562500, 0.4650878906250, -0.166503906250, 0.0891113281250, -0.051757812500, 0.0292968750000, -0.0291748046875},
	{-0.0083007812500, 0.0148925781250, -0.0266113281250, 0.0476074218750, -0.1022949218750, 0.9721679687500, 0.1373291015625, -0.0594482421875, 0.0332031250000, -0.0196533203125, 0.0109863281250, 0.0017089843750},
}

// Oversample writes x upsampled 4x into y, which must hold at least 4*len(x)
// samples, using the polyphase FIR filter of BS.1770. Phase q of the output
// is y[4p+q] = sum_j o[q][j] * x[p-j]; the last 11 input samples are kept
// for the next call.
func (s *oversamplerState) Oversample(x []float32, y []float32) []float32 {
	setSliceLength(&s.tmp, len(x))
	setSliceLength(&s.tmp2, len(x))
	for q, coeffs := range oversamplingCoeffs {
		r := vek32.Zeros_Into(s.tmp2, len(x))
		for j, c := range coeffs {
			// the convolution reaches before x[0], into the history
			k := min(j, len(x))
			vek32.MulNumber_Into(s.tmp[:k], s.history[11-j:11-j+k], c)
			vek32.MulNumber_Into(s.tmp[k:], x[:len(x)-k], c)
			vek32.Add_Inplace(r, s.tmp[:len(x)])
		}
		for p, v := range r {
			y[p*4+q] = v
		}
	}
	z := min(len(x), 11)
	copy(s.history[:11-z], s.history[z:11])
	copy(s.history[11-z:], x[len(x)-z:])
	return y[:len(x)*4]
}
