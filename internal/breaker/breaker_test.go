package breaker

import (
	"testing"

	"github.com/ehulse/jstego/internal/cipher"
	"github.com/stretchr/testify/require"
)

func TestJstegJobRoundTrip(t *testing.T) {
	b := NewJstegBreaker()
	job := &JstegJob{filename: "a.jpg", HeaderBits: 32}
	for i := range job.TailBytes {
		job.TailBytes[i] = byte(i * 7)
	}
	for i := range job.HeadBytes {
		job.HeadBytes[i] = byte(i * 3)
	}

	data := b.Serialize(job)
	back, err := b.Deserialize(data)
	require.NoError(t, err)
	got := back.(*JstegJob)
	require.Equal(t, job.HeaderBits, got.HeaderBits)
	require.Equal(t, job.TailBytes, got.TailBytes)
	require.Equal(t, job.HeadBytes, got.HeadBytes)
}

func TestJstegDeserializeRejectsShortRecord(t *testing.T) {
	b := NewJstegBreaker()
	_, err := b.Deserialize([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShortRecord)
}

func TestOutguessJobRoundTrip(t *testing.T) {
	b := NewOutguessBreaker()
	job := &OutguessJob{filename: "b.jpg", Bits: 123456, Parity: make([]byte, 64)}
	for i := range job.Parity {
		job.Parity[i] = byte(i % 251)
	}

	data := b.Serialize(job)
	back, err := b.Deserialize(data)
	require.NoError(t, err)
	got := back.(*OutguessJob)
	require.Equal(t, job.Bits, got.Bits)
	require.Equal(t, job.Parity, got.Parity)
}

func TestOutguessDeserializeRejectsWrongMagic(t *testing.T) {
	b := NewOutguessBreaker()
	bogus := make([]byte, 4+4+4)
	copy(bogus, "XXXX")
	_, err := b.Deserialize(bogus)
	require.ErrorIs(t, err, ErrBadMagic)
}

// embedByte writes a byte into job's parity bitmap at the next 8
// positions the iterator visits, LSB first, mirroring how extractByte
// reads them back.
func embedByte(t *testing.T, it *bitIterator, job *OutguessJob, v byte) {
	t.Helper()
	for bit := 0; bit < 8; bit++ {
		pos, ok := it.next()
		require.True(t, ok)
		if (v>>uint(bit))&1 != 0 {
			job.Parity[pos/8] |= 1 << uint(7-pos%8)
		}
	}
}

// TestOutguessCrackRecoversEmbeddedPassword embeds a genuine
// (seed, length) header plus a random-looking payload at the exact
// positions and keystreams Crack itself expects, then checks Crack
// recovers the password from it — the end-to-end scenario the
// OutguessJob round-trip tests above don't exercise.
func TestOutguessCrackRecoversEmbeddedPassword(t *testing.T) {
	const password = "hunter2"
	const totalBits = 100000
	const seed = 5000
	const length = 256

	job := &OutguessJob{filename: "embedded.jpg", Bits: totalBits, Parity: make([]byte, (totalBits+7)/8)}

	var baseRng cipher.RC4
	baseRng.InitKey([]byte(password))
	walkRng := baseRng
	headerXorRng := baseRng
	payloadRng := baseRng

	it := newBitIterator(walkRng, totalBits, 32)

	header := [4]byte{byte(seed), byte(seed >> 8), byte(length), byte(length >> 8)}
	for _, b := range header {
		embedByte(t, it, job, b^headerXorRng.GetByte())
	}

	it.reseed(seed)

	plain := make([]byte, length) // all-zero plaintext: claimed ciphertext is the payload keystream itself
	for i, p := range plain {
		remaining := totalBits - it.pos
		it.skipmod = adaptSkipmod(totalBits, remaining, length-i)
		embedByte(t, it, job, p^payloadRng.GetByte())
	}

	b := NewOutguessBreaker()
	require.True(t, b.Crack(job.filename, password, job))
}

func TestJphideJobRoundTrip(t *testing.T) {
	b := NewJphideBreaker()
	job := &JphideJob{filename: "c.jpg", Bits: 99999}
	job.IV = [8]byte{0, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}
	job.WidthLimits = [3]int32{10, 5, 5}
	job.HeightLimits = [3]int32{8, 4, 4}
	for i := range job.Coeffs {
		job.Coeffs[i] = int16(i - 128)
	}

	data := b.Serialize(job)
	back, err := b.Deserialize(data)
	require.NoError(t, err)
	got := back.(*JphideJob)
	require.Equal(t, job.Bits, got.Bits)
	require.Equal(t, job.IV, got.IV)
	require.Equal(t, job.WidthLimits, got.WidthLimits)
	require.Equal(t, job.HeightLimits, got.HeightLimits)
	require.Equal(t, job.Coeffs, got.Coeffs)
}

func TestJphideCompareOrdersByIV(t *testing.T) {
	b := NewJphideBreaker()
	lo := &JphideJob{IV: [8]byte{1, 0, 0, 0, 0, 0, 0, 0}}
	hi := &JphideJob{IV: [8]byte{2, 0, 0, 0, 0, 0, 0, 0}}
	require.Less(t, b.Compare(lo, hi), 0)
	require.Greater(t, b.Compare(hi, lo), 0)
	require.Equal(t, 0, b.Compare(lo, lo))
}

func TestSkipAdjBounds(t *testing.T) {
	require.InDelta(t, 2.0, skipAdj(3200, 200), 1e-9)
	require.InDelta(t, 1.0, skipAdj(3200, 0), 1e-9)
}
