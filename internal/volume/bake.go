package volume

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"volumetric-clouds/internal/settings"
)

// Bake files store one texture as 16-bit UNorm texels (the RGBA16 layout the
// textures were designed around), zstd-compressed, behind a small header:
//
//	"VCLD" | version u8 | type u8 | size u32 LE | digest len u8 | digest
const (
	bakeMagic   = "VCLD"
	bakeVersion = 1
)

// ErrBakeMismatch reports a bake generated from different settings.
var ErrBakeMismatch = errors.New("volume: bake does not match current settings")

// Digest identifies the recipes that produced texture t. Bakes are only
// reused when their digest equals the current one.
func Digest(c settings.Collection, t settings.NoiseType, size int) string {
	recs := make([]settings.NoiseSettings, settings.NumChannels)
	for ch := 0; ch < settings.NumChannels; ch++ {
		recs[ch] = c.Get(t, settings.Channel(ch))
	}
	data, _ := json.Marshal(struct {
		Size    int                      `json:"size"`
		Records []settings.NoiseSettings `json:"records"`
	}{size, recs})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// WriteBake encodes tex with the given digest.
func WriteBake(w io.Writer, tex *Texture, digest string) error {
	if len(digest) > 255 {
		return fmt.Errorf("volume: bake digest too long")
	}
	hdr := make([]byte, 0, 11+len(digest))
	hdr = append(hdr, bakeMagic...)
	hdr = append(hdr, bakeVersion, byte(tex.Type))
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(tex.Size))
	hdr = append(hdr, byte(len(digest)))
	hdr = append(hdr, digest...)
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("volume: write bake header: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("volume: zstd writer: %w", err)
	}
	bw := bufio.NewWriter(enc)
	var b [2]byte
	for _, v := range tex.Data {
		binary.LittleEndian.PutUint16(b[:], quantize(v))
		if _, err := bw.Write(b[:]); err != nil {
			enc.Close()
			return fmt.Errorf("volume: write bake texels: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("volume: write bake texels: %w", err)
	}
	return enc.Close()
}

// ReadBake decodes a bake written by WriteBake. The header size must equal
// sizes[type]; it is checked before any texel memory is allocated.
func ReadBake(r io.Reader, sizes [settings.NumTypes]int) (*Texture, string, error) {
	br := bufio.NewReader(r)
	hdr := make([]byte, 11)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, "", fmt.Errorf("volume: read bake header: %w", err)
	}
	if string(hdr[:4]) != bakeMagic {
		return nil, "", fmt.Errorf("volume: invalid bake magic %q", hdr[:4])
	}
	if hdr[4] != bakeVersion {
		return nil, "", fmt.Errorf("volume: unsupported bake version %d", hdr[4])
	}
	t := settings.NoiseType(hdr[5])
	if t < 0 || t >= settings.NumTypes {
		return nil, "", fmt.Errorf("volume: bake has invalid type %d", hdr[5])
	}
	size := int(binary.LittleEndian.Uint32(hdr[6:10]))
	if size != sizes[t] {
		return nil, "", fmt.Errorf("%w: %s size %d, want %d", ErrBakeMismatch, t, size, sizes[t])
	}
	digest := make([]byte, hdr[10])
	if _, err := io.ReadFull(br, digest); err != nil {
		return nil, "", fmt.Errorf("volume: read bake digest: %w", err)
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, "", fmt.Errorf("volume: zstd reader: %w", err)
	}
	defer dec.Close()

	tex := &Texture{Type: t, Size: size, Data: make([]float32, size*size*size*4)}
	raw := make([]byte, len(tex.Data)*2)
	if _, err := io.ReadFull(dec, raw); err != nil {
		return nil, "", fmt.Errorf("volume: read bake texels: %w", err)
	}
	for i := range tex.Data {
		tex.Data[i] = float32(binary.LittleEndian.Uint16(raw[i*2:])) / math.MaxUint16
	}
	return tex, string(digest), nil
}

func quantize(v float32) uint16 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return math.MaxUint16
	}
	return uint16(v*math.MaxUint16 + 0.5)
}

// ExportBake writes texture t with the digest of the current settings.
func (s *Store) ExportBake(w io.Writer, t settings.NoiseType) error {
	tex := s.textures[t]
	digest := Digest(s.Settings(), t, tex.Size)

	cw := &countingWriter{w: w}
	s.frameMu.RLock()
	err := WriteBake(cw, tex, digest)
	s.frameMu.RUnlock()
	if err != nil {
		return err
	}
	slog.Info("volume bake written", "type", t, "size", tex.Size, "bytes", humanize.Bytes(uint64(cw.n)))
	return nil
}

// ImportBake installs a baked texture when it was produced from the current
// settings at the current size, and marks its channels Clean.
func (s *Store) ImportBake(r io.Reader) error {
	tex, digest, err := ReadBake(r, s.sizes())
	if err != nil {
		return err
	}
	cur := s.textures[tex.Type]

	base := int(tex.Type) * settings.NumChannels
	for ch := 0; ch < settings.NumChannels; ch++ {
		s.genMu[base+ch].Lock()
		defer s.genMu[base+ch].Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if want := Digest(s.settings, tex.Type, cur.Size); digest != want {
		return fmt.Errorf("%w: %s", ErrBakeMismatch, tex.Type)
	}

	s.frameMu.Lock()
	copy(cur.Data, tex.Data)
	s.frameMu.Unlock()
	for ch := 0; ch < settings.NumChannels; ch++ {
		s.states[base+ch] = Clean
	}
	return nil
}

func (s *Store) sizes() [settings.NumTypes]int {
	var out [settings.NumTypes]int
	for i, tex := range s.textures {
		out[i] = tex.Size
	}
	return out
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
