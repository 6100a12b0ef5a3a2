package corefmt

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/cbsample/errs"
)

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64url failed")
	}
	return b, nil
}

// EncodeHex 用於日誌，比 Base64 長但容易人工比對
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode hex failed")
	}
	return b, nil
}

// EncodeBlobFrame encodes raw bytes into a length-prefixed binary frame.
//
//	frame := uvarint(len(payload)) || payload
func EncodeBlobFrame(payload []byte) []byte {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))

	out := make([]byte, 0, n+len(payload))
	out = append(out, hdr[:n]...)
	out = append(out, payload...)
	return out
}

// WriteBlobFrame writes a length-prefixed binary frame into w.
func WriteBlobFrame(w io.Writer, payload []byte) error {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return errs.Wrap(err, "write blob frame header failed")
	}
	if _, err := w.Write(payload); err != nil {
		return errs.Wrap(err, "write blob frame payload failed")
	}
	return nil
}

// ReadBlobFrame reads a length-prefixed binary frame from r.
//
// maxBytes is a safety cap for untrusted input; 0 disables it.
func ReadBlobFrame(br *bufio.Reader, maxBytes uint64) ([]byte, error) {
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.Wrap(err, "read blob frame header failed")
	}
	if maxBytes > 0 && ln > maxBytes {
		return nil, errs.NewWarn("read blob frame failed: payload exceeds maxBytes")
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errs.Wrap(err, "read blob frame payload failed")
	}
	return buf, nil
}

// ============================================================
// ** zstd **
// ============================================================

var (
	encOnce sync.Once
	enc     *zstd.Encoder
	decOnce sync.Once
	dec     *zstd.Decoder
)

func encoder() *zstd.Encoder {
	encOnce.Do(func() {
		enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})
	return enc
}

func decoder() *zstd.Decoder {
	decOnce.Do(func() {
		dec, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxTrailBytes))
	})
	return dec
}

// maxTrailBytes 解壓上限
const maxTrailBytes = 64 << 20

// Compress 以 zstd 壓成單一 frame；EncodeAll 可併發呼叫。
func Compress(b []byte) []byte {
	return encoder().EncodeAll(b, make([]byte, 0, len(b)/2+16))
}

func Decompress(b []byte) ([]byte, error) {
	out, err := decoder().DecodeAll(b, nil)
	if err != nil {
		return nil, errs.Wrap(err, "zstd decode failed")
	}
	return out, nil
}

// EncodeTrail 把一串 PRNG 快照打包成可放進 JSON 的字串：
//
//	base64url( zstd( frame(s0) || frame(s1) || ... ) )
//
// 相鄰快照共用前綴（例如 "pcg:"），壓縮後遠小於逐筆 Base64。
func EncodeTrail(snaps [][]byte) string {
	var raw bytes.Buffer
	for _, s := range snaps {
		_ = WriteBlobFrame(&raw, s)
	}
	return EncodeBase64URL(Compress(raw.Bytes()))
}

// DecodeTrail 為 EncodeTrail 的反向操作
func DecodeTrail(s string) ([][]byte, error) {
	packed, err := DecodeBase64URL(s)
	if err != nil {
		return nil, err
	}
	raw, err := Decompress(packed)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(bytes.NewReader(raw))
	out := make([][]byte, 0, 16)
	for {
		if _, err := br.Peek(1); err == io.EOF {
			return out, nil
		}
		snap, err := ReadBlobFrame(br, uint64(len(raw)))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
}
