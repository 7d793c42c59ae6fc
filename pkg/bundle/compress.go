package bundle

import (
	"github.com/klauspost/compress/zstd"
)

// compressFrame wraps an encoded envelope in a zstd frame.
func compressFrame(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// decompressFrame unwraps a zstd frame produced by compressFrame.
func decompressFrame(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
