package model

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const modelFormatVersion = 1

type modelFile struct {
	Version int
	Model   *LatentFactorModel
}

// EncodeModel 把模型序列化为 gob 并用 zstd 压缩写入 w。
func EncodeModel(w io.Writer, m *LatentFactorModel) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(&modelFile{Version: modelFormatVersion, Model: m}); err != nil {
		zw.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	return zw.Close()
}

// DecodeModel 读取 EncodeModel 写出的模型并校验形状。
func DecodeModel(r io.Reader) (*LatentFactorModel, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	var f modelFile
	if err := gob.NewDecoder(zr).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if f.Version != modelFormatVersion {
		return nil, fmt.Errorf("decode model: unsupported version %d", f.Version)
	}
	if f.Model == nil {
		return nil, fmt.Errorf("decode model: empty payload")
	}
	if f.Model.Users == nil {
		f.Model.Users = NewDense(0, f.Model.Factors)
	}
	if f.Model.Items == nil {
		f.Model.Items = NewDense(0, f.Model.Factors)
	}
	if err := f.Model.Validate(); err != nil {
		return nil, err
	}
	return f.Model, nil
}
