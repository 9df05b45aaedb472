package config

import (
	"bytes"
	"compress/zlib"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Serialize encodes a config as a single shell-safe token: YAML,
// zlib-compressed at best compression, base64-encoded. The token is what
// the orchestrator passes to host agents on the command line and over
// remote shell channels.
func Serialize(cfg *Config) (string, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return compressEncode(raw)
}

func compressEncode(raw []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(raw); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SerializeRaw encodes the generic mapping form the same way Serialize
// encodes a typed config.
func SerializeRaw(data map[string]any) (string, error) {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return compressEncode(raw)
}

// Deserialize decodes a token produced by Serialize.
func Deserialize(token string) (*Config, error) {
	raw, err := decodeToken(token)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, WrapCfgError("cannot parse serialized config", err)
	}
	return &cfg, nil
}

// deserializeRaw decodes a token into the generic mapping form used
// during merging.
func deserializeRaw(token string) (map[string]any, error) {
	raw, err := decodeToken(token)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, WrapCfgError("cannot parse serialized config", err)
	}
	return data, nil
}

func decodeToken(token string) ([]byte, error) {
	zipped, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, WrapCfgError("cannot decode serialized config", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(zipped))
	if err != nil {
		return nil, WrapCfgError("cannot decompress serialized config", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, WrapCfgError("cannot decompress serialized config", err)
	}
	return raw, nil
}

// Hexdigest returns the SHA-512 hex digest of a stable rendering of
// data. Map keys are serialised in sorted order so that the digest does
// not depend on iteration order.
func Hexdigest(data any) (string, error) {
	// encoding/json sorts map keys, which gives a canonical byte stream.
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("digest config: %w", err)
	}
	sum := sha512.Sum512(raw)
	return hex.EncodeToString(sum[:]), nil
}
