package pqarrow

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go/format"
)

// supportedCodecs is ordered the way codecs are presented to the user.
var supportedCodecs = []struct {
	codec format.CompressionCodec
	name  string
}{
	{format.Uncompressed, "UNCOMPRESSED"},
	{format.Snappy, "SNAPPY"},
	{format.Gzip, "GZIP"},
	{format.Brotli, "BROTLI"},
	{format.Zstd, "ZSTD"},
	{format.Lz4Raw, "LZ4_RAW"},
}

var otherCodecs = map[format.CompressionCodec]string{
	format.LZO: "LZO",
	format.Lz4: "LZ4",
}

// SupportedCodecs returns the names of the compression codecs that can be
// decoded: UNCOMPRESSED, SNAPPY, GZIP, BROTLI, ZSTD and LZ4_RAW.
func SupportedCodecs() []string {
	names := make([]string, 0, len(supportedCodecs))
	for _, c := range supportedCodecs {
		names = append(names, c.name)
	}
	return names
}

// IsSupportedCodec reports whether column chunks compressed with c can be decoded.
func IsSupportedCodec(c format.CompressionCodec) bool {
	for _, s := range supportedCodecs {
		if c == s.codec {
			return true
		}
	}
	return false
}

// CodecName renders c the way the parquet format names it. Codec values
// the format does not define render as UNKNOWN(<value>).
func CodecName(c format.CompressionCodec) string {
	for _, s := range supportedCodecs {
		if c == s.codec {
			return s.name
		}
	}
	if name, ok := otherCodecs[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int32(c))
}

// validateCodecs fails on the first column chunk using a codec outside of
// the supported set.
func validateCodecs(md *format.FileMetaData) error {
	for i, rg := range md.RowGroups {
		for _, cc := range rg.Columns {
			codec := cc.MetaData.Codec
			if !IsSupportedCodec(codec) {
				return unsupportedCodec(fmt.Sprintf(
					"column %q in row group %d uses %s",
					strings.Join(cc.MetaData.PathInSchema, "."), i, CodecName(codec),
				))
			}
		}
	}
	return nil
}

// isCodecFailure recognizes decoder errors that are caused by a codec
// the arrow reader has no implementation for.
func isCodecFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "codec") && !strings.Contains(msg, "compression") {
		return false
	}
	return strings.Contains(msg, "not implemented") ||
		strings.Contains(msg, "unsupported") ||
		strings.Contains(msg, "not supported")
}
