package cuac

import (
	"fmt"
	"io"

	"github.com/teanga-nlp/teanga-go/corpus"
	"github.com/teanga-nlp/teanga-go/dict"
	"github.com/teanga-nlp/teanga-go/layercodec"
	"github.com/teanga-nlp/teanga-go/model"
	"github.com/teanga-nlp/teanga-go/strcodec"
)

// Reader is a forward-only Cuac document stream: the header has already
// been parsed, and each call to Next decodes exactly one document.
type Reader struct {
	r     io.Reader
	meta  map[string]*model.LayerDesc
	names []string // sorted, the canonical per-document layer order
	codec strcodec.Codec
	dict  *dict.Dictionary
}

// Meta returns the stream's declared layer metadata.
func (rd *Reader) Meta() map[string]*model.LayerDesc { return rd.meta }

// Next decodes the next document from the stream. io.EOF (unwrapped)
// signals a clean end-of-stream, detected on the very first byte of a
// document; any other error, including EOF mid-document, is fatal.
func (rd *Reader) Next() (model.Document, error) {
	doc := model.NewDocument()
	for i, name := range rd.names {
		tag, err := readTagByte(rd.r)
		if err != nil {
			if err == io.EOF && i == 0 {
				return model.Document{}, io.EOF
			}
			return model.Document{}, fmt.Errorf("cuac: reading layer %q: %w", name, err)
		}
		if tag == layercodec.Absent {
			continue
		}
		l, err := layercodec.Decode(rd.r, tag, rd.meta[name], rd.dict, rd.codec)
		if err != nil {
			return model.Document{}, fmt.Errorf("cuac: decoding layer %q: %w", name, err)
		}
		doc.Content[name] = l
	}
	return doc, nil
}

// readTagByte reads a single tag byte. io.ReadFull already returns
// io.EOF (not io.ErrUnexpectedEOF) when zero bytes could be read before
// the underlying source ended, which is exactly the "clean boundary"
// signal Next's caller relies on at i == 0.
func readTagByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

var _ corpus.DocSource = (*Reader)(nil)

// readCodec parses the codec_tag byte and any trained-model payload that
// follows it, returning the strcodec.Codec ready to decode the document
// stream with.
func readCodec(r io.Reader) (strcodec.Codec, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return nil, err
	}
	switch strcodec.Tag(tagBuf[0]) {
	case strcodec.TagNone:
		return strcodec.NoCompression{}, nil
	case strcodec.TagSmaz:
		return strcodec.SmazCompression{}, nil
	case strcodec.TagShocoDefault:
		return strcodec.ShocoDefault(), nil
	case strcodec.TagShocoTrained:
		m, err := strcodec.ReadModel(r)
		if err != nil {
			return nil, err
		}
		return strcodec.NewShocoCompression(m), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodecTag, tagBuf[0])
	}
}

// Read parses a Cuac stream's header and codec configuration, and returns
// a lazy-iterable corpus handle (spec.md §6's read(source) -> corpus)
// that decodes documents from source on demand as corpus.Lazy ranges
// over it.
func Read(source io.Reader) (*corpus.Lazy, error) {
	magicBuf := make([]byte, len(Magic))
	if _, err := io.ReadFull(source, magicBuf); err != nil {
		return nil, err
	}
	if string(magicBuf) != Magic {
		return nil, ErrBadMagic
	}
	version, err := readU16(source)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, version, Version)
	}
	metaLen, err := readU32(source)
	if err != nil {
		return nil, err
	}
	metaBytes := make([]byte, metaLen)
	if metaLen > 0 {
		if _, err := io.ReadFull(source, metaBytes); err != nil {
			return nil, err
		}
	}
	meta, err := model.DecodeMeta(metaBytes)
	if err != nil {
		return nil, err
	}
	codec, err := readCodec(source)
	if err != nil {
		return nil, err
	}
	rd := &Reader{
		r:     source,
		meta:  meta,
		names: sortedLayerNames(meta),
		codec: codec,
		dict:  dict.New(),
	}
	log.Debugf("cuac: opened stream with %d declared layers", len(meta))
	return corpus.NewLazy(rd.names, meta, rd), nil
}
