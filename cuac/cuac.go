// Package cuac implements the CorpusFile stream codec (spec.md §4.9): the
// Cuac binary format's header, codec configuration block, and per-document
// layer stream, plus the streaming Write/Read operations spec.md §6 names.
package cuac

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	logging "github.com/ipfs/go-log/v2"
	"github.com/vbauerster/mpb/v8"

	"github.com/teanga-nlp/teanga-go/corpus"
	"github.com/teanga-nlp/teanga-go/dict"
	"github.com/teanga-nlp/teanga-go/layercodec"
	"github.com/teanga-nlp/teanga-go/model"
	"github.com/teanga-nlp/teanga-go/strcodec"
)

var log = logging.Logger("teanga/cuac")

// Magic is the fixed 6-byte header preamble.
const Magic = "TEANGA"

// Version is the only stream version this module writes or accepts.
const Version uint16 = 1

var (
	// ErrBadMagic is returned when a stream doesn't open with Magic.
	ErrBadMagic = errors.New("cuac: bad magic bytes")
	// ErrVersionMismatch is spec.md §7's VersionMismatch.
	ErrVersionMismatch = errors.New("cuac: unsupported stream version")
	// ErrUnknownCodecTag is returned reading a codec_tag byte outside 0-3.
	ErrUnknownCodecTag = errors.New("cuac: unrecognized codec tag")
)

// Config selects the string codec a Write pass uses, and optional
// progress/cancellation hooks.
type Config struct {
	// StringCompression picks the codec written to the header.
	StringCompression strcodec.Tag
	// ShocoTrainBudget bounds, in bytes of sampled Characters-layer text,
	// how much of the document stream TagShocoTrained peeks ahead into
	// before committing a trained model to the header. Ignored otherwise.
	ShocoTrainBudget int
	// Bar, if non-nil, is incremented once per document written (the
	// teacher's compactindexsized builder reports progress the same way,
	// via a caller-owned *mpb.Bar rather than cuac constructing its own).
	Bar *mpb.Bar
}

// sortedLayerNames returns meta's keys in ascending order — the canonical
// per-document layer order spec.md §4.9 and §4.8 both require.
func sortedLayerNames(meta map[string]*model.LayerDesc) []string {
	names := make([]string, 0, len(meta))
	for name := range meta {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteHeader writes the magic, version, and CBOR metadata block, and
// returns a fresh dictionary plus the canonical (sorted) layer-name order
// that WriteDoc will walk for every document in this stream. The Cuac
// wire format never serializes the dictionary itself (DESIGN.md, dict);
// the returned *dict.Dictionary is the live, in-memory promotion table a
// caller threads through every WriteDoc call.
func WriteHeader(sink io.Writer, meta map[string]*model.LayerDesc) (*dict.Dictionary, []string, error) {
	if _, err := io.WriteString(sink, Magic); err != nil {
		return nil, nil, err
	}
	if err := writeU16(sink, Version); err != nil {
		return nil, nil, err
	}
	encoded, err := model.EncodeMeta(meta)
	if err != nil {
		return nil, nil, err
	}
	if err := writeU32(sink, uint32(len(encoded))); err != nil {
		return nil, nil, err
	}
	if _, err := sink.Write(encoded); err != nil {
		return nil, nil, err
	}
	return dict.New(), sortedLayerNames(meta), nil
}

// writeConfig writes the codec_tag byte and, for a trained Shoco model,
// its serialized payload.
func writeConfig(sink io.Writer, tag strcodec.Tag, trained *strcodec.Model) error {
	if _, err := sink.Write([]byte{byte(tag)}); err != nil {
		return err
	}
	if tag == strcodec.TagShocoTrained {
		return strcodec.WriteModel(sink, trained)
	}
	return nil
}

// WriteDoc writes one document's per-layer stream in canonical (sorted)
// layer-name order. A layer the document doesn't populate is written as
// the 0xFF absent sentinel even when ld.Default would supply a value on
// read — spec.md §9's absent-vs-default note: the default is materialised
// by the reader on access, never written to the wire.
func WriteDoc(sink io.Writer, doc model.Document, d *dict.Dictionary, meta map[string]*model.LayerDesc, codec strcodec.Codec) error {
	for _, name := range sortedLayerNames(meta) {
		ld := meta[name]
		l, ok := doc.Content[name]
		if !ok {
			if err := layercodec.WriteAbsent(sink); err != nil {
				return err
			}
			continue
		}
		if err := model.ValidateDocumentLayer(name, ld, l); err != nil {
			return err
		}
		if err := layercodec.Encode(sink, l, ld, d, codec); err != nil {
			return err
		}
	}
	return nil
}

// Write drains src into sink as a complete Cuac stream: header, codec
// configuration, then every document in src's order. For
// strcodec.TagShocoTrained, it peeks ahead into src's document iterator
// to sample Characters-layer text up to cfg.ShocoTrainBudget bytes,
// caching the examined documents, before committing the trained model to
// the header and replaying the cache followed by the remainder — the
// same peek-ahead/replay discipline as the write_cuac_with_config
// RefCell-backed replay in the original Rust writer.
func Write(ctx context.Context, sink io.Writer, src corpus.Readable, cfg Config) error {
	_, meta := src.GetMeta() // declaration order isn't part of the wire layout; only sorted names are.

	d, _, err := WriteHeader(sink, meta)
	if err != nil {
		return err
	}

	switch cfg.StringCompression {
	case strcodec.TagNone:
		if err := writeConfig(sink, strcodec.TagNone, nil); err != nil {
			return err
		}
		return streamDocs(ctx, sink, src, d, meta, strcodec.NoCompression{}, cfg.Bar)
	case strcodec.TagSmaz:
		if err := writeConfig(sink, strcodec.TagSmaz, nil); err != nil {
			return err
		}
		return streamDocs(ctx, sink, src, d, meta, strcodec.SmazCompression{}, cfg.Bar)
	case strcodec.TagShocoDefault:
		if err := writeConfig(sink, strcodec.TagShocoDefault, nil); err != nil {
			return err
		}
		return streamDocs(ctx, sink, src, d, meta, strcodec.ShocoDefault(), cfg.Bar)
	case strcodec.TagShocoTrained:
		return writeTrainedShoco(ctx, sink, src, d, meta, cfg)
	default:
		return fmt.Errorf("%w: tag %d", ErrUnknownCodecTag, cfg.StringCompression)
	}
}

// streamDocs writes every document src.IterDocs yields, checking ctx
// between documents (so a cancelled Write leaves a stream truncated at a
// document boundary, per spec.md §5's cancellation semantics) and
// incrementing bar, if given, once per document.
func streamDocs(ctx context.Context, sink io.Writer, src corpus.Readable, d *dict.Dictionary, meta map[string]*model.LayerDesc, codec strcodec.Codec, bar *mpb.Bar) error {
	for _, doc := range src.IterDocs(ctx) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := WriteDoc(sink, doc, d, meta, codec); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	return ctx.Err()
}

// writeTrainedShoco implements the peek-ahead discipline: sample
// Characters text from the head of the stream until ShocoTrainBudget
// bytes are collected (caching every examined document along the way),
// build the model, write codec config, then replay the cache and stream
// whatever remains.
func writeTrainedShoco(ctx context.Context, sink io.Writer, src corpus.Readable, d *dict.Dictionary, meta map[string]*model.LayerDesc, cfg Config) error {
	var samples []string
	var sampleBytes int
	var cache []model.Document

	next, stop := iterPull(src.IterDocs(ctx))
	defer stop()

	for sampleBytes < cfg.ShocoTrainBudget {
		doc, ok := next()
		if !ok {
			break
		}
		cache = append(cache, doc)
		for _, name := range doc.SortedLayerNames() {
			l := doc.Content[name]
			if l.Kind == model.KindCharacters {
				samples = append(samples, l.Characters)
				sampleBytes += len(l.Characters)
			}
		}
	}

	trained := strcodec.TrainShoco(samples, cfg.ShocoTrainBudget)
	if err := writeConfig(sink, strcodec.TagShocoTrained, trained); err != nil {
		return err
	}
	codec := strcodec.NewShocoCompression(trained)

	for _, doc := range cache {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := WriteDoc(sink, doc, d, meta, codec); err != nil {
			return err
		}
		if cfg.Bar != nil {
			cfg.Bar.Increment()
		}
	}
	for {
		doc, ok := next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := WriteDoc(sink, doc, d, meta, codec); err != nil {
			return err
		}
		if cfg.Bar != nil {
			cfg.Bar.Increment()
		}
	}
	return ctx.Err()
}

// iterPull adapts an iter.Seq2 into a pull-style next()/stop() pair, so
// the peek-ahead training loop can interleave "take one more document"
// with its own stopping condition instead of a single range loop.
func iterPull(seq func(yield func(string, model.Document) bool)) (next func() (model.Document, bool), stop func()) {
	docCh := make(chan model.Document)
	doneCh := make(chan struct{})
	stopped := false

	go func() {
		defer close(docCh)
		seq(func(_ string, d model.Document) bool {
			select {
			case docCh <- d:
				return true
			case <-doneCh:
				return false
			}
		})
	}()

	next = func() (model.Document, bool) {
		d, ok := <-docCh
		return d, ok
	}
	stop = func() {
		if !stopped {
			stopped = true
			close(doneCh)
		}
	}
	return next, stop
}
