// Package intake hands the import engine a readable byte stream for a local
// path or a gs:// URI. Upload limits, temp files and multipart parsing are
// the API layer's problem; decoding legacy single-byte exports is handled
// here so the engine only ever sees UTF-8.
package intake

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/storage"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const gcsPrefix = "gs://"

// Open returns a stream for ref, which is either a filesystem path or a
// gs://bucket/object URI. The caller owns the returned ReadCloser.
func Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if strings.HasPrefix(ref, gcsPrefix) {
		return openGCS(ctx, ref)
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("intake: open file %q: %w", ref, err)
	}
	return decodeStream(f), nil
}

// openGCS opens a streaming reader over a GCS object. The storage client is
// closed together with the reader.
func openGCS(ctx context.Context, uri string) (io.ReadCloser, error) {
	trimmed := strings.TrimPrefix(uri, gcsPrefix)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("intake: invalid GCS URI (no object path): %s", uri)
	}
	bucketName, objectPath := parts[0], parts[1]

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("intake: create storage client: %w", err)
	}

	r, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("intake: open object %s/%s: %w", bucketName, objectPath, err)
	}

	return decodeStream(&gcsStream{reader: r, client: client}), nil
}

// gcsStream ties the object reader and its client into one Close.
type gcsStream struct {
	reader *storage.Reader
	client *storage.Client
}

func (s *gcsStream) Read(p []byte) (int, error) { return s.reader.Read(p) }

func (s *gcsStream) Close() error {
	rerr := s.reader.Close()
	cerr := s.client.Close()
	if rerr != nil {
		return rerr
	}
	return cerr
}

// sniffLen is how many leading bytes are inspected for the encoding check.
const sniffLen = 4096

// decodeStream sniffs the head of the stream: valid UTF-8 passes through
// untouched, anything else is assumed to be an ISO-8859-1 SAP export and
// transcoded on the fly.
func decodeStream(rc io.ReadCloser) io.ReadCloser {
	br := bufio.NewReaderSize(rc, sniffLen)
	head, _ := br.Peek(sniffLen)
	if isLikelyUTF8(head) {
		return &decodedStream{Reader: br, closer: rc}
	}
	return &decodedStream{
		Reader: transform.NewReader(br, charmap.ISO8859_1.NewDecoder()),
		closer: rc,
	}
}

// isLikelyUTF8 validates the sample, ignoring a rune truncated by the sample
// boundary.
func isLikelyUTF8(sample []byte) bool {
	for len(sample) > 0 {
		r, size := utf8.DecodeRune(sample)
		if r == utf8.RuneError && size == 1 {
			// A truncated trailing sequence is not evidence of latin-1.
			return len(sample) < utf8.UTFMax
		}
		sample = sample[size:]
	}
	return true
}

type decodedStream struct {
	io.Reader
	closer io.Closer
}

func (d *decodedStream) Close() error { return d.closer.Close() }
