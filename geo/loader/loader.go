// Package loader resolves polygon and grid sources into the
// in-memory structures the masker consumes. Sources are local files,
// http(s) URLs, or s3:// URIs; gzipped payloads are transparent.
package loader

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/gridmask/stream"
	"github.com/rotblauer/gridmask/types/featureset"
	"github.com/tidwall/gjson"
)

// ErrNotFound marks a source that cannot be located or opened.
var ErrNotFound = errors.New("source not found")

var logger = slog.With("pkg", "loader")

// LoadFeatureSet resolves, decodes, and flattens a polygon source.
// Accepted payloads: a GeoJSON FeatureCollection, or newline-
// delimited GeoJSON features (.geojsonl/.ndjson).
// Unresolvable sources return ErrNotFound (wrapped); non-polygon
// geometry returns featureset.ErrGeometryType (wrapped).
func LoadFeatureSet(ctx context.Context, uri string) (*featureset.FeatureSet, error) {
	data, err := fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	data, err = maybeGunzip(data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", uri, err)
	}

	base := strings.TrimSuffix(uri, ".gz")
	if strings.HasSuffix(base, ".geojsonl") || strings.HasSuffix(base, ".ndjson") {
		return loadFeatureLines(ctx, data)
	}
	return loadFeatureCollection(data)
}

func loadFeatureCollection(data []byte) (*featureset.FeatureSet, error) {
	// Cheap geometry-type screen before committing to a full decode
	// of what may be a very large collection.
	for i, t := range gjson.GetBytes(data, "features.#.geometry.type").Array() {
		switch t.String() {
		case "Polygon", "MultiPolygon":
		default:
			return nil, fmt.Errorf("feature %d: %w: %s", i, featureset.ErrGeometryType, t.String())
		}
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	logger.Debug("Loaded feature collection", "features", len(fc.Features))
	return featureset.FromCollection(fc)
}

func loadFeatureLines(ctx context.Context, data []byte) (*featureset.FeatureSet, error) {
	features := stream.Collect(ctx,
		stream.NDJSON[*geojson.Feature](ctx, bytes.NewReader(data)))
	fc := geojson.NewFeatureCollection()
	fc.Features = features
	return featureset.FromCollection(fc)
}

func fetch(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		return fetchS3(ctx, uri)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return fetchHTTP(ctx, uri)
	}
	data, err := os.ReadFile(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return data, nil
}

func fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, uri, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func fetchS3(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: malformed s3 uri: %s", ErrNotFound, uri)
	}
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	out, err := s3.New(sess).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func maybeGunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
