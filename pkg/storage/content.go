package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Scheme prefixes every content URI.
const Scheme = "ipfs://"

var contentPrefix = cid.NewPrefixV1(cid.Raw, mh.SHA2_256)

// Object identifies stored content by its CIDv1 and file name.
type Object struct {
	CID  string `json:"cid"`
	Name string `json:"name"`
}

// Key is the blob key the object is stored under.
func (o Object) Key() string {
	return o.CID + "/" + o.Name
}

// URI is the externally resolvable content URI.
func (o Object) URI() string {
	return Scheme + o.Key()
}

// ContentID computes the CIDv1 (raw codec, sha2-256) of data.
func ContentID(data []byte) (string, error) {
	c, err := contentPrefix.Sum(data)
	if err != nil {
		return "", fmt.Errorf("compute content id: %w", err)
	}
	return c.String(), nil
}

// Put stores data under its content address and returns the resulting object.
// Content already present is not uploaded again.
func Put(ctx context.Context, sys System, name, contentType string, data []byte) (Object, error) {
	if name == "" || strings.Contains(name, "/") {
		return Object{}, fmt.Errorf("%w: object name %q", ErrInvalidKey, name)
	}

	id, err := ContentID(data)
	if err != nil {
		return Object{}, err
	}

	obj := Object{CID: id, Name: name}

	exists, err := sys.Exists(ctx, obj.Key())
	if err != nil {
		return Object{}, err
	}
	if exists {
		return obj, nil
	}

	if err := sys.Upload(ctx, obj.Key(), bytes.NewReader(data), contentType); err != nil {
		return Object{}, err
	}
	return obj, nil
}

// Get reads the full content behind a content URI.
func Get(ctx context.Context, sys System, uri string) ([]byte, error) {
	obj, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := sys.Download(ctx, obj.Key())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return data, nil
}

// ParseURI splits a content URI into its object parts and verifies the CID.
func ParseURI(uri string) (Object, error) {
	rest, ok := strings.CutPrefix(uri, Scheme)
	if !ok {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}

	id, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}

	if _, err := cid.Decode(id); err != nil {
		return Object{}, fmt.Errorf("%w: %q: %w", ErrInvalidURI, uri, err)
	}

	return Object{CID: id, Name: name}, nil
}

// IsURI reports whether s uses the content URI scheme.
func IsURI(s string) bool {
	return strings.HasPrefix(s, Scheme)
}
