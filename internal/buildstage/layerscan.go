package buildstage

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gothamlabs/gothambuild/internal/engine"
	"github.com/gothamlabs/gothambuild/internal/secrets"
)

// Finding reports a secret value discovered inside an image layer.
type Finding struct {
	// Entry is the archive entry the value was found in.
	Entry string

	// Secret is the name of the leaked secret.
	Secret string
}

// ErrSecretInLayer is returned when a layer scan finds secret material
// in the produced image.
var ErrSecretInLayer = errors.New("secret material found in image layer")

// ScanImage exports the image and scans every archive entry for the
// literal value of each present secret. A successful build must yield
// zero findings; anything else means build-stage material crossed into
// the runtime image.
func ScanImage(ctx context.Context, api engine.API, imageRef string, store *secrets.Store) ([]Finding, error) {
	rc, err := api.ImageSave(ctx, []string{imageRef})
	if err != nil {
		return nil, fmt.Errorf("exporting image for layer scan: %w", err)
	}
	defer rc.Close()

	return ScanArchive(rc, store.Secrets())
}

// LayerScanner runs ScanImage against a fixed engine client.
type LayerScanner struct {
	api engine.API
}

// NewLayerScanner creates a LayerScanner on top of an engine client.
func NewLayerScanner(api engine.API) *LayerScanner {
	return &LayerScanner{api: api}
}

// Scan exports imageRef and scans it for the store's secret values.
func (s *LayerScanner) Scan(ctx context.Context, imageRef string, store *secrets.Store) ([]Finding, error) {
	return ScanImage(ctx, s.api, imageRef, store)
}

// ScanArchive scans a `docker save` archive. Layer tars appear as plain
// entries inside the outer archive, so a byte search over every entry
// also covers nested layer content.
func ScanArchive(r io.Reader, secs []secrets.Secret) ([]Finding, error) {
	needles := make([]secrets.Secret, 0, len(secs))
	maxLen := 0
	for _, sec := range secs {
		if sec.Present() {
			needles = append(needles, sec)
			if len(sec.Value) > maxLen {
				maxLen = len(sec.Value)
			}
		}
	}
	if len(needles) == 0 {
		return nil, nil
	}

	var findings []Finding
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading image archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || hdr.Size == 0 {
			continue
		}

		found, err := scanEntry(tr, needles, maxLen)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", hdr.Name, err)
		}
		for _, name := range found {
			findings = append(findings, Finding{Entry: hdr.Name, Secret: name})
		}
	}

	return findings, nil
}

// scanEntry searches one entry's content for every needle, streaming in
// chunks with enough overlap that a value split across chunk boundaries
// is still found. Returns the names of matched secrets.
func scanEntry(r io.Reader, needles []secrets.Secret, maxLen int) ([]string, error) {
	const chunkSize = 64 * 1024

	overlap := maxLen - 1
	buf := make([]byte, 0, chunkSize+overlap)
	chunk := make([]byte, chunkSize)
	matched := make(map[string]bool)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for _, sec := range needles {
				if !matched[sec.Name] && bytes.Contains(buf, []byte(sec.Value)) {
					matched[sec.Name] = true
				}
			}
			if len(buf) > overlap {
				buf = buf[len(buf)-overlap:]
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(matched))
	for _, sec := range needles {
		if matched[sec.Name] {
			names = append(names, sec.Name)
		}
	}
	return names, nil
}
