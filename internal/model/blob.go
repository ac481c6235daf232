package model

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobLocation is an artifact prefix inside an Azure Blob Storage container.
type BlobLocation struct {
	ServiceURL string
	Container  string
	Prefix     string
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<prefix>.
func ParseBlobURL(raw string) (BlobLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return BlobLocation{}, fmt.Errorf("parse blob url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return BlobLocation{}, fmt.Errorf("blob url %q: scheme must be https", raw)
	}
	if u.Host == "" {
		return BlobLocation{}, fmt.Errorf("blob url %q: missing host", raw)
	}
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if parts[0] == "" {
		return BlobLocation{}, fmt.Errorf("blob url %q: missing container", raw)
	}
	loc := BlobLocation{
		ServiceURL: u.Scheme + "://" + u.Host + "/",
		Container:  parts[0],
	}
	if len(parts) == 2 {
		loc.Prefix = parts[1]
	}
	return loc, nil
}

func (l BlobLocation) blobName(file string) string {
	if l.Prefix == "" {
		return file
	}
	return path.Join(l.Prefix, file)
}

// FetchArtifacts downloads the classifier, labels and, for onnx artifacts,
// the graph file from rawURL into dir. Credentials come from the default
// Azure credential chain. Failures match ErrModelUnavailable.
func FetchArtifacts(ctx context.Context, rawURL, dir string) error {
	loc, err := ParseBlobURL(rawURL)
	if err != nil {
		return &UnavailableError{Path: rawURL, Err: err}
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return &UnavailableError{Path: rawURL, Err: fmt.Errorf("azure credential: %w", err)}
	}
	client, err := azblob.NewClient(loc.ServiceURL, cred, nil)
	if err != nil {
		return &UnavailableError{Path: rawURL, Err: fmt.Errorf("blob client: %w", err)}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &UnavailableError{Path: dir, Err: err}
	}

	for _, name := range []string{LabelsFile, ClassifierFile} {
		if err := fetchFirst(ctx, client, loc, dir, name); err != nil {
			return err
		}
	}

	raw, _, err := readArtifact(dir, ClassifierFile)
	if err != nil {
		return &UnavailableError{Path: dir, Err: err}
	}
	var art ClassifierArtifact
	if err := decodeArtifact(raw, &art); err != nil {
		return &UnavailableError{Path: dir, Err: err}
	}
	if art.Kind == KindONNX && art.ONNX != "" {
		return download(ctx, client, loc, dir, art.ONNX)
	}
	return nil
}

// fetchFirst downloads the first of name, name.zst, name.gz that exists.
func fetchFirst(ctx context.Context, client *azblob.Client, loc BlobLocation, dir, name string) error {
	for _, suffix := range compressedSuffixes {
		err := download(ctx, client, loc, dir, name+suffix)
		if err == nil {
			return nil
		}
		if !bloberror.HasCode(err, bloberror.BlobNotFound) {
			return err
		}
	}
	return &UnavailableError{
		Path: loc.blobName(name),
		Err:  fmt.Errorf("no blob for %s in container %s", name, loc.Container),
	}
}

func download(ctx context.Context, client *azblob.Client, loc BlobLocation, dir, file string) error {
	dest := filepath.Join(dir, filepath.FromSlash(file))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &UnavailableError{Path: dest, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return &UnavailableError{Path: dest, Err: err}
	}
	defer os.Remove(tmp.Name())

	_, err = client.DownloadFile(ctx, loc.Container, loc.blobName(file), tmp, nil)
	closeErr := tmp.Close()
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return err
		}
		return &UnavailableError{Path: loc.blobName(file), Err: err}
	}
	if closeErr != nil {
		return &UnavailableError{Path: dest, Err: closeErr}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return &UnavailableError{Path: dest, Err: err}
	}
	return nil
}

