package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

const blobHostSuffix = ".blob.core.windows.net"

// AzureBlobFetcher implements ImageFetcher for blobs in a single storage account
type AzureBlobFetcher struct {
	client      *azblob.Client
	accountName string
	maxBytes    int64
}

// NewAzureBlobFetcher creates a shared-key client for accountName
func NewAzureBlobFetcher(accountName, accountKey string, maxBytes int64) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, blobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &AzureBlobFetcher{client: client, accountName: accountName, maxBytes: maxBytes}, nil
}

// IsBlobHost reports whether host is an Azure blob endpoint
func IsBlobHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), blobHostSuffix)
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob path>
func ParseBlobURL(blobURL string) (account, container, blob string, err error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	if !IsBlobHost(u.Hostname()) {
		return "", "", "", fmt.Errorf("not a blob URL: %s", u.Hostname())
	}

	account = strings.TrimSuffix(strings.ToLower(u.Hostname()), blobHostSuffix)
	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return "", "", "", fmt.Errorf("blob URL must name a container and a blob: %s", u.Path)
	}
	return account, container, blob, nil
}

// FetchImage downloads the blob at blobURL
func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	account, container, blob, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(account, s.accountName) {
		return nil, fmt.Errorf("blob account %q does not match configured account", account)
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, container, blob)
		}
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	size := int64(-1)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return readLimited(resp.Body, size, s.maxBytes)
}
