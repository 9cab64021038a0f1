package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/sirupsen/logrus"
)

// AzureMediaStore stores report images in Azure Blob Storage
type AzureMediaStore struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureMediaStore implements MediaStore
var _ MediaStore = (*AzureMediaStore)(nil)

// NewAzureMediaStore creates a blob client using managed identity
func NewAzureMediaStore(accountName, containerName string) (*AzureMediaStore, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	store := &AzureMediaStore{
		client:        client,
		containerName: containerName,
	}

	if err := store.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return store, nil
}

func (s *AzureMediaStore) ensureContainer() error {
	ctx := context.Background()

	_, err := s.client.CreateContainer(ctx, s.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", s.containerName)
	} else {
		logrus.Infof("Created container %s", s.containerName)
	}

	return nil
}

// Upload stores data under folder and returns the blob's public URL
func (s *AzureMediaStore) Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (string, error) {
	blobName := mediaObjectName(folder, filename, time.Now())

	_, err := s.client.UploadBuffer(ctx, s.containerName, blobName, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024), // 1MB blocks
		Concurrency: 3,
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob %s: %w", blobName, err)
	}

	logrus.Infof("Stored %s in Azure Blob Storage", blobName)
	return s.blobURL(blobName), nil
}

// Delete removes the blob behind a URL returned by Upload
func (s *AzureMediaStore) Delete(ctx context.Context, url string) error {
	prefix := s.blobURL("")
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("url %s does not belong to container %s", url, s.containerName)
	}
	blobName := strings.TrimPrefix(url, prefix)

	if _, err := s.client.DeleteBlob(ctx, s.containerName, blobName, nil); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", blobName, err)
	}

	logrus.Infof("Deleted %s from Azure Blob Storage", blobName)
	return nil
}

func (s *AzureMediaStore) blobURL(blobName string) string {
	return strings.TrimSuffix(s.client.URL(), "/") + "/" + s.containerName + "/" + blobName
}

// mediaObjectName prefixes the cleaned file name with a timestamp so repeated
// uploads of the same file do not collide.
func mediaObjectName(folder, filename string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "upload"
	}
	return path.Join(folder, fmt.Sprintf("%d_%s", now.UnixMilli(), name))
}
