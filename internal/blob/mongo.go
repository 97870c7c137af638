package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locketsync/internal/config"
)

type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
	GridFS   *gridfs.Bucket
}

func NewMongoConnection(c *config.Config) (*MongoClient, error) {
	clientOptions := options.Client().ApplyURI(c.Mongo.URI)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	database := client.Database(c.Mongo.Database)
	bucket, err := gridfs.NewBucket(database, options.GridFSBucket().SetName("media_files"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GridFS bucket: %w", err)
	}

	return &MongoClient{
		Client:   client,
		Database: database,
		GridFS:   bucket,
	}, nil
}

func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.Client.Disconnect(ctx)
}

// GridStorage keeps media in GridFS and addresses it through the media
// server's public base URL.
type GridStorage struct {
	gridFS  *gridfs.Bucket
	baseURL string
}

func NewGridStorage(mongoClient *MongoClient, baseURL string) *GridStorage {
	return &GridStorage{
		gridFS:  mongoClient.GridFS,
		baseURL: baseURL,
	}
}

// MediaFile describes one stored blob.
type MediaFile struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (gs *GridStorage) Upload(ctx context.Context, filename, mimeType, uploaderID string, content io.Reader) (string, error) {
	metadata := bson.M{
		"mime_type":   mimeType,
		"uploaded_by": uploaderID,
		"uploaded_at": time.Now(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := gs.gridFS.OpenUploadStream(filename, opts)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer stream.Close()

	if _, err := io.Copy(stream, content); err != nil {
		return "", fmt.Errorf("file copy failed: %w", err)
	}

	fileID := stream.FileID.(primitive.ObjectID).Hex()
	return fmt.Sprintf("%s/media/%s", gs.baseURL, fileID), nil
}

func (gs *GridStorage) Download(ctx context.Context, fileID string) (io.Reader, *MediaFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid file ID: %w", err)
	}

	stream, err := gs.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	mediaFile := &MediaFile{
		ID:         fileID,
		Filename:   fileInfo.Name,
		Size:       fileInfo.Length,
		MimeType:   getStringFromMap(metadata, "mime_type"),
		UploadedBy: getStringFromMap(metadata, "uploaded_by"),
		UploadedAt: fileInfo.UploadDate,
	}

	return stream, mediaFile, nil
}

func (gs *GridStorage) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("invalid file ID: %w", err)
	}
	return gs.gridFS.Delete(objectID)
}

func getStringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
