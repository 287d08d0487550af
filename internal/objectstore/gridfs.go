package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BucketName is the GridFS bucket holding listing images
const BucketName = "images"

// ErrNotFound is returned when no object has the requested id
var ErrNotFound = errors.New("object not found")

// Object is an open download stream
type Object struct {
	io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

type fileMetadata struct {
	ContentType string `bson:"content_type"`
}

// GridFSStore reads and writes objects in a GridFS bucket
type GridFSStore struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

// Connect opens a MongoDB client for uri and the images bucket of dbName
func Connect(ctx context.Context, uri, dbName string) (*GridFSStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("objectstore: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("objectstore: ping: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(dbName), options.GridFSBucket().SetName(BucketName))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("objectstore: open bucket: %w", err)
	}
	return &GridFSStore{client: client, bucket: bucket}, nil
}

// Put streams r into a new object and returns its id
func (s *GridFSStore) Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	stream, err := s.bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return "", fmt.Errorf("objectstore: open upload: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("objectstore: upload: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("objectstore: finish upload: %w", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("objectstore: unexpected file id type %T", stream.FileID)
	}
	return id.Hex(), nil
}

// Open returns a stream over the object; the caller must close it
func (s *GridFSStore) Open(ctx context.Context, id string) (*Object, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("objectstore: open download: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	file := stream.GetFile()
	obj := &Object{ReadCloser: stream, Name: file.Name, Size: file.Length}

	var meta fileMetadata
	if len(file.Metadata) > 0 && bson.Unmarshal(file.Metadata, &meta) == nil {
		obj.ContentType = meta.ContentType
	}
	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	return obj, nil
}

// Close disconnects the MongoDB client
func (s *GridFSStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
