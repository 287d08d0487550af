package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwise/api/internal/audit"
	"github.com/rentwise/api/internal/objectstore"
)

func TestMediaService_Upload_StoresAndBuildsURL(t *testing.T) {
	t.Parallel()

	var gotName, gotType, gotBody string
	store := &mockImageStore{putFunc: func(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
		gotName, gotType = filename, contentType
		b, _ := io.ReadAll(r)
		gotBody = string(b)
		return "65f0aa", nil
	}}
	rec := &mockAudit{}
	svc := NewMediaService(MediaServiceConfig{
		Store:         store,
		PublicBaseURL: "https://api.rentwise.app/",
		MaxBytes:      1024,
		Audit:         rec,
	})
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	res, err := svc.Upload(context.Background(), "u1", "my photo.png", "image/png", 5, strings.NewReader("pixel"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.rentwise.app/custom/images/65f0aa", res.URL)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "pixel", gotBody)
	assert.Regexp(t, `^[0-9a-f-]{36}_1700000000_my_photo\.png$`, gotName)
	assert.Equal(t, []string{audit.EventImageUpload}, rec.names())
}

func TestMediaService_Upload_Rejections(t *testing.T) {
	t.Parallel()

	store := &mockImageStore{putFunc: func(context.Context, string, string, io.Reader) (string, error) {
		t.Fatal("store must not be called")
		return "", nil
	}}
	svc := NewMediaService(MediaServiceConfig{Store: store, MaxBytes: 10})

	_, err := svc.Upload(context.Background(), "u1", "a.pdf", "application/pdf", 5, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = svc.Upload(context.Background(), "u1", "a.png", "image/png", 11, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestMediaService_Unconfigured(t *testing.T) {
	t.Parallel()

	svc := NewMediaService(MediaServiceConfig{})
	assert.False(t, svc.Enabled())

	_, err := svc.Upload(context.Background(), "u1", "a.png", "image/png", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrMediaUnavailable)

	_, err = svc.Open(context.Background(), "65f0aa")
	assert.ErrorIs(t, err, ErrMediaUnavailable)
}

func TestMediaService_Open(t *testing.T) {
	t.Parallel()

	store := &mockImageStore{openFunc: func(ctx context.Context, id string) (*objectstore.Object, error) {
		switch id {
		case "found":
			return &objectstore.Object{ReadCloser: io.NopCloser(strings.NewReader("img")), ContentType: "image/png"}, nil
		case "broken":
			return nil, errors.New("mongo down")
		}
		return nil, objectstore.ErrNotFound
	}}
	svc := NewMediaService(MediaServiceConfig{Store: store})

	obj, err := svc.Open(context.Background(), "found")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)

	_, err = svc.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = svc.Open(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrImageNotFound)
}

func TestObjectName_StripsPath(t *testing.T) {
	t.Parallel()

	name := objectName(`C:\Users\me\house.jpg`, time.Unix(42, 0))
	assert.True(t, strings.HasSuffix(name, "_42_house.jpg"), name)

	name = objectName("", time.Unix(42, 0))
	assert.True(t, strings.HasSuffix(name, "_42_upload"), name)
}
