package services

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

type cannedGQL struct {
	response string
	err      error
}

func (c *cannedGQL) Query(ctx context.Context, payload interface{}) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []byte(c.response), nil
}

func TestMetadataService_LiveChannel(t *testing.T) {
	gql := &cannedGQL{response: `{"data":{"user":{"displayName":"TestStreamer","profileImageURL":"https://cdn.example/avatar.png","stream":{"title":"speedrun","viewersCount":1234,"game":{"name":"Tetris"}}}}}`}
	svc := NewMetadataService(gql, zaptest.NewLogger(t).Sugar())

	meta, err := svc.Fetch(context.Background(), "teststreamer")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !meta.IsLive {
		t.Error("channel with an active stream must be live")
	}
	if meta.DisplayName != "TestStreamer" {
		t.Errorf("display name = %q", meta.DisplayName)
	}
	if meta.Title != "speedrun" || meta.ViewerCount != 1234 || meta.GameName != "Tetris" {
		t.Errorf("stream fields = %q/%d/%q", meta.Title, meta.ViewerCount, meta.GameName)
	}
}

func TestMetadataService_OfflineChannel(t *testing.T) {
	gql := &cannedGQL{response: `{"data":{"user":{"displayName":"TestStreamer","profileImageURL":"","stream":null}}}`}
	svc := NewMetadataService(gql, zaptest.NewLogger(t).Sugar())

	meta, err := svc.Fetch(context.Background(), "teststreamer")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if meta.IsLive {
		t.Error("channel without a stream must not be live")
	}
	if meta.Title != "" || meta.ViewerCount != 0 {
		t.Error("offline channel must carry no stream fields")
	}
}

func TestMetadataService_UnknownUser(t *testing.T) {
	gql := &cannedGQL{response: `{"data":{"user":null}}`}
	svc := NewMetadataService(gql, zaptest.NewLogger(t).Sugar())

	if _, err := svc.Fetch(context.Background(), "nosuchuser"); err == nil {
		t.Error("unknown user must be an error")
	}
}
