package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewSink_WriterConfig(t *testing.T) {
	sink := NewSink([]string{"localhost:9092"}, "files.download_activity")

	w, ok := sink.writer.(*kafkago.Writer)
	require.True(t, ok)
	require.Equal(t, "files.download_activity", w.Topic)
	require.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	require.IsType(t, &kafkago.Hash{}, w.Balancer)
}

func TestSink_Publish(t *testing.T) {
	w := &fakeWriter{}
	sink := &Sink{writer: w}

	event := activity.Event{
		ID:           3,
		App:          activity.AppID,
		Kind:         activity.KindFileDownloaded,
		AffectedUser: "alice",
		Author:       "bob",
		Timestamp:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Subject:      activity.SubjectSharedFile,
		SubjectParams: activity.SubjectParams{
			File:   activity.FileRef{ID: 42, Path: "/Photos/cat.png"},
			Actor:  "bob",
			Client: activity.ClientWeb,
		},
		Object: activity.ObjectRef{Type: activity.ObjectTypeFiles, ID: 42, Path: "/Photos/cat.png"},
	}

	require.NoError(t, sink.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "alice", string(msg.Key))
	require.Equal(t, []kafkago.Header{
		{Key: "app", Value: []byte(activity.AppID)},
		{Key: "type", Value: []byte("file_downloaded")},
	}, msg.Headers)

	var decoded activity.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, event.SubjectParams, decoded.SubjectParams)
	require.Equal(t, event.Kind, decoded.Kind)

	require.NoError(t, sink.Close())
	require.True(t, w.closed)
}

func TestSink_PublishError(t *testing.T) {
	sink := &Sink{writer: &fakeWriter{err: errors.New("broker down")}}

	err := sink.Publish(context.Background(), activity.Event{ID: 9, AffectedUser: "alice"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broker down")
}

func TestNewSink(t *testing.T) {
	sink := NewSink([]string{"localhost:9092"}, "activity")
	w, ok := sink.writer.(*kafkago.Writer)
	require.True(t, ok)
	require.Equal(t, "activity", w.Topic)
}
