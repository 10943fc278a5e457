package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/testserver"
	"github.com/rpggio/downloadactivity/internal/transport"
	"github.com/stretchr/testify/require"
)

const browserAgent = "Mozilla/5.0 (X11; Linux x86_64) Firefox/120.0"

// tickingClock advances one minute per reading.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

func fileRead(t *testing.T, ts *testserver.TestServer, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/hooks/file-read", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", browserAgent)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getFeed(t *testing.T, ts *testserver.TestServer, token, query string) transport.FeedResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/activity"+query, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.FeedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestEndToEnd_SharedDownloadReachesOwnerFeed(t *testing.T) {
	ts := testserver.New(t, tickingClock())

	resp := fileRead(t, ts, testserver.BobToken, `{"path":"/Photos/cat.png","query":{"downloadStartSecret":"s3cr3t"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var event activity.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	require.Equal(t, "alice", event.AffectedUser)
	require.Equal(t, "bob", event.Author)
	require.Equal(t, activity.KindFileDownloaded, event.Kind)
	require.Equal(t, activity.SubjectSharedFile, event.Subject)
	require.Equal(t, "/Photos/cat.png", event.Object.Path)
	require.Equal(t, "https://cloud.example.com/apps/files/?dir=%2FPhotos&scrollto=cat.png", event.Link)

	feed := getFeed(t, ts, testserver.AliceToken, "")
	require.Len(t, feed.Entries, 1)
	require.Equal(t, "Shared file cat.png was downloaded by Bob via the browser", feed.Entries[0].ParsedSubject)

	require.Empty(t, getFeed(t, ts, testserver.BobToken, "").Entries)
}

func TestEndToEnd_Suppressions(t *testing.T) {
	ts := testserver.New(t, tickingClock())

	// Owner previewing their own file.
	require.Equal(t, http.StatusNoContent, fileRead(t, ts, testserver.AliceToken, `{"path":"/notes.txt"}`).StatusCode)
	// Upload artifact.
	require.Equal(t, http.StatusNoContent, fileRead(t, ts, testserver.BobToken, `{"path":"/Photos/cat.png.part"}`).StatusCode)
	// Not visible to bob.
	require.Equal(t, http.StatusNoContent, fileRead(t, ts, testserver.BobToken, `{"path":"/notes.txt"}`).StatusCode)

	require.Empty(t, getFeed(t, ts, testserver.AliceToken, "").Entries)
}

func TestEndToEnd_GroupsAdjacentEntries(t *testing.T) {
	ts := testserver.New(t, tickingClock())

	require.Equal(t, http.StatusCreated, fileRead(t, ts, testserver.BobToken, `{"path":"/Photos/cat.png","query":{"downloadStartSecret":"1"}}`).StatusCode)
	require.Equal(t, http.StatusCreated, fileRead(t, ts, testserver.BobToken, `{"path":"/Photos/dog.png","query":{"downloadStartSecret":"1"}}`).StatusCode)

	feed := getFeed(t, ts, testserver.AliceToken, "")
	require.Len(t, feed.Entries, 1)
	entry := feed.Entries[0]
	require.NotNil(t, entry.Child)
	require.Contains(t, entry.ParsedSubject, "cat.png")
	require.Contains(t, entry.ParsedSubject, "dog.png")
	require.Contains(t, entry.ParsedSubject, "Bob")
}

func TestEndToEnd_ShortModeFallsBackToUserID(t *testing.T) {
	ts := testserver.New(t, tickingClock())

	token := "carol-token"
	require.NoError(t, ts.Users.CreateAPIKey(context.Background(), token, "carol", "test"))

	resp := fileRead(t, ts, token, `{"path":"/Shared/Photos/cat.png","path_info":"/core/preview.png"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var event activity.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	require.Equal(t, activity.KindFilePreviewed, event.Kind)

	feed := getFeed(t, ts, testserver.AliceToken, "?mode=short&object_id="+jsonNumber(event.Object.ID))
	require.Len(t, feed.Entries, 1)
	require.Equal(t, "Accessed by carol (via browser)", feed.Entries[0].ParsedSubject)
}

func TestEndToEnd_Unauthorized(t *testing.T) {
	ts := testserver.New(t, tickingClock())

	resp := fileRead(t, ts, "not-a-token", `{"path":"/Photos/cat.png"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(r)
}

func TestEndToEnd_MCPOverHTTP(t *testing.T) {
	ts := testserver.New(t, tickingClock())
	ctx := context.Background()

	connect := func(token string) *sdkmcp.ClientSession {
		client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "e2e", Version: "0.0.1"}, nil)
		session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
			Endpoint:   ts.Server.URL + "/mcp",
			HTTPClient: &http.Client{Transport: bearerTransport{token: token}},
		}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = session.Close() })
		return session
	}

	bob := connect(testserver.BobToken)
	res, err := bob.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "record_file_access",
		Arguments: map[string]any{"path": "/Photos/cat.png", "query": map[string]any{"downloadStartSecret": "1"}},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	alice := connect(testserver.AliceToken)
	res, err = alice.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_activity_feed", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)

	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out struct {
		Entries []struct {
			Subject string `json:"subject"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Entries, 1)
	// No user agent reached the tool, so the browser wording applies.
	require.Equal(t, "Shared file cat.png was downloaded by Bob via the browser", out.Entries[0].Subject)
}

func jsonNumber(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}
