package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/downloadactivity/internal/domain/access"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/feed"
	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/rpggio/downloadactivity/internal/mcp"
	"github.com/rpggio/downloadactivity/internal/sqlite"
	"github.com/rpggio/downloadactivity/internal/transport"
	"github.com/rpggio/downloadactivity/internal/urls"
	"github.com/stretchr/testify/require"
)

// BaseURL is the instance URL links are built against.
const BaseURL = "https://cloud.example.com"

// Tokens of the seeded users.
const (
	AliceToken = "alice-token"
	BobToken   = "bob-token"
)

// seed has alice share /Photos with bob and keep /notes.txt private.
var seed = &sqlite.SeedData{
	Users: []sqlite.SeedUser{
		{ID: "alice", DisplayName: "Alice", APIKeys: []string{AliceToken}},
		{ID: "bob", DisplayName: "Bob", APIKeys: []string{BobToken}},
		{ID: "carol", DisplayName: ""},
	},
	Nodes: []sqlite.SeedNode{
		{Owner: "alice", Path: "/Photos", Folder: true},
		{Owner: "alice", Path: "/Photos/cat.png"},
		{Owner: "alice", Path: "/Photos/dog.png"},
		{Owner: "alice", Path: "/notes.txt"},
	},
	Shares: []sqlite.SeedShare{
		{Owner: "alice", Path: "/Photos", Recipient: "bob", MountPath: "/Photos"},
		{Owner: "alice", Path: "/Photos", Recipient: "carol", MountPath: "/Shared/Photos"},
	},
}

// TestServer is a fully wired instance over an in-memory database.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Access   *access.Service
	Activity *activity.Service
	Feed     *feed.Service
	MCP      *sdkmcp.Server
	Users    *sqlite.UserRepository
}

// New starts a seeded test server. now stamps every built event.
func New(t *testing.T, now func() time.Time) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	require.NoError(t, sqlite.Seed(context.Background(), db, seed))

	links, err := urls.New(BaseURL)
	require.NoError(t, err)

	users := sqlite.NewUserRepository(db, nil)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	resolver := owner.NewResolver(sqlite.NewNodeRepository(db), nil)
	accessSvc := access.NewService(resolver, activity.NewBuilder(now), activitySvc, links, nil)
	feedSvc := feed.NewService(activitySvc, feed.NewRenderer(users, links, false), nil, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Access: accessSvc,
			Feed:   feedSvc,
		},
		Resolver:      users,
		AuthEnabled:   true,
		TransportMode: "http",
	})

	router := transport.NewServer(accessSvc, feedSvc, transport.AuthMiddleware(users), nil)
	router.Handle("/mcp", mcp.NewHTTPHandler(mcpServer))
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Access:   accessSvc,
		Activity: activitySvc,
		Feed:     feedSvc,
		MCP:      mcpServer,
		Users:    users,
	}
}
