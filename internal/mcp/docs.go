package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `downloadactivity records who read which shared file and renders the owner's activity feed.

Core concepts:
- Owner: the user whose storage holds the file. Events land in the owner's feed, never the reader's.
- Actor: the user who read the file. Owners reading their own files only produce events for explicit downloads.
- Kind: folder_downloaded, file_downloaded, file_previewed, file_created, file_icon_downloaded, other_downloaded.
- Client: web, desktop or mobile, detected from the user agent.

Tools:
1) record_file_access(path, path_info?, query?, user_agent?): call once per completed read.
   - query.downloadStartSecret marks an explicit download.
   - query.x and query.y together mark an icon/thumbnail fetch.
   - Paths ending in .part are ignored.
2) get_activity_feed(mode?, object_id?, limit?, offset?): read the acting user's feed.
   - mode=short gives compact sentences for a single-file sidebar; it is the default when object_id is set.
   - Adjacent entries about the same file or by the same actor are grouped; "grouped" counts them.

Docs:
- activity://docs/subjects (every sentence the feed can produce)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "activity://docs/subjects",
		Name:        "docs_subjects",
		Title:       "Feed sentences",
		Description: "The sentence patterns used when rendering activity entries.",
		Content: `# Feed sentences

## Long mode

| Access | Client | Sentence |
|---|---|---|
| own download | browser | You downloaded {file} via the browser |
| own download | desktop | You downloaded {file} via the desktop client |
| own download | mobile | You downloaded {file} via the mobile app |
| shared download | browser | Shared file {file} was downloaded by {actor} via the browser |
| shared download | desktop | Shared file {file} was downloaded by {actor} via the desktop client |
| shared download | mobile | Shared file {file} was downloaded by {actor} via the mobile app |
| other access | browser | File {file} accessed by {actor} via the browser |
| other access | desktop | File {file} accessed by {actor} via the desktop client |
| other access | mobile | File {file} accessed by {actor} via the mobile app |

## Short mode

| Access | Sentence |
|---|---|
| download | Downloaded by {actor} (via browser / desktop / app) |
| other access | Accessed by {actor} (via browser / desktop / app) |

## Grouping

Entries within three hours of each other that differ only in {actor} (or, in long mode, only in {file})
are grouped: "Downloaded by {actor3}, {actor2} and {actor1} (via browser)". At most five values are
grouped into one entry, and a change of client always starts a new group.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
