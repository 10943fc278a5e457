package access

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/owner"
)

// DownloadStartParam is the query parameter the web UI sets when the user
// explicitly starts a download.
const DownloadStartParam = "downloadStartSecret"

var (
	desktopAgent = regexp.MustCompile(`^Mozilla/5\.0 \([A-Za-z ]+\) (mirall|csyncoC)/.*$`)
	mobileAgents = []*regexp.Regexp{
		regexp.MustCompile(`^Mozilla/5\.0 \(Android\) (ownCloud|Nextcloud)-android.*$`),
		regexp.MustCompile(`^Mozilla/5\.0 \(iOS\) (ownCloud|Nextcloud)-iOS.*$`),
	}
)

// RequestContext is the part of the triggering request the classifier reads.
type RequestContext struct {
	UserAgent string
	Query     url.Values
	PathInfo  string
}

// LinkHints are the viewer route parameters for the accessed resource.
type LinkHints struct {
	Dir      string
	ScrollTo string
}

// Decision is the outcome of classifying one access.
type Decision struct {
	Kind    activity.Kind
	Subject activity.SubjectKey
	Link    LinkHints
}

// Classify decides what kind of access happened. It returns false when the
// access is not worth an event.
func Classify(res owner.Resolution, self bool, req RequestContext) (Decision, bool) {
	if res.IsContainer {
		subject := activity.SubjectSharedFolder
		if self {
			subject = activity.SubjectFolderSelf
		}
		return Decision{
			Kind:    activity.KindFolderDownloaded,
			Subject: subject,
			Link:    LinkHints{Dir: res.Path},
		}, true
	}

	link := LinkHints{Dir: parentDir(res.Path), ScrollTo: path.Base(res.Path)}

	if req.Query.Get(DownloadStartParam) != "" {
		subject := activity.SubjectSharedFile
		if self {
			subject = activity.SubjectFileSelf
		}
		return Decision{Kind: activity.KindFileDownloaded, Subject: subject, Link: link}, true
	}

	// Owners reading their own files without an explicit download are
	// previews and sync reads.
	if self {
		return Decision{}, false
	}

	if req.Query.Has("x") && req.Query.Has("y") {
		return Decision{Kind: activity.KindIconDownloaded, Subject: activity.SubjectSharedFileIcon, Link: link}, true
	}

	kind, subject := ClassifyFromURLHint(terminalSegment(req.PathInfo))
	return Decision{Kind: kind, Subject: subject, Link: link}, true
}

// ClassifyFromURLHint maps the terminal segment of the request URL to a kind.
func ClassifyFromURLHint(segment string) (activity.Kind, activity.SubjectKey) {
	segment = strings.ToLower(segment)
	switch {
	case strings.Contains(segment, "preview"):
		return activity.KindFilePreviewed, activity.SubjectSharedFilePreview
	case strings.Contains(segment, "create"):
		return activity.KindFileCreated, activity.SubjectSharedFileCreate
	default:
		return activity.KindOtherDownloaded, activity.SubjectSharedOther
	}
}

// DetectClient classifies the access channel from a user agent.
func DetectClient(userAgent string) activity.ClientKind {
	if desktopAgent.MatchString(userAgent) {
		return activity.ClientDesktop
	}
	for _, re := range mobileAgents {
		if re.MatchString(userAgent) {
			return activity.ClientMobile
		}
	}
	return activity.ClientWeb
}

// terminalSegment returns the last path segment without its extension.
func terminalSegment(pathInfo string) string {
	trimmed := strings.TrimRight(pathInfo, "/")
	if trimmed == "" {
		return ""
	}
	base := path.Base(trimmed)
	if base == "/" || base == "." {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// parentDir returns the directory containing p; top-level entries live in "/".
func parentDir(p string) string {
	if strings.Count(p, "/") == 1 {
		return "/"
	}
	return path.Dir(p)
}
