package feed

import "github.com/rpggio/downloadactivity/internal/domain/activity"

type templateKey struct {
	mode       Mode
	downloaded bool
	self       bool
	client     activity.ClientKind
}

var templates = map[templateKey]string{
	{ModeShort, true, false, activity.ClientDesktop}: "Downloaded by {actor} (via desktop)",
	{ModeShort, true, false, activity.ClientMobile}:  "Downloaded by {actor} (via app)",
	{ModeShort, true, false, activity.ClientWeb}:     "Downloaded by {actor} (via browser)",

	{ModeShort, false, false, activity.ClientDesktop}: "Accessed by {actor} (via desktop)",
	{ModeShort, false, false, activity.ClientMobile}:  "Accessed by {actor} (via app)",
	{ModeShort, false, false, activity.ClientWeb}:     "Accessed by {actor} (via browser)",

	{ModeLong, true, true, activity.ClientDesktop}: "You downloaded {file} via the desktop client",
	{ModeLong, true, true, activity.ClientMobile}:  "You downloaded {file} via the mobile app",
	{ModeLong, true, true, activity.ClientWeb}:     "You downloaded {file} via the browser",

	{ModeLong, true, false, activity.ClientDesktop}: "Shared file {file} was downloaded by {actor} via the desktop client",
	{ModeLong, true, false, activity.ClientMobile}:  "Shared file {file} was downloaded by {actor} via the mobile app",
	{ModeLong, true, false, activity.ClientWeb}:     "Shared file {file} was downloaded by {actor} via the browser",

	{ModeLong, false, false, activity.ClientDesktop}: "File {file} accessed by {actor} via the desktop client",
	{ModeLong, false, false, activity.ClientMobile}:  "File {file} accessed by {actor} via the mobile app",
	{ModeLong, false, false, activity.ClientWeb}:     "File {file} accessed by {actor} via the browser",
}

// Template returns the sentence pattern for an event. Only long-mode
// downloads distinguish self from shared access; unknown clients get the
// browser wording.
func Template(mode Mode, kind activity.Kind, self bool, client activity.ClientKind) string {
	downloaded := kind == activity.KindFileDownloaded
	if mode != ModeShort {
		mode = ModeLong
	}
	if mode == ModeShort || !downloaded {
		self = false
	}
	if client != activity.ClientDesktop && client != activity.ClientMobile {
		client = activity.ClientWeb
	}
	return templates[templateKey{mode: mode, downloaded: downloaded, self: self, client: client}]
}
