package activity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// AppID identifies events owned by the download activity feature.
const AppID = "files_downloadactivity"

// ObjectTypeFiles is the object type of every event this app produces.
const ObjectTypeFiles = "files"

// Kind is the type of access an event records.
type Kind string

const (
	KindFolderDownloaded Kind = "folder_downloaded"
	KindFileDownloaded   Kind = "file_downloaded"
	KindFilePreviewed    Kind = "file_previewed"
	KindFileCreated      Kind = "file_created"
	KindIconDownloaded   Kind = "file_icon_downloaded"
	KindOtherDownloaded  Kind = "other_downloaded"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindSubjects[k]
	return ok
}

// SubjectKey selects the sentence template used to render an event.
type SubjectKey string

const (
	SubjectSharedFileDownloaded   SubjectKey = "shared_file_downloaded"
	SubjectSharedFolderDownloaded SubjectKey = "shared_folder_downloaded"
	SubjectFileSelf               SubjectKey = "file_self"
	SubjectFolderSelf             SubjectKey = "folder_self"
	SubjectSharedFile             SubjectKey = "shared_file"
	SubjectSharedFolder           SubjectKey = "shared_folder"
	SubjectSharedFilePreview      SubjectKey = "shared_file_preview"
	SubjectSharedFileCreate       SubjectKey = "shared_file_create"
	SubjectSharedFileIcon         SubjectKey = "shared_file_icon"
	SubjectSharedOther            SubjectKey = "shared_other"
)

// Known reports whether the subject carries file and actor parameters.
func (s SubjectKey) Known() bool {
	switch s {
	case SubjectSharedFileDownloaded, SubjectSharedFolderDownloaded,
		SubjectFileSelf, SubjectFolderSelf,
		SubjectSharedFile, SubjectSharedFolder,
		SubjectSharedFilePreview, SubjectSharedFileCreate,
		SubjectSharedFileIcon, SubjectSharedOther:
		return true
	}
	return false
}

// kindSubjects lists the subjects each kind may be paired with.
var kindSubjects = map[Kind][]SubjectKey{
	KindFolderDownloaded: {SubjectSharedFolder, SubjectFolderSelf, SubjectSharedFolderDownloaded},
	KindFileDownloaded:   {SubjectSharedFile, SubjectFileSelf, SubjectSharedFileDownloaded},
	KindFilePreviewed:    {SubjectSharedFilePreview},
	KindFileCreated:      {SubjectSharedFileCreate},
	KindIconDownloaded:   {SubjectSharedFileIcon},
	KindOtherDownloaded:  {SubjectSharedOther},
}

// Consistent reports whether kind and subject may appear on the same event.
func Consistent(kind Kind, subject SubjectKey) bool {
	for _, s := range kindSubjects[kind] {
		if s == subject {
			return true
		}
	}
	return false
}

// ClientKind is the access channel derived from the request's user agent.
type ClientKind string

const (
	ClientWeb     ClientKind = "web"
	ClientDesktop ClientKind = "desktop"
	ClientMobile  ClientKind = "mobile"
)

// FileRef maps a resource identifier to its canonical path.
type FileRef struct {
	ID   int64
	Path string
}

// SubjectParams are the ordered subject parameters (file, actor, client).
// They are persisted as the positional array [{"<id>":"<path>"},"<actor>","<client>"].
type SubjectParams struct {
	File   FileRef
	Actor  string
	Client ClientKind
}

// MarshalJSON encodes the parameters positionally.
func (p SubjectParams) MarshalJSON() ([]byte, error) {
	file := map[string]string{strconv.FormatInt(p.File.ID, 10): p.File.Path}
	return json.Marshal([]any{file, p.Actor, string(p.Client)})
}

// UnmarshalJSON decodes the positional parameter array.
func (p *SubjectParams) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode subject params: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("decode subject params: expected 3 entries, got %d", len(raw))
	}

	var file map[string]string
	if err := json.Unmarshal(raw[0], &file); err != nil {
		return fmt.Errorf("decode file ref: %w", err)
	}
	if len(file) != 1 {
		return fmt.Errorf("decode file ref: expected one entry, got %d", len(file))
	}
	for id, path := range file {
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("decode file id: %w", err)
		}
		p.File = FileRef{ID: parsed, Path: path}
	}

	if err := json.Unmarshal(raw[1], &p.Actor); err != nil {
		return fmt.Errorf("decode actor: %w", err)
	}
	var client string
	if err := json.Unmarshal(raw[2], &client); err != nil {
		return fmt.Errorf("decode client: %w", err)
	}
	p.Client = ClientKind(client)
	return nil
}

// ObjectRef identifies the accessed resource.
type ObjectRef struct {
	Type string `json:"type" validate:"required"`
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

// Event is an activity record of one file or folder access.
type Event struct {
	ID            int64         `json:"id"`
	App           string        `json:"app" validate:"required"`
	Kind          Kind          `json:"type" validate:"required"`
	AffectedUser  string        `json:"affected_user" validate:"required"`
	Author        string        `json:"author" validate:"required"`
	Timestamp     time.Time     `json:"timestamp"`
	Subject       SubjectKey    `json:"subject" validate:"required"`
	SubjectParams SubjectParams `json:"subject_params"`
	Object        ObjectRef     `json:"object"`
	Link          string        `json:"link"`
}

// IsSelf reports whether the author accessed their own resource.
func (e Event) IsSelf() bool {
	return e.Author == e.AffectedUser
}
