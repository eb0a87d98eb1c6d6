package domain

import "encoding/json"

type MediaType string

const (
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// StreamHandle is the underlying media track object. Handles are compared by
// identity, so implementations must be pointer types.
// *webrtc.TrackRemote and *webrtc.TrackLocalStaticRTP satisfy it.
type StreamHandle interface {
	ID() string
	StreamID() string
}

// Track is one media stream bound to a participant.
type Track struct {
	Handle    StreamHandle
	Local     bool
	MediaType MediaType

	// ParticipantID may be empty while the owning participant is not yet
	// known to the view.
	ParticipantID ParticipantID

	Muted        bool
	MirrorVideo  bool
	VideoStarted bool
	VideoType    VideoType
}

type trackJSON struct {
	TrackID       string        `json:"trackId"`
	StreamID      string        `json:"streamId"`
	Local         bool          `json:"local"`
	MediaType     MediaType     `json:"mediaType"`
	ParticipantID ParticipantID `json:"participantId,omitempty"`
	Muted         bool          `json:"muted"`
	MirrorVideo   bool          `json:"mirrorVideo"`
	VideoStarted  bool          `json:"videoStarted"`
	VideoType     VideoType     `json:"videoType,omitempty"`
}

func (t Track) MarshalJSON() ([]byte, error) {
	out := trackJSON{
		Local:         t.Local,
		MediaType:     t.MediaType,
		ParticipantID: t.ParticipantID,
		Muted:         t.Muted,
		MirrorVideo:   t.MirrorVideo,
		VideoStarted:  t.VideoStarted,
		VideoType:     t.VideoType,
	}
	if t.Handle != nil {
		out.TrackID = t.Handle.ID()
		out.StreamID = t.Handle.StreamID()
	}
	return json.Marshal(out)
}

// TrackChange is a partial track. Fields left nil survive a merge.
type TrackChange struct {
	Handle StreamHandle

	Muted         *bool
	MirrorVideo   *bool
	VideoStarted  *bool
	VideoType     *VideoType
	ParticipantID *ParticipantID
}

// Merge shallow-merges c on top of t.
func (c TrackChange) Merge(t Track) Track {
	if c.Muted != nil {
		t.Muted = *c.Muted
	}
	if c.MirrorVideo != nil {
		t.MirrorVideo = *c.MirrorVideo
	}
	if c.VideoStarted != nil {
		t.VideoStarted = *c.VideoStarted
	}
	if c.VideoType != nil {
		t.VideoType = *c.VideoType
	}
	if c.ParticipantID != nil {
		t.ParticipantID = *c.ParticipantID
	}
	return t
}
