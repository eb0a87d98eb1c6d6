package domain

type ParticipantID string

type Role string

const (
	RoleNone        Role = ""
	RoleParticipant Role = "participant"
	RoleModerator   Role = "moderator"
)

type VideoType string

const (
	VideoTypeUnset   VideoType = ""
	VideoTypeCamera  VideoType = "camera"
	VideoTypeDesktop VideoType = "desktop"
)

// Participant is one conference member as seen from a single view.
//
// Pinned, Focused, Selected and Speaking are exclusive within a collection:
// at most one record carries each of them.
type Participant struct {
	ID     ParticipantID `json:"id"`
	Name   string        `json:"name"`
	Avatar string        `json:"avatar,omitempty"`
	Role   Role          `json:"role,omitempty"`

	// Local marks the record of the view owner. Set once on creation.
	Local bool `json:"local"`

	Pinned   bool `json:"pinned"`
	Focused  bool `json:"focused"`
	Selected bool `json:"selected"`
	Speaking bool `json:"speaking"`

	VideoStarted bool      `json:"videoStarted"`
	VideoType    VideoType `json:"videoType,omitempty"`
}

// ParticipantUpdate is the payload of a bulk update. Only the fields listed
// here can be changed through it; id, local, pinned, speaking and focused
// have dedicated events.
type ParticipantUpdate struct {
	ID ParticipantID `json:"id"`

	Name         *string    `json:"name,omitempty"`
	Avatar       *string    `json:"avatar,omitempty"`
	Role         *Role      `json:"role,omitempty"`
	Selected     *bool      `json:"selected,omitempty"`
	VideoStarted *bool      `json:"videoStarted,omitempty"`
	VideoType    *VideoType `json:"videoType,omitempty"`
}

// Apply returns p with every present field of u copied over. It does not
// check the id.
func (u ParticipantUpdate) Apply(p Participant) Participant {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	if u.Role != nil {
		p.Role = *u.Role
	}
	if u.Selected != nil {
		p.Selected = *u.Selected
	}
	if u.VideoStarted != nil {
		p.VideoStarted = *u.VideoStarted
	}
	if u.VideoType != nil {
		p.VideoType = *u.VideoType
	}
	return p
}

// Empty reports whether u carries no field besides the id.
func (u ParticipantUpdate) Empty() bool {
	return u.Name == nil && u.Avatar == nil && u.Role == nil &&
		u.Selected == nil && u.VideoStarted == nil && u.VideoType == nil
}
