package models

// Profile represents a user's profile record in the remote store.
// Conversations is a membership list of conversation IDs, not ownership:
// an ID may transiently be missing from one participant's list until
// membership repair catches up.
type Profile struct {
	UID            string   `json:"uid"`
	Name           string   `json:"name"`
	ProfilePicture string   `json:"profilePicture"`
	Email          string   `json:"email"`
	UserCode       string   `json:"userCode,omitempty"`
	Conversations  []string `json:"conversations"`
}

// HasConversation reports whether the profile's membership list already
// contains the given conversation ID.
func (p *Profile) HasConversation(conversationID string) bool {
	for _, id := range p.Conversations {
		if id == conversationID {
			return true
		}
	}
	return false
}

// ProfileResponse is what we return to clients
type ProfileResponse struct {
	UID            string `json:"uid"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Email          string `json:"email"`
	UserCode       string `json:"userCode,omitempty"`
}

// ToResponse strips the membership list from a profile
func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		UID:            p.UID,
		Name:           p.Name,
		ProfilePicture: p.ProfilePicture,
		Email:          p.Email,
		UserCode:       p.UserCode,
	}
}
