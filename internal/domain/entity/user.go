package entity

type User struct {
	ID        string `json:"id" firestore:"id" bson:"_id"`
	Username  string `json:"username" firestore:"username" bson:"username"`
	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty" bson:"avatarUrl,omitempty"`
}

// UserSummary is the public profile attached to messages and conversations.
type UserSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Name:      u.Username,
		AvatarURL: u.AvatarURL,
	}
}
