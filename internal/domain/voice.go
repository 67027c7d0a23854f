package domain

type VoiceMember struct {
	UserId      string `json:"userId"`
	DisplayName string `json:"displayName"`
}
