package dto

type ConnectAccountRequest struct {
	Platform       string `json:"platform"`
	ExternalID     string `json:"externalId"`
	Name           string `json:"name"`
	AccessToken    string `json:"accessToken"`
	DeveloperToken string `json:"developerToken"`
}
