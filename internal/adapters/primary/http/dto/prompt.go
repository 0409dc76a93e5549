package dto

// SavePromptRequest names the owner by username, or by uid when the
// client has no username at hand.
type SavePromptRequest struct {
	UID        string `json:"uid"`
	Username   string `json:"username"`
	PromptName string `json:"prompt_name"`
	Prompt     string `json:"prompt"`
	Domain     string `json:"domain"`
}
