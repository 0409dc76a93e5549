package dto

type RegisterUIDRequest struct {
	UID   string `json:"uid" binding:"required"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type AvatarResponse struct {
	Avatar string `json:"avatar"`
}
