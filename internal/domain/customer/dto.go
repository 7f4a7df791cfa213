// internal/domain/customer/dto.go
package customer

type LinkExternalContactRequest struct {
	ExternalContactID string `json:"external_contact_id" binding:"required,max=64"`
}

type PushContactResponse struct {
	ExternalContactID string `json:"external_contact_id"`
}
