package sessiontoken

import (
	"beatvault/pkg/platform/middleware/auth"
)

// MiddlewareAdapter exposes the token service through the auth middleware's
// validator interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Validate(token string) (*auth.Claims, error) {
	claims, err := a.service.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{
		BuyerID:     claims.BuyerID,
		StorageID:   claims.StorageID,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
	}, nil
}
