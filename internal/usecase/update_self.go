package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// UpdateSelfInput is the PUT /self/account/ body. Nil fields are left unchanged.
type UpdateSelfInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// UpdateSelf edits the signed-in user's profile.
type UpdateSelf struct {
	d Deps
}

// NewUpdateSelf creates a new UpdateSelf usecase.
func NewUpdateSelf(d Deps) *UpdateSelf {
	return &UpdateSelf{d: d}
}

// Execute sends the update and stores the returned identity in the cache.
func (uc *UpdateSelf) Execute(ctx context.Context, in UpdateSelfInput) (domain.Self, error) {
	m := cache.Mutation[UpdateSelfInput, domain.APISelf]{
		Name: "update_self",
		Fn: func(ctx context.Context, in UpdateSelfInput) (domain.APISelf, error) {
			res, err := uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/self/account/", Method: http.MethodPut, JSON: in})
			if err != nil {
				return domain.APISelf{}, err
			}
			return decode[domain.APISelf](res, "self")
		},
		OnSuccess: func(_ context.Context, out domain.APISelf, _ UpdateSelfInput) {
			uc.d.Cache.SetData(KeySelf, out)
			uc.d.success(MsgAccountUpdated)
		},
		OnError: func(_ context.Context, err error, _ UpdateSelfInput) {
			apiErr, _ := domain.AsAPIError(err)
			switch domain.StatusOf(err) {
			case http.StatusBadRequest:
				if msg, ok := apiErr.FirstMessage(); ok {
					uc.d.failRaw(msg)
					return
				}
				uc.d.fail(MsgSomethingWrong)
			case http.StatusUnauthorized:
				uc.d.fail(MsgSessionExpired)
			case http.StatusForbidden:
				uc.d.fail(MsgNoUpdatePermission)
			default:
				uc.d.fail(MsgSomethingWrong)
			}
		},
		Logger: uc.d.Logger,
	}
	out, err := m.Run(ctx, in)
	if err != nil {
		return domain.Self{}, err
	}
	return domain.DeserializeSelf(out), nil
}
