package api

import (
	"context"

	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/validate"
)

// Gym covers gym members of the selected company.
type Gym struct{ *API }

// MemberPage is a member list with the prefix its images are served under.
type MemberPage struct {
	Members  []models.Member
	ImageURL string
}

// Image returns the full image URL of m, or "" when it has none.
func (p MemberPage) Image(m models.Member) string {
	if m.Image == "" {
		return ""
	}
	return client.ImageURL(p.ImageURL, m.Image)
}

// Members returns the members of the selected company.
func (g *Gym) Members(ctx context.Context) client.Result[MemberPage] {
	id, err := g.companyID(ctx)
	if err != nil {
		return client.Result[MemberPage]{Err: err}
	}
	env := g.cache.Query(ctx, EpMemberList, nil, companyBody{CompanyID: id})
	r := decode[[]models.Member](g.API, env)
	page := client.Result[MemberPage]{Message: r.Message, Err: r.Err}
	if r.Err == nil {
		page.Data = MemberPage{Members: r.Data, ImageURL: env.Field("image_url").String()}
	}
	return page
}

// AddMember registers a member in the selected company.
func (g *Gym) AddMember(ctx context.Context, m models.Member) error {
	if err := g.check(
		validate.Required("name", m.Name),
		validate.Mobile("mobile", m.Mobile),
	); err != nil {
		return err
	}
	id, err := g.companyID(ctx)
	if err != nil {
		return err
	}
	m.CompanyID = id
	if g.cache.Mutate(ctx, EpAddMember, nil, m) == nil {
		return client.ErrFailed
	}
	return nil
}
