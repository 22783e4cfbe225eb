package api

import (
	"context"
	"strings"

	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/query"
	"github.com/atinyakov/bizops/internal/validate"
)

// Companies covers the businesses a user manages and which one is selected.
type Companies struct{ *API }

// List returns the user's companies.
func (c *Companies) List(ctx context.Context) client.Result[[]models.Company] {
	return decode[[]models.Company](c.API, c.cache.Query(ctx, EpCompanyList, nil, struct{}{}))
}

func (c *Companies) checks(co models.Company) []validate.Check {
	return []validate.Check{
		validate.Required("company_name", co.CompanyName),
		validate.GSTIN("gst_number", co.GSTNumber),
		validate.Optional(co.Email, validate.Email("email", co.Email)),
		validate.Optional(co.Mobile, validate.Mobile("mobile", co.Mobile)),
		validate.Optional(co.Zipcode, validate.Pincode("zipcode", co.Zipcode)),
	}
}

// Create adds a company and, on success, makes it the selected company. On
// failure the session is left untouched.
func (c *Companies) Create(ctx context.Context, co models.Company) (*models.Company, error) {
	if err := c.check(c.checks(co)...); err != nil {
		return nil, err
	}
	co.GSTNumber = strings.ToUpper(co.GSTNumber)

	env := c.cache.Mutate(ctx, EpAddCompany, nil, co)
	if env == nil {
		return nil, client.ErrFailed
	}

	co.ID = env.Field("data.id").String()
	if err := c.session.SetSelectedCompany(ctx, co.ID, co.CompanyName); err != nil {
		return nil, c.storageFailed("select company", err)
	}
	return &co, nil
}

// Update saves changes to a company. A renamed selected company is
// re-selected under its new name.
func (c *Companies) Update(ctx context.Context, co models.Company) error {
	checks := append([]validate.Check{validate.Required("id", co.ID)}, c.checks(co)...)
	if err := c.check(checks...); err != nil {
		return err
	}
	co.GSTNumber = strings.ToUpper(co.GSTNumber)
	if c.cache.Mutate(ctx, EpUpdateCompany, query.Params{"id": co.ID}, co) == nil {
		return client.ErrFailed
	}
	if id, _ := c.session.SelectedCompany(ctx); id == co.ID {
		if err := c.session.SetSelectedCompany(ctx, co.ID, co.CompanyName); err != nil {
			return c.storageFailed("select company", err)
		}
	}
	return nil
}

// Select makes id the current company.
func (c *Companies) Select(ctx context.Context, id, name string) error {
	if err := c.session.SetSelectedCompany(ctx, id, name); err != nil {
		return c.storageFailed("select company", err)
	}
	return nil
}
