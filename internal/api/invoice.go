package api

import (
	"context"
	"fmt"

	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/validate"
)

// Invoices covers billing for the selected company.
type Invoices struct{ *API }

// List returns the invoices of the selected company.
func (i *Invoices) List(ctx context.Context) client.Result[[]models.Invoice] {
	id, err := i.companyID(ctx)
	if err != nil {
		return client.Result[[]models.Invoice]{Err: err}
	}
	return decode[[]models.Invoice](i.API, i.cache.Query(ctx, EpInvoiceList, nil, companyBody{CompanyID: id}))
}

// Create issues an invoice. The total is computed from the items.
func (i *Invoices) Create(ctx context.Context, inv models.Invoice) error {
	checks := []validate.Check{
		validate.Required("customer_name", inv.CustomerName),
		func() error {
			if len(inv.Items) == 0 {
				return &validate.ValidationError{Field: "items", Reason: "Please add at least one item"}
			}
			return nil
		},
	}
	for n, item := range inv.Items {
		field := fmt.Sprintf("items.%d", n)
		checks = append(checks, validate.Required(field+".description", item.Description))
		if item.Quantity <= 0 {
			checks = append(checks, func() error {
				return &validate.ValidationError{Field: field + ".quantity", Reason: "Quantity must be positive"}
			})
		}
	}
	if err := i.check(checks...); err != nil {
		return err
	}

	id, err := i.companyID(ctx)
	if err != nil {
		return err
	}
	inv.CompanyID = id
	inv.Total = Total(inv.Items)
	if i.cache.Mutate(ctx, EpCreateInvoice, nil, inv) == nil {
		return client.ErrFailed
	}
	return nil
}

// Total sums quantity times rate over items.
func Total(items []models.InvoiceItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Quantity * it.Rate
	}
	return total
}
