package testutil

import "github.com/roach88/fieldset/internal/catalog"

// Bank holds the fixture catalogs shared by package tests.
//
// Account declares Name, Opened, Balance, Notes (excluded from equality) and
// Display (local). Deposit extends Account with Rate, Pin (secured) and
// Institution (link).
type Bank struct {
	Account *catalog.Catalog
	Deposit *catalog.Catalog

	Name        *catalog.Descriptor
	Opened      *catalog.Descriptor
	Balance     *catalog.Descriptor
	Notes       *catalog.Descriptor
	Display     *catalog.Descriptor
	Rate        *catalog.Descriptor
	Pin         *catalog.Descriptor
	Institution *catalog.Descriptor
}

// NewBank declares the fixture catalogs. Each call returns new catalogs so
// tests never share descriptors. Both catalogs come back locked.
func NewBank() *Bank {
	b := &Bank{Account: catalog.New("Account")}
	b.Name = b.Account.MustDeclare("Name", catalog.TypeString, catalog.WithLength(40))
	b.Opened = b.Account.MustDeclare("Opened", catalog.TypeDate)
	b.Balance = b.Account.MustDeclare("Balance", catalog.TypeMoney)
	b.Notes = b.Account.MustDeclare("Notes", catalog.TypeString, catalog.WithLength(200), catalog.NotEquality())
	b.Display = b.Account.MustDeclare("Display", catalog.TypeString, catalog.WithLength(80), catalog.Storage(catalog.Local))

	b.Deposit = b.Account.Derive("Deposit")
	b.Rate = b.Deposit.MustDeclare("Rate", catalog.TypeRate)
	b.Pin = b.Deposit.MustDeclare("Pin", catalog.TypeCharArray, catalog.WithLength(8), catalog.Secured())
	b.Institution = b.Deposit.MustDeclare("Institution", catalog.TypeLink)
	b.Deposit.Lock()
	return b
}
