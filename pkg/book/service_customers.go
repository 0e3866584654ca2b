package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CreateCustomer registers an active customer. Names are unique, ignoring case.
func (service *Service) CreateCustomer(ctx context.Context, input CustomerInput) (Customer, error) {
	var customer Customer
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		created, err := service.newCustomer(ctx, transactionStore, input)
		if err != nil {
			return err
		}
		customer = created
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:  operationCreateCustomer,
		CustomerID: customer.ID,
		Error:      operationError,
	})
	if operationError != nil {
		return Customer{}, operationError
	}
	return customer, nil
}

func (service *Service) newCustomer(ctx context.Context, store Store, input CustomerInput) (Customer, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return Customer{}, err
	}
	if err := ensureNameAvailable(ctx, store, name, CustomerID{}); err != nil {
		return Customer{}, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return Customer{}, err
	}
	if err := validateCreditLimit(input.CreditLimit); err != nil {
		return Customer{}, err
	}
	customerID, err := NewCustomerID(service.newID())
	if err != nil {
		return Customer{}, err
	}
	customer := Customer{
		ID:          customerID,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(input.Phone),
		CreditLimit: input.CreditLimit,
		Status:      CustomerStatusActive,
		Notes:       strings.TrimSpace(input.Notes),
		CreatedAt:   service.nowFn().UTC(),
	}
	if err := store.CreateCustomer(ctx, customer); err != nil {
		return Customer{}, err
	}
	return customer, nil
}

// findOrCreateCustomer resolves a customer by name, registering it when absent.
func (service *Service) findOrCreateCustomer(ctx context.Context, store Store, rawName string) (Customer, error) {
	name, err := normalizeName(rawName)
	if err != nil {
		return Customer{}, err
	}
	customer, err := store.FindCustomerByName(ctx, name)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, ErrCustomerNotFound) {
		return Customer{}, err
	}
	return service.newCustomer(ctx, store, CustomerInput{Name: name})
}

func ensureNameAvailable(ctx context.Context, store Store, name string, owner CustomerID) error {
	existing, err := store.FindCustomerByName(ctx, name)
	if errors.Is(err, ErrCustomerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == owner {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrDuplicateCustomer, name)
}

// GetCustomer loads a single customer.
func (service *Service) GetCustomer(ctx context.Context, customerID CustomerID) (Customer, error) {
	return service.store.GetCustomer(ctx, customerID)
}

// ListCustomers returns customers whose name, email, or phone contain query,
// case-insensitively. An empty query returns every customer.
func (service *Service) ListCustomers(ctx context.Context, query string) ([]Customer, error) {
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return customers, nil
	}
	filtered := make([]Customer, 0, len(customers))
	for _, customer := range customers {
		if containsFold(needle, customer.Name, customer.Email, customer.Phone) {
			filtered = append(filtered, customer)
		}
	}
	return filtered, nil
}

// UpdateCustomer applies the non-nil fields of update. A rename is copied onto
// every entry of the customer in the same transaction.
func (service *Service) UpdateCustomer(ctx context.Context, customerID CustomerID, update CustomerUpdate) (Customer, error) {
	var updated Customer
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		customer, err := transactionStore.GetCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		renamed := false
		if update.Name != nil {
			name, err := normalizeName(*update.Name)
			if err != nil {
				return err
			}
			if name != customer.Name {
				if err := ensureNameAvailable(ctx, transactionStore, name, customer.ID); err != nil {
					return err
				}
				customer.Name = name
				renamed = true
			}
		}
		if update.Email != nil {
			if customer.Email, err = normalizeEmail(*update.Email); err != nil {
				return err
			}
		}
		if update.Phone != nil {
			customer.Phone = strings.TrimSpace(*update.Phone)
		}
		if update.CreditLimit != nil {
			if err := validateCreditLimit(update.CreditLimit); err != nil {
				return err
			}
			limit := *update.CreditLimit
			customer.CreditLimit = &limit
		}
		if update.Status != nil {
			status, err := ParseCustomerStatus(update.Status.String())
			if err != nil {
				return err
			}
			customer.Status = status
		}
		if update.Notes != nil {
			customer.Notes = strings.TrimSpace(*update.Notes)
		}
		if err := transactionStore.UpdateCustomer(ctx, customer); err != nil {
			return err
		}
		if renamed {
			if err := transactionStore.RenameCustomerEntries(ctx, customer.ID, customer.Name); err != nil {
				return err
			}
		}
		updated = customer
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:  operationUpdateCustomer,
		CustomerID: customerID,
		Error:      operationError,
	})
	if operationError != nil {
		return Customer{}, operationError
	}
	return updated, nil
}

// DeleteCustomer removes a customer and every entry recorded for it.
// Settlements already written keep their payout breakdown.
func (service *Service) DeleteCustomer(ctx context.Context, customerID CustomerID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetCustomer(ctx, customerID); err != nil {
			return err
		}
		if err := transactionStore.DeleteEntriesByCustomer(ctx, customerID); err != nil {
			return err
		}
		return transactionStore.DeleteCustomer(ctx, customerID)
	})
	service.logOperation(ctx, OperationLog{
		Operation:  operationDeleteCustomer,
		CustomerID: customerID,
		Error:      operationError,
	})
	return operationError
}

// CustomerStatistics returns activity statistics for every customer.
func (service *Service) CustomerStatistics(ctx context.Context) ([]CustomerStats, error) {
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := service.store.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	settlements, err := service.store.ListSettlements(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCustomerStats(customers, entries, settlements), nil
}
