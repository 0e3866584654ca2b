package book

const (
	operationCreateMatch    = "create_match"
	operationUpdateMatch    = "update_match"
	operationDeleteMatch    = "delete_match"
	operationCreateCustomer = "create_customer"
	operationUpdateCustomer = "update_customer"
	operationDeleteCustomer = "delete_customer"
	operationAddEntry       = "add_entry"
	operationUpdateEntry    = "update_entry"
	operationDeleteEntry    = "delete_entry"
	operationConvert        = "convert_entry"
	operationImport         = "import_entries"
	operationSettle         = "settle_match"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	percentDivisor = 100
)
