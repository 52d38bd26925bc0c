package domain

var Tables = []interface{}{
	// System
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Product{},
	// Ledger
	&Purchase{},
	&PurchaseItem{},
}
